package ghclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"

	gh "github.com/google/go-github/v57/github"
)

// Kind is the closed set of error classes every remote call is mapped to.
type Kind string

const (
	KindAuthRequired     Kind = "auth_required"
	KindAuthFailed       Kind = "auth_failed"
	KindRateLimited      Kind = "rate_limited"
	KindNotFound         Kind = "not_found"
	KindNetworkTransient Kind = "network_transient"
	KindUnknown          Kind = "unknown"
)

// Error is a classified remote failure.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (%d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns a short description suitable for a status line.
func (e *Error) Message() string {
	switch e.Kind {
	case KindAuthRequired:
		return "Authentication required: set GITHUB_TOKEN or enter a token"
	case KindAuthFailed:
		return "Authentication failed: check that your token is valid"
	case KindRateLimited:
		return "GitHub API rate limit exceeded. Authenticate with a token to raise the limit"
	case KindNotFound:
		return "Not found"
	case KindNetworkTransient:
		return "Network error talking to GitHub, please retry"
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "Unknown error"
	}
}

// NewAuthRequired returns the error used when op needs a token and none is set.
func NewAuthRequired(op string) *Error {
	return &Error{Kind: KindAuthRequired, Op: op, Status: http.StatusUnauthorized}
}

// KindOf returns the classification of err. Unclassified errors are
// KindUnknown; nil has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is classified as k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// UserMessage returns the status-line text for err.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message()
	}
	return err.Error()
}

// classify maps a raw error from go-github or the transport onto a Kind.
func classify(op string, err error) *Error {
	var already *Error
	if errors.As(err, &already) {
		return already
	}

	out := &Error{Kind: KindUnknown, Op: op, Err: err}

	var (
		rateErr  *gh.RateLimitError
		abuseErr *gh.AbuseRateLimitError
		respErr  *gh.ErrorResponse
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// never retried
	case errors.Is(err, ErrRateLimited):
		out.Kind = KindRateLimited
		out.Status = http.StatusForbidden
	case errors.As(err, &rateErr):
		out.Kind = KindRateLimited
		out.Status = statusOf(rateErr.Response)
	case errors.As(err, &abuseErr):
		out.Kind = KindRateLimited
		out.Status = statusOf(abuseErr.Response)
	case errors.As(err, &respErr):
		out.Status = statusOf(respErr.Response)
		out.Kind = kindForStatus(respErr.Response)
	case isTransient(err):
		out.Kind = KindNetworkTransient
	}
	return out
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func kindForStatus(resp *http.Response) Kind {
	if resp == nil {
		return KindUnknown
	}
	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized:
		return KindAuthFailed
	case code == http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return KindRateLimited
		}
		return KindAuthFailed
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code == http.StatusNotFound:
		return KindNotFound
	case code >= http.StatusInternalServerError:
		return KindNetworkTransient
	default:
		return KindUnknown
	}
}

// isTransient reports connection and timeout failures. Certificate, TLS
// and proxy setup errors fail the same way on every attempt.
func isTransient(err error) bool {
	var (
		certErr      *tls.CertificateVerificationError
		authorityErr x509.UnknownAuthorityError
		hostErr      x509.HostnameError
		invalidErr   x509.CertificateInvalidError
		recordErr    tls.RecordHeaderError
		opErr        *net.OpError
		netErr       net.Error
	)
	switch {
	case errors.As(err, &certErr), errors.As(err, &authorityErr), errors.As(err, &hostErr),
		errors.As(err, &invalidErr), errors.As(err, &recordErr):
		return false
	case errors.As(err, &opErr) && opErr.Op == "proxyconnect":
		return false
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return true
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ECONNREFUSED):
		return true
	case errors.As(err, &opErr):
		return true
	}
	// *url.Error is itself a net.Error, so only its Timeout answer counts.
	return errors.As(err, &netErr) && netErr.Timeout()
}
