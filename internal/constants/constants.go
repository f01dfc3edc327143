// Package constants provides a centralized location for default values and
// thresholds used throughout ghissues.
package constants

import "time"

// Request defaults
const (
	// DefaultPerPage is the page size used for issue lists and search.
	DefaultPerPage = 30

	// MaxPerPage is the largest page size the GitHub REST API accepts.
	MaxPerPage = 100

	// DefaultRequestRetries is how many times a transient network failure
	// is retried before it is surfaced.
	DefaultRequestRetries = 3

	// DefaultRequestRetryDelay is the fixed delay between retries.
	DefaultRequestRetryDelay = 1 * time.Second

	// DefaultListLimit is the number of issues printed by `ghissues list`.
	DefaultListLimit = 10
)

// Cache constants
const (
	// DefaultCacheTTL is how long a cached response stays fresh.
	DefaultCacheTTL = 5 * time.Minute
)

// Rate limiting constants
const (
	// RateLimitLowWatermark is the threshold below which the transport
	// logs remaining quota.
	RateLimitLowWatermark = 100

	// RateLimitWarnRemaining is the absolute remaining count below which
	// a rate limit check is reported as a warning.
	RateLimitWarnRemaining = 10

	// RateLimitWarnFraction is the fraction of the limit below which a
	// rate limit check is reported as a warning.
	RateLimitWarnFraction = 0.1

	// AuthenticatedRateLimit is the hourly core limit for token requests.
	AuthenticatedRateLimit = 5000

	// AnonymousRateLimit is the hourly core limit for unauthenticated requests.
	AnonymousRateLimit = 60
)

// TUI display constants
const (
	// StatusClearDelay is how long transient status messages stay visible.
	StatusClearDelay = 3 * time.Second

	// HeaderLines is the number of lines used for the list header.
	HeaderLines = 2

	// FooterLines is the number of lines used for the status bar and help.
	FooterLines = 3

	// TabBarLines is the number of lines used for the tab bar.
	TabBarLines = 2

	// EventBuffer is the capacity of the controller -> TUI event channel.
	EventBuffer = 64
)

// Issue state constants
const (
	// StateOpen indicates an issue is open.
	StateOpen = "open"

	// StateClosed indicates an issue is closed.
	StateClosed = "closed"
)
