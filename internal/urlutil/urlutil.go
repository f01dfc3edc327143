// Package urlutil parses GitHub URLs and issue references.
package urlutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// remotePattern matches https, ssh and scp-style GitHub remotes:
//
//	https://github.com/owner/repo.git
//	git@github.com:owner/repo.git
//	ssh://git@github.com/owner/repo
var remotePattern = regexp.MustCompile(`github\.com[/:]([^/\s:]+)/([^/\s]+?)(?:\.git)?/?$`)

// issueURLPattern matches web and API issue URLs.
var issueURLPattern = regexp.MustCompile(`github\.com/(?:repos/)?([^/]+)/([^/]+)/issues/(\d+)`)

// ParseRemote extracts owner and repo from a GitHub remote URL.
func ParseRemote(remote string) (owner, repo string, err error) {
	m := remotePattern.FindStringSubmatch(strings.TrimSpace(remote))
	if m == nil {
		return "", "", fmt.Errorf("not a GitHub remote: %s", remote)
	}
	return m[1], m[2], nil
}

// IssueRef is an issue number, optionally qualified by its repository.
type IssueRef struct {
	Owner  string
	Repo   string
	Number int
}

// ParseIssueRef accepts "123", "#123", "owner/repo#123" or an issue URL.
func ParseIssueRef(s string) (IssueRef, error) {
	s = strings.TrimSpace(s)
	if m := issueURLPattern.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[3])
		return IssueRef{Owner: m[1], Repo: m[2], Number: n}, nil
	}

	var ref IssueRef
	if i := strings.LastIndex(s, "#"); i > 0 {
		full := s[:i]
		owner, repo, ok := strings.Cut(full, "/")
		if !ok || owner == "" || repo == "" {
			return IssueRef{}, fmt.Errorf("invalid issue reference: %s", s)
		}
		ref.Owner, ref.Repo = owner, repo
		s = s[i:]
	}

	n, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil || n <= 0 {
		return IssueRef{}, fmt.Errorf("invalid issue number: %s", s)
	}
	ref.Number = n
	return ref, nil
}

// HasRepo reports whether the reference names its repository.
func (r IssueRef) HasRepo() bool {
	return r.Owner != "" && r.Repo != ""
}
