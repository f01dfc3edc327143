package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRemote(t *testing.T) {
	tests := []struct {
		remote string
		owner  string
		repo   string
	}{
		{"https://github.com/cli/cli.git", "cli", "cli"},
		{"https://github.com/cli/cli", "cli", "cli"},
		{"git@github.com:spiffcs/ghissues.git", "spiffcs", "ghissues"},
		{"ssh://git@github.com/spiffcs/ghissues", "spiffcs", "ghissues"},
		{"https://github.com/owner/repo.name.git", "owner", "repo.name"},
	}
	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			owner, repo, err := ParseRemote(tt.remote)
			require.NoError(t, err)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.repo, repo)
		})
	}
}

func TestParseRemoteRejectsOtherHosts(t *testing.T) {
	_, _, err := ParseRemote("https://gitlab.com/owner/repo.git")
	assert.Error(t, err)
}

func TestParseIssueRef(t *testing.T) {
	tests := []struct {
		in   string
		want IssueRef
	}{
		{"42", IssueRef{Number: 42}},
		{"#42", IssueRef{Number: 42}},
		{"cli/cli#7", IssueRef{Owner: "cli", Repo: "cli", Number: 7}},
		{"https://github.com/cli/cli/issues/9", IssueRef{Owner: "cli", Repo: "cli", Number: 9}},
		{"https://api.github.com/repos/cli/cli/issues/10", IssueRef{Owner: "cli", Repo: "cli", Number: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIssueRef(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIssueRefInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "#0", "-3", "/#4", "cli#x"} {
		_, err := ParseIssueRef(in)
		assert.Error(t, err, in)
	}
}
