package labeler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveTeamLabels(t *testing.T) {
	teamLabels := map[string][]string{
		"infra":     {"dave", "alice"},
		"docs-team": {"carol"},
		"backend":   {"dave"},
	}

	tests := []struct {
		name     string
		author   string
		expected []string
	}{
		{"member of two teams", "dave", []string{"backend", "infra"}},
		{"member of one team", "carol", []string{"docs-team"}},
		{"member of no team", "mallory", nil},
		{"unknown author resolves to nothing", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveTeamLabels(tt.author, teamLabels))
		})
	}
}

func TestResolveTeamLabelsEmptyMap(t *testing.T) {
	assert.Empty(t, ResolveTeamLabels("dave", nil))
	assert.Empty(t, ResolveTeamLabels("dave", map[string][]string{}))
}
