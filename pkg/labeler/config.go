package labeler

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Rule associates a label with one or more glob patterns. A pull request
// gets the label when any pattern matches any changed file.
type Rule struct {
	Label    string
	Patterns []string
}

// TeamDataSource points at an externally hosted team-data file that the
// team_labels section can reference instead of listing members inline.
type TeamDataSource struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
	Path  string `yaml:"path"`
	Ref   string `yaml:"ref,omitempty"`
}

// RuleSet is the fully-typed labeling configuration. Exactly one of
// TeamLabels and TeamSource is populated for the team side; Rules always
// holds the file-pattern side.
type RuleSet struct {
	Rules      []Rule
	TeamLabels map[string][]string
	TeamSource *TeamDataSource
}

// ConfigError represents a labeling configuration error. It is fatal: the
// whole run aborts and no labels are applied.
type ConfigError struct {
	Label   string `json:"label,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("labeler config error for label %q: %s", e.Label, e.Message)
	}
	return fmt.Sprintf("labeler config error: %s", e.Message)
}

// rawConfig mirrors the YAML document before validation. Values are kept as
// nodes so malformed entries can be reported with the offending label.
type rawConfig struct {
	FilePatternLabels map[string]yaml.Node `yaml:"file_pattern_labels"`
	TeamLabels        yaml.Node            `yaml:"team_labels"`
}

// ParseConfig is the single parsing-and-validation boundary for labeling
// configuration. It returns either a fully-typed RuleSet or a ConfigError;
// partially-typed data never reaches the classifier.
func ParseConfig(data []byte) (*RuleSet, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("failed to parse YAML: %v", err)}
	}

	rs := &RuleSet{}

	labels := make([]string, 0, len(raw.FilePatternLabels))
	for label := range raw.FilePatternLabels {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		node := raw.FilePatternLabels[label]
		patterns, err := decodePatterns(label, node)
		if err != nil {
			return nil, err
		}
		rs.Rules = append(rs.Rules, Rule{Label: label, Patterns: patterns})
	}

	if !raw.TeamLabels.IsZero() {
		if err := decodeTeamLabels(raw.TeamLabels, rs); err != nil {
			return nil, err
		}
	}

	return rs, nil
}

// decodePatterns normalizes a rule value to a pattern list. A single string
// becomes a one-element list; anything else is a configuration error naming
// the label.
func decodePatterns(label string, node yaml.Node) ([]string, error) {
	var patterns []string

	switch node.Kind {
	case yaml.ScalarNode:
		var pattern string
		if err := node.Decode(&pattern); err != nil || pattern == "" {
			return nil, &ConfigError{Label: label, Message: "pattern must be a non-empty string"}
		}
		patterns = []string{pattern}
	case yaml.SequenceNode:
		if err := node.Decode(&patterns); err != nil {
			return nil, &ConfigError{Label: label, Message: "patterns must be a list of strings"}
		}
		if len(patterns) == 0 {
			return nil, &ConfigError{Label: label, Message: "at least one pattern is required"}
		}
		for _, pattern := range patterns {
			if pattern == "" {
				return nil, &ConfigError{Label: label, Message: "patterns must be non-empty strings"}
			}
		}
	default:
		return nil, &ConfigError{Label: label, Message: "value must be a glob pattern string or a list of glob patterns"}
	}

	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, &ConfigError{Label: label, Message: fmt.Sprintf("invalid glob pattern %q", pattern)}
		}
	}

	return patterns, nil
}

// decodeTeamLabels interprets the team_labels section either as an inline
// label-to-members mapping or as an indirection to an external team-data
// file (a mapping carrying a path key).
func decodeTeamLabels(node yaml.Node, rs *RuleSet) error {
	if node.Kind != yaml.MappingNode {
		return &ConfigError{Message: "team_labels must be a mapping"}
	}

	if hasMappingKey(node, "path") {
		var source TeamDataSource
		if err := node.Decode(&source); err != nil {
			return &ConfigError{Message: fmt.Sprintf("invalid team data source: %v", err)}
		}
		if source.Path == "" {
			return &ConfigError{Message: "team data source requires a path"}
		}
		rs.TeamSource = &source
		return nil
	}

	teamLabels := make(map[string][]string)
	if err := node.Decode(&teamLabels); err != nil {
		return &ConfigError{Message: "team_labels must map each label to a list of usernames"}
	}
	rs.TeamLabels = teamLabels
	return nil
}

func hasMappingKey(node yaml.Node, key string) bool {
	// Mapping nodes store keys and values interleaved.
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}
