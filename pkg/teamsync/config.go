package teamsync

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// TeamSpec is the desired state for one organization team.
type TeamSpec struct {
	Name    string   `json:"name"`
	Short   string   `json:"short,omitempty"`
	Slug    string   `json:"slug"`
	Members []string `json:"members"`
}

// Label returns the name used for labeling and slug derivation: the short
// name when present, the team name otherwise.
func (t TeamSpec) Label() string {
	if t.Short != "" {
		return t.Short
	}
	return t.Name
}

// ConfigError represents a team-data configuration error. It is fatal and
// aborts the run before any side effects.
type ConfigError struct {
	Team    string `json:"team,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Team != "" {
		return fmt.Sprintf("team data error for team %q: %s", e.Team, e.Message)
	}
	return fmt.Sprintf("team data error: %s", e.Message)
}

// rawTeam mirrors one team entry in the YAML team-data file.
type rawTeam struct {
	Members []rawMember `yaml:"members"`
	Short   string      `yaml:"short,omitempty"`
}

type rawMember struct {
	GitHub string `yaml:"github"`
}

// ParseTeamData is the single parsing-and-validation boundary for the
// team-data file. It returns fully-typed team specs sorted by name, or a
// ConfigError naming the offending team. Two teams whose names derive the
// same slug are rejected here rather than racing each other at sync time.
func ParseTeamData(data []byte) ([]TeamSpec, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("failed to parse YAML: %v", err)}
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	slugOwners := make(map[string]string)
	teams := make([]TeamSpec, 0, len(names))

	for _, name := range names {
		node := raw[name]

		var rt rawTeam
		if err := node.Decode(&rt); err != nil {
			return nil, &ConfigError{Team: name, Message: "entry must be a mapping with a members list"}
		}
		if len(rt.Members) == 0 {
			return nil, &ConfigError{Team: name, Message: "at least one member is required"}
		}

		members := make([]string, 0, len(rt.Members))
		seen := make(map[string]bool)
		for i, member := range rt.Members {
			if member.GitHub == "" {
				return nil, &ConfigError{Team: name, Message: fmt.Sprintf("member %d: github username is required", i+1)}
			}
			if err := validateUsername(member.GitHub); err != nil {
				return nil, &ConfigError{Team: name, Message: err.Error()}
			}
			if !seen[member.GitHub] {
				seen[member.GitHub] = true
				members = append(members, member.GitHub)
			}
		}
		sort.Strings(members)

		team := TeamSpec{Name: name, Short: rt.Short, Members: members}
		team.Slug = Slugify(team.Label())
		if team.Slug == "" {
			return nil, &ConfigError{Team: name, Message: "team name yields an empty slug"}
		}
		if owner, taken := slugOwners[team.Slug]; taken {
			return nil, &ConfigError{Team: name, Message: fmt.Sprintf("slug %q collides with team %q", team.Slug, owner)}
		}
		slugOwners[team.Slug] = name

		teams = append(teams, team)
	}

	return teams, nil
}

// LabelMap converts team specs into the label-to-members mapping used by
// the pull request labeler. The short name, when present, is the label.
func LabelMap(teams []TeamSpec) map[string][]string {
	labels := make(map[string][]string, len(teams))
	for _, team := range teams {
		labels[team.Label()] = team.Members
	}
	return labels
}

// Slugify derives the URL-safe team identifier from a display name:
// lowercase, with every run of non-alphanumeric characters collapsed to a
// single hyphen. The derivation is deterministic; it must match the slug
// GitHub assigns so that computed slugs address the right API routes.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// validateUsername validates a GitHub username according to GitHub's rules:
// alphanumeric characters and single hyphens, no leading or trailing
// hyphen, at most 39 characters.
func validateUsername(username string) error {
	if len(username) > 39 {
		return fmt.Errorf("username %q must be 39 characters or less", username)
	}

	validUsername := regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)
	if !validUsername.MatchString(username) {
		return fmt.Errorf("username %q is invalid: must contain only alphanumeric characters and single hyphens, cannot start or end with hyphen", username)
	}

	if strings.Contains(username, "--") {
		return fmt.Errorf("username %q is invalid: cannot contain consecutive hyphens", username)
	}

	return nil
}
