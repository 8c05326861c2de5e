package labeler

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Classify matches the changed files of a pull request against the label
// rules and returns the labels to apply, sorted. A rule's label is included
// when any of its patterns matches any changed file; patterns match against
// the full repository-relative path with shell-glob semantics including
// doublestar. The result does not depend on the order of rules or files.
func Classify(changedFiles []string, rules []Rule) ([]string, error) {
	var labels []string

	for _, rule := range rules {
		matched, err := ruleMatches(rule, changedFiles)
		if err != nil {
			return nil, err
		}
		if matched {
			labels = append(labels, rule.Label)
		}
	}

	sort.Strings(labels)
	return labels, nil
}

func ruleMatches(rule Rule, changedFiles []string) (bool, error) {
	for _, pattern := range rule.Patterns {
		for _, file := range changedFiles {
			matched, err := doublestar.Match(pattern, file)
			if err != nil {
				return false, &ConfigError{Label: rule.Label, Message: fmt.Sprintf("invalid glob pattern %q: %v", pattern, err)}
			}
			if matched {
				return true, nil
			}
		}
	}
	return false, nil
}
