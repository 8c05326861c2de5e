package teamsync

import "sort"

// MembershipDiff is the minimal set of add and remove operations that make
// a team's actual membership match the desired membership. ToAdd and
// ToRemove are disjoint and sorted; usernames in neither are untouched.
type MembershipDiff struct {
	ToAdd    []string `json:"to_add,omitempty"`
	ToRemove []string `json:"to_remove,omitempty"`
}

// Empty reports whether the diff changes nothing.
func (d MembershipDiff) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

// Diff computes the membership changes needed to turn current into desired.
// Pure set difference, no I/O: ToAdd = desired − current, ToRemove =
// current − desired. A team that does not exist yet diffs against an empty
// current set, which makes creation the same computation as an update.
func Diff(desired, current []string) MembershipDiff {
	desiredSet := make(map[string]bool, len(desired))
	for _, username := range desired {
		desiredSet[username] = true
	}

	currentSet := make(map[string]bool, len(current))
	for _, username := range current {
		currentSet[username] = true
	}

	var diff MembershipDiff
	for username := range desiredSet {
		if !currentSet[username] {
			diff.ToAdd = append(diff.ToAdd, username)
		}
	}
	for username := range currentSet {
		if !desiredSet[username] {
			diff.ToRemove = append(diff.ToRemove, username)
		}
	}

	// Sorted order keeps the per-username API calls and their logs
	// reproducible across runs.
	sort.Strings(diff.ToAdd)
	sort.Strings(diff.ToRemove)

	return diff
}
