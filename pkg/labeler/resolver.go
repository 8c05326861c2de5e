package labeler

import "sort"

// ResolveTeamLabels returns every label whose member set contains the
// author, sorted. An empty author (the event has no associated pull
// request) resolves to no labels; that is not an error.
func ResolveTeamLabels(author string, teamLabels map[string][]string) []string {
	if author == "" {
		return nil
	}

	var labels []string
	for label, members := range teamLabels {
		for _, member := range members {
			if member == author {
				labels = append(labels, label)
				break
			}
		}
	}

	sort.Strings(labels)
	return labels
}
