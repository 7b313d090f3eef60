package comment

import (
	"slices"
	"strings"
)

// Techniques is the fixed MITRE ATT&CK tactic taxonomy offered as tag
// suggestions next to the campaign's own tags.
var Techniques = []string{
	"Collection",
	"CommandAndControl",
	"CredentialAccess",
	"DefenseEvasion",
	"Discovery",
	"Execution",
	"Exfiltration",
	"Impact",
	"InitialAccess",
	"LateralMovement",
	"Persistence",
	"PrivilegeEscalation",
	"Reconnaissance",
	"ResourceDevelopment",
}

// FilterTags reports whether tag matches the search query, case-insensitively.
// With exact set the whole tag has to match.
func FilterTags(query, tag string, exact bool) bool {
	normalizedTag := strings.ToLower(tag)
	normalizedQuery := strings.ToLower(query)

	if exact {
		return normalizedTag == normalizedQuery
	}
	return strings.Contains(normalizedTag, normalizedQuery)
}

// suggest merges the candidate sets, drops excluded tags and returns the rest
// deduplicated in ascending order
func suggest(exclude []string, candidates ...[]string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0)
	for _, set := range candidates {
		for _, tag := range set {
			if slices.Contains(exclude, tag) {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			result = append(result, tag)
		}
	}
	slices.Sort(result)
	return result
}
