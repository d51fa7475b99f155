package curriculum

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// legacyDefaultKeys is the exact eligibility shape the pre-migration import
// wrote onto every category. A map equal to this triple (and nothing else)
// means "never deliberately assigned", not "assigned to all three groups".
// Keep this an exact comparison: generalizing it would swallow genuine
// triple-true assignments created after the migration window.
var legacyDefaultKeys = map[string]bool{
	"LKG":       true,
	"UKG":       true,
	"Reception": true,
}

// IsUnassigned reports whether a category's eligibility map marks it as
// never deliberately enabled: either empty or exactly the historical
// default triple. Such categories are never offered for selection.
func IsUnassigned(eligibility map[string]bool) bool {
	if len(eligibility) == 0 {
		return true
	}
	if len(eligibility) != len(legacyDefaultKeys) {
		return false
	}
	for k, v := range legacyDefaultKeys {
		if eligibility[k] != v {
			return false
		}
	}
	return true
}

// abbreviations maps historical short keys to the long names they stand in
// for. Matching works in both directions so a category saved under either
// convention resolves the same way.
var abbreviations = map[string]string{
	"lkg": "lower kindergarten",
	"ukg": "upper kindergarten",
}

// keysMatch reports whether two eligibility keys refer to the same year
// group: case-insensitive equality, or an abbreviation on one side and a
// name containing its expansion on the other.
func keysMatch(a, b string) bool {
	fa, fb := strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if fa == fb {
		return true
	}
	if long, ok := abbreviations[fa]; ok && strings.Contains(fb, long) {
		return true
	}
	if long, ok := abbreviations[fb]; ok && strings.Contains(fa, long) {
		return true
	}
	return false
}

// resolvePrimaryKey maps a teaching context to the single eligibility key
// used for filtering. Candidates are every key appearing in any category
// map. Exact match wins, then case-insensitive equality, then the longest
// key that is a case-insensitive substring of the context (or the reverse),
// then abbreviation bridging. Reports false when nothing matches.
func resolvePrimaryKey(teachingContext string, all []Category) (string, bool) {
	seen := make(map[string]bool)
	var keys []string
	for _, c := range all {
		for k := range c.Eligibility {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}

	for _, k := range keys {
		if k == teachingContext {
			return k, true
		}
	}
	folded := strings.ToLower(strings.TrimSpace(teachingContext))
	for _, k := range keys {
		if strings.ToLower(k) == folded {
			return k, true
		}
	}
	best := ""
	for _, k := range keys {
		fk := strings.ToLower(k)
		if fk == "" {
			continue
		}
		if strings.Contains(folded, fk) || strings.Contains(fk, folded) {
			if len(k) > len(best) {
				best = k
			}
		}
	}
	if best != "" {
		return best, true
	}
	for _, k := range keys {
		if keysMatch(k, teachingContext) {
			return k, true
		}
	}
	return "", false
}

// EligibleCategories returns the names of the categories selectable in the
// given teaching context, ordered for display. Unassigned categories are
// discarded; the remainder are kept only when the resolved primary key is
// enabled in their map. A context that resolves to no known key returns
// every category unfiltered: failing open keeps the tool usable on data
// saved under naming schemes this build has never seen. Pure function, never
// errors; an empty result is a valid "no activities available" state.
func EligibleCategories(teachingContext string, all []Category) []string {
	key, resolved := resolvePrimaryKey(teachingContext, all)
	if !resolved {
		names := make([]string, 0, len(all))
		for _, c := range all {
			names = append(names, c.Name)
		}
		return sortedNames(names)
	}

	var names []string
	for _, c := range all {
		if IsUnassigned(c.Eligibility) {
			continue
		}
		if eligibleFor(c.Eligibility, key) {
			names = append(names, c.Name)
		}
	}
	return sortedNames(names)
}

// eligibleFor checks the primary key against one category map, normalizing
// key spellings with keysMatch. Only the primary key is consulted; other
// enabled keys in the map never justify a match on their own.
func eligibleFor(eligibility map[string]bool, primary string) bool {
	for k, enabled := range eligibility {
		if enabled && keysMatch(k, primary) {
			return true
		}
	}
	return false
}

// sortedNames orders category names for display. A fresh collator per call:
// collators carry internal buffers and are not safe for concurrent reads.
func sortedNames(names []string) []string {
	collate.New(language.English, collate.IgnoreCase).SortStrings(names)
	return names
}
