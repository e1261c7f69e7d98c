package knowledge

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxSuggestionDistance bounds the edit distance of "did you mean" hints.
const maxSuggestionDistance = 3

// NormalizeID case-folds an identifier and maps whitespace runs to underscores,
// so "Security Controls" and "security_controls" resolve to the same topic.
func NormalizeID(s string) string {
	s = cases.Fold().String(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "_")
}

// normalizeDomainID also accepts a bare domain number ("2" -> "domain_2").
func normalizeDomainID(s string) string {
	id := NormalizeID(s)
	if len(id) == 1 && id[0] >= '1' && id[0] <= '9' {
		return "domain_" + id
	}
	return id
}

// DisplayName turns a snake_case identifier into a title, e.g. "control_types" -> "Control Types".
func DisplayName(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(id, "_", " "))
}

// suggest returns the targets closest to source, best first.
func suggest(source string, targets []string) []string {
	type candidate struct {
		target   string
		distance int
	}
	var found []candidate
	for _, t := range targets {
		if fuzzy.MatchNormalizedFold(source, t) {
			found = append(found, candidate{t, fuzzy.LevenshteinDistance(source, t)})
			continue
		}
		if d := fuzzy.LevenshteinDistance(source, t); d <= maxSuggestionDistance {
			found = append(found, candidate{t, d})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].distance < found[j].distance })

	out := make([]string, len(found))
	for i, c := range found {
		out[i] = c.target
	}
	return out
}
