package cvtext

import (
	"sort"
	"strings"
	"unicode"
)

var emailMarkers = []string{"@", "gmail", "hotmail", "yahoo", "outlook", "icloud"}

// Tokenize lowercases, reconstructs words from single spaced letters,
// strips punctuation and accents, and filters stopwords, numeric-only
// tokens, tokens shorter than 3 or longer than 30 runes, and email
// fragments. Duplicates are kept so callers can rank by frequency.
func Tokenize(text string) []string {
	lower := strings.ToLower(strings.ReplaceAll(text, "\n", " "))

	var tokens []string
	var buf []rune
	flushBuf := func() {
		if len(buf) > 2 {
			tokens = append(tokens, string(buf))
		}
		buf = buf[:0]
	}

	for _, raw := range strings.Fields(lower) {
		cleaned := stripPunct(raw)
		if cleaned == "" {
			continue
		}
		r := []rune(cleaned)
		if len(r) == 1 && unicode.IsLetter(r[0]) {
			// single letter: probably a spaced-out word, buffer it
			buf = append(buf, r[0])
			continue
		}
		flushBuf()
		tokens = append(tokens, cleaned)
	}
	flushBuf()

	filtered := tokens[:0]
	for _, t := range tokens {
		base := StripAccents(t)
		if !keepToken(base) {
			continue
		}
		filtered = append(filtered, base)
	}
	return filtered
}

func keepToken(t string) bool {
	n := len([]rune(t))
	if n < 3 || n > 30 {
		return false
	}
	if isNumeric(t) {
		return false
	}
	for _, marker := range emailMarkers {
		if strings.Contains(t, marker) {
			return false
		}
	}
	if _, stop := stopwords[t]; stop {
		return false
	}
	return true
}

func isNumeric(t string) bool {
	for _, r := range t {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(t) > 0
}

// stripPunct keeps letters, digits and apostrophes.
func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			return r
		}
		return -1
	}, s)
}

// ExtractKeywords returns up to MaxKeywords tokens from raw CV text,
// ranked by frequency with first occurrence breaking ties. Empty or
// artifact-only input yields an empty slice, never an error.
func ExtractKeywords(text string) []string {
	tokens := Tokenize(Clean(text))
	if len(tokens) == 0 {
		return nil
	}

	counts := make(map[string]int, len(tokens))
	first := make(map[string]int, len(tokens))
	for i, t := range tokens {
		if _, seen := counts[t]; !seen {
			first[t] = i
		}
		counts[t]++
	}

	unique := make([]string, 0, len(counts))
	for t := range counts {
		unique = append(unique, t)
	}
	sort.Slice(unique, func(i, j int) bool {
		if counts[unique[i]] != counts[unique[j]] {
			return counts[unique[i]] > counts[unique[j]]
		}
		return first[unique[i]] < first[unique[j]]
	})

	if len(unique) > MaxKeywords {
		unique = unique[:MaxKeywords]
	}
	return unique
}

// ExtractTechSkills scans for known skills, multi-word terms by substring
// and single words on token boundaries, preserving dictionary order.
func ExtractTechSkills(text string) []string {
	lower := StripAccents(strings.ToLower(text))
	words := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '#' && r != '+' && r != '.' && r != '/'
	}) {
		words[w] = struct{}{}
	}

	var found []string
	seen := make(map[string]struct{})
	add := func(skill string) {
		if _, dup := seen[skill]; !dup {
			seen[skill] = struct{}{}
			found = append(found, skill)
		}
	}

	for _, skill := range techSkills {
		if strings.Contains(skill, " ") {
			if strings.Contains(lower, skill) {
				add(skill)
			}
			continue
		}
		if _, ok := words[skill]; ok {
			add(skill)
		}
	}
	return found
}

// InferRoles guesses target job titles: the explicit preference first,
// then role hints found in the CV ranked by occurrence count.
func InferRoles(cvText, prefRole string) []string {
	var roles []string
	seen := make(map[string]struct{})
	add := func(role string) {
		if _, dup := seen[role]; !dup {
			seen[role] = struct{}{}
			roles = append(roles, role)
		}
	}

	if prefRole != "" {
		add(strings.ToLower(prefRole))
	}

	text := StripAccents(strings.ToLower(cvText))
	type hit struct {
		role  string
		count int
	}
	var hits []hit
	for _, hint := range roleHints {
		if c := strings.Count(text, hint); c > 0 {
			hits = append(hits, hit{hint, c})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].count > hits[j].count })
	for i, h := range hits {
		if i >= 5 {
			break
		}
		add(h.role)
	}
	return roles
}
