// Package cvtext turns raw CV text into a bounded, ranked keyword set.
// Everything here is a pure function over strings; the extractor never
// fails, it degrades to an empty result.
package cvtext

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxKeywords bounds the extracted set.
const MaxKeywords = 40

var ligatures = strings.NewReplacer(
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬀ", "ff",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
	"œ", "oe",
	"æ", "ae",
)

var (
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
	hyphenBreak = regexp.MustCompile(`(\p{L}+)-[ \t]*\n[ \t]*(\p{L}+)`)
)

// StripAccents removes combining marks for accent-insensitive matching.
func StripAccents(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}

// Clean normalizes PDF-extracted text: reconstructs spaced-out letters,
// replaces typographic ligatures, repairs hyphenation broken across
// lines, and strips repeated short header/footer lines.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	cleaned := text

	// Spaced-out letters ("D é v e l o p p e u r") show up as a high
	// ratio of standalone single letters. The reconstruction pass only
	// engages on that evidence so normal text passes through untouched.
	for i := 0; i < 3; i++ {
		if singleLetterRatio(cleaned) <= 0.3 {
			break
		}
		cleaned = despace(cleaned)
	}

	cleaned = ligatures.Replace(cleaned)
	cleaned = hyphenBreak.ReplaceAllString(cleaned, "$1$2")
	cleaned = spaceRuns.ReplaceAllString(cleaned, " ")
	cleaned = blankRuns.ReplaceAllString(cleaned, "\n\n")
	cleaned = stripRepeatedLines(cleaned)

	return strings.TrimSpace(cleaned)
}

func singleLetterRatio(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	singles := 0
	for _, w := range words {
		r := []rune(w)
		if len(r) == 1 && unicode.IsLetter(r[0]) {
			singles++
		}
	}
	return float64(singles) / float64(len(words))
}

// despace joins letter runs separated by spaces back into words. Any
// non-letter, non-space character flushes the buffer, so punctuation and
// line breaks survive.
func despace(text string) string {
	var b strings.Builder
	var buf []rune
	flush := func() {
		if len(buf) > 0 {
			b.WriteString(string(buf))
			buf = buf[:0]
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			buf = append(buf, r)
		case r == ' ':
			if len(buf) == 0 {
				b.WriteRune(' ')
			}
			// space between buffered letters is extraction noise
		default:
			flush()
			b.WriteRune(r)
		}
	}
	flush()
	return b.String()
}

// stripRepeatedLines drops very short lines that repeat across the text,
// which are almost always page headers, footers, or page numbers.
func stripRepeatedLines(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= 10 {
		return text
	}

	counts := make(map[string]int)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 0 && len(trimmed) < 50 {
			counts[trimmed]++
		}
	}

	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if counts[trimmed] > 2 && len(trimmed) <= 20 {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
