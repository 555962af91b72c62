package coherence

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName upper-cases a name, strips diacritics, keeps only letters and
// spaces, and collapses runs of whitespace.
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Levenshtein returns the edit distance between a and b, counted in runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// NameMatch is the outcome of comparing two declared names.
type NameMatch struct {
	Left       string  `json:"left"`
	Right      string  `json:"right"`
	Distance   int     `json:"distance"`
	Confidence float64 `json:"confidence"`
	Match      bool    `json:"match"`
}

// CompareNames normalizes both names and measures how far apart they are.
// Names match within maxDistance edits. The result is symmetric in distance,
// confidence and match.
func CompareNames(a, b string, maxDistance int) NameMatch {
	left, right := NormalizeName(a), NormalizeName(b)
	d := Levenshtein(left, right)

	longest := max(len([]rune(left)), len([]rune(right)))
	confidence := 1.0
	if longest > 0 {
		confidence = 1 - float64(d)/float64(longest)
	}
	return NameMatch{
		Left:       left,
		Right:      right,
		Distance:   d,
		Confidence: confidence,
		Match:      d <= maxDistance,
	}
}
