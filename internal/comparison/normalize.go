package comparison

import (
	"fmt"
	"regexp"
	"strings"
)

// NormalizationRules mirror the per-request toggles: date separators and
// currency formatting are folded before values are declared different.
type NormalizationRules struct {
	Dates    bool `json:"dates"`
	Currency bool `json:"currency"`
}

func DefaultNormalization() NormalizationRules {
	return NormalizationRules{Dates: true, Currency: true}
}

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	dateRE       = regexp.MustCompile(`(\d{1,4})[-/](\d{1,2})[-/](\d{1,4})`)
	currencyRE   = regexp.MustCompile(`[$€£]\s*`)
	thousandsRE  = regexp.MustCompile(`,(\d{3})`)
)

// NormalizeString folds case, whitespace, date separators, and currency
// decoration. It deliberately keeps punctuation: "J. Smith" and "J Smith"
// must stay distinguishable so near-match scoring can classify the change.
func NormalizeString(s string, rules NormalizationRules) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespaceRE.ReplaceAllString(s, " ")
	if rules.Dates && dateRE.MatchString(s) {
		s = dateRE.ReplaceAllString(s, "$1-$2-$3")
	}
	if rules.Currency {
		s = currencyRE.ReplaceAllString(s, "")
		s = thousandsRE.ReplaceAllString(s, "$1")
	}
	return s
}

// NormalizeValue renders any scalar for comparison. Numbers pass through
// untouched so numeric tolerance applies to the raw values.
func NormalizeValue(v any, rules NormalizationRules) any {
	switch t := v.(type) {
	case nil:
		return nil
	case int, int32, int64, float32, float64:
		return t
	case bool:
		return t
	case string:
		return NormalizeString(t, rules)
	default:
		return NormalizeString(fmt.Sprint(t), rules)
	}
}

// levenshtein over runes; small inputs only (metadata fields).
func levenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}
	prev := make([]int, len(br)+1)
	cur := make([]int, len(br)+1)
	for j := 0; j <= len(br); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(ar); i++ {
		cur[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(br)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// StringSimilarity is the free-text field measure: normalized edit distance
// in [0,1] over normalized strings. Tolerant of truncation because a shared
// prefix keeps the distance proportional to the trimmed tail.
func StringSimilarity(a, b string, rules NormalizationRules) float64 {
	na := NormalizeString(a, rules)
	nb := NormalizeString(b, rules)
	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0.0
	}
	longest := len([]rune(na))
	if l := len([]rune(nb)); l > longest {
		longest = l
	}
	return 1.0 - float64(levenshtein(na, nb))/float64(longest)
}

// TokenSimilarity is the long-text measure: token-set Jaccard. When one body
// is a truncation of the other the intersection equals the smaller set, so
// the score degrades with coverage rather than collapsing to zero.
func TokenSimilarity(a, b string) float64 {
	at := tokenSet(a)
	bt := tokenSet(b)
	if len(at) == 0 && len(bt) == 0 {
		return 1.0
	}
	if len(at) == 0 || len(bt) == 0 {
		return 0.0
	}
	inter := 0
	for tok := range at {
		if bt[tok] {
			inter++
		}
	}
	union := len(at) + len(bt) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		out[tok] = true
	}
	return out
}
