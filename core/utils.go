package core

import (
	"regexp"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
)

var (
	NowFunc = time.Now // mockable

	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CleanStrings cleans every string in `ss`, dropping the blank ones.
func CleanStrings(ss []string) []string {
	cleaned := make([]string, 0, len(ss))
	for _, s := range ss {
		if s = CleanString(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned
}

// Slugify lowers `s` and joins its alphanumeric runs with "-".
func Slugify(s string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// SimilarityRatio returns how similar `a` & `b` are, in [0, 1].
func SimilarityRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

// MostSimilar returns the index of the candidate most similar to `key`, or -1 if none reaches `minRatio`.
// Ties keep the first candidate.
func MostSimilar(key string, candidates []string, minRatio float64) int {
	key = Slugify(key)
	best, bestRatio := -1, minRatio
	for i, c := range candidates {
		if r := SimilarityRatio(key, Slugify(c)); r >= bestRatio && (best == -1 || r > bestRatio) {
			best, bestRatio = i, r
		}
	}
	return best
}
