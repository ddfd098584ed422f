// Package matcher resolves free-text drug names against the catalog key set
// with fuzzy tolerance.
package matcher

import (
	"strings"

	"github.com/daysupplynational/daysupply/internal/catalog"
)

const (
	// SimilarityFloor is the minimum similarity ratio a non-substring
	// candidate needs before it is considered at all.
	SimilarityFloor = 0.6
	// AcceptThreshold is applied by callers: matches below it are treated as
	// unmatched regardless of the best candidate found.
	AcceptThreshold = 0.80
)

// Matcher scans the catalog key set for the closest name. It is a pure
// function over the catalog snapshot and safe for concurrent use.
type Matcher struct {
	catalog *catalog.Catalog
}

func New(c *catalog.Catalog) *Matcher {
	return &Matcher{catalog: c}
}

// Match returns the best-scoring catalog key for a free-text name and its
// confidence in [0,1]. An exact normalized match short-circuits at 1.0.
// Substring containment in either direction scores by length overlap, boosted
// by 0.2 and capped at 0.95. Everything else scores by similarity ratio,
// accepted only at or above SimilarityFloor. Ties keep the earliest candidate
// in catalog load order. An empty string and 0 are returned when nothing
// scores above zero.
func (m *Matcher) Match(name string) (string, float64) {
	input := catalog.Normalize(name)
	if input == "" {
		return "", 0
	}

	bestMatch := ""
	bestScore := 0.0
	for _, key := range m.catalog.Names() {
		if input == key {
			return key, 1.0
		}

		if containsEitherWay(input, key) {
			score := overlapScore(input, key) + 0.2
			if score > 0.95 {
				score = 0.95
			}
			if score > bestScore {
				bestMatch = key
				bestScore = score
			}
		}

		similarity := similarityRatio(input, key)
		if similarity >= SimilarityFloor && similarity > bestScore {
			bestMatch = key
			bestScore = similarity
		}
	}
	return bestMatch, bestScore
}

func containsEitherWay(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// overlapScore is shorter length over longer length, always <= 1.0.
func overlapScore(a, b string) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return 0
	}
	return float64(len(a)) / float64(len(b))
}

// similarityRatio is the Ratcliff/Obershelp ratio 2*M/(len(a)+len(b)), where
// M counts characters in recursively matched common substrings. This mirrors
// the general-purpose sequence ratio the matching rules were tuned against.
func similarityRatio(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingChars(a, b)) / float64(total)
}

func matchingChars(a, b string) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingChars(a[:ai], b[:bi]) +
		matchingChars(a[ai+size:], b[bi+size:])
}

func longestCommonSubstring(a, b string) (int, int, int) {
	bestA, bestB, bestSize := 0, 0, 0
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	prev := make([]int, len(b)+1)
	current := make([]int, len(b)+1)
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] != b[j] {
				current[j+1] = 0
				continue
			}
			current[j+1] = prev[j] + 1
			if current[j+1] > bestSize {
				bestSize = current[j+1]
				bestA = i - bestSize + 1
				bestB = j - bestSize + 1
			}
		}
		prev, current = current, prev
	}
	return bestA, bestB, bestSize
}
