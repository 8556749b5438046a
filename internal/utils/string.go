package utils

import (
	"context"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// FindClosestString returns the candidate with the smallest edit distance to v, ok is false if no candidate
// differs from v by at most maxDifferences edits.
func FindClosestString(ctx context.Context, candidates []string, v string, maxDifferences int) (closest string, minDistance int, ok bool) {
	minDistance = -1
	target := []rune(v)

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return "", 0, false
		}

		distance := levenshtein.DistanceForStrings([]rune(candidate), target, levenshtein.DefaultOptionsWithSub)
		if distance <= maxDifferences && (minDistance == -1 || distance < minDistance) {
			closest = candidate
			minDistance = distance
		}
	}

	ok = minDistance != -1
	return
}
