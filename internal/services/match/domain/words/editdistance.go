package words

import "strings"

// IsWithin reports whether the Levenshtein distance between a and b is at
// most maxDistance. Both inputs are case-folded before comparison.
//
// The computation only visits a diagonal band of width 2*maxDistance+1, so a
// miss costs O(min(|a|,|b|) * maxDistance) time and O(maxDistance) space.
// This runs against every candidate word of a category when a played word has
// no exact match, which is why the band matters.
func IsWithin(a, b string, maxDistance int) bool {
	if maxDistance < 0 {
		return false
	}

	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	la, lb := len(ra), len(rb)
	if lb-la > maxDistance {
		return false
	}
	if maxDistance == 0 {
		// Lengths are equal here; only an exact match qualifies.
		return string(ra) == string(rb)
	}

	k := maxDistance
	width := 2*k + 1
	inf := k + 1

	// Band cell idx in row i holds column j = i - k + idx. Cells outside
	// [0, lb] are poisoned with inf so they never win a min.
	prev := make([]int, width)
	cur := make([]int, width)
	for idx := range prev {
		j := idx - k
		if j < 0 || j > lb {
			prev[idx] = inf
		} else {
			prev[idx] = j
		}
	}

	for i := 1; i <= la; i++ {
		rowMin := inf
		for idx := 0; idx < width; idx++ {
			j := i - k + idx
			if j < 0 || j > lb {
				cur[idx] = inf
				continue
			}
			if j == 0 {
				cur[idx] = i
			} else {
				cost := 1
				if ra[i-1] == rb[j-1] {
					cost = 0
				}
				best := prev[idx] + cost // substitution from (i-1, j-1)
				if idx+1 < width && prev[idx+1]+1 < best {
					best = prev[idx+1] + 1 // deletion from (i-1, j)
				}
				if idx-1 >= 0 && cur[idx-1]+1 < best {
					best = cur[idx-1] + 1 // insertion from (i, j-1)
				}
				if best > inf {
					best = inf
				}
				cur[idx] = best
			}
			if cur[idx] < rowMin {
				rowMin = cur[idx]
			}
		}
		// Once every band cell exceeds the budget no path can recover.
		if rowMin > k {
			return false
		}
		prev, cur = cur, prev
	}

	return prev[lb-la+k] <= k
}
