package analyzer

// suggest returns the closest visible name to the misspelled one, or ""
// when nothing is close enough. A candidate qualifies when its edit distance
// is at most 2 and less than half the misspelled name's length.
func suggest(name string, candidates []string) string {
	best := ""
	bestDist := 3
	for _, cand := range candidates {
		if cand == name || cand == "_" {
			continue
		}
		d := editDistance(name, cand)
		if d < bestDist && d*2 < len(name) {
			best = cand
			bestDist = d
		}
	}
	return best
}

// editDistance computes the Levenshtein distance between a and b
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
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
