package cmd

import "strings"

// editDistance is the Levenshtein distance between a and b, counted in runes.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// maxTypos scales the tolerated distance with the word length so short
// names like "ls" do not match everything.
func maxTypos(word string) int {
	switch n := len([]rune(word)); {
	case n <= 3:
		return 1
	case n <= 6:
		return 2
	default:
		return 3
	}
}

// closest returns the candidate nearest to input, or "" when nothing is
// within maxTypos. A unique prefix match wins over edit distance.
func closest(input string, candidates []string, key func(string) string) string {
	input = strings.ToLower(input)
	if input == "" {
		return ""
	}
	var prefixed []string
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(key(c)), input) {
			prefixed = append(prefixed, c)
		}
	}
	if len(prefixed) == 1 {
		return prefixed[0]
	}

	best, bestDist := "", maxTypos(input)+1
	for _, c := range candidates {
		if d := editDistance(input, strings.ToLower(key(c))); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// suggestCommand picks the command or alias closest to an unknown name.
func suggestCommand(unknown string, commands []string) string {
	return closest(unknown, commands, func(s string) string { return s })
}

// suggestFlag picks the closest flag. Dashes are ignored when comparing and
// the match is returned as registered, e.g. "--category".
func suggestFlag(unknown string, flags []string) string {
	return closest(strings.TrimLeft(unknown, "-"), flags, func(s string) string {
		return strings.TrimLeft(s, "-")
	})
}
