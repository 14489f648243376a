package renderer

import "strings"

// WrapText greedily packs space-separated words into lines no wider than
// maxWidth as reported by measure. A word wider than maxWidth on its own is
// emitted alone on its line rather than split or dropped.
func WrapText(text string, maxWidth float64, measure func(string) float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		candidate := line + " " + w
		if measure(candidate) > maxWidth {
			lines = append(lines, line)
			line = w
			continue
		}
		line = candidate
	}
	return append(lines, line)
}
