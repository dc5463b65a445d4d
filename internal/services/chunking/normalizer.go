package chunking

import (
	"regexp"
	"strings"
)

var (
	urlPattern     = regexp.MustCompile(`https?://\S+|www\.\S+`)
	nonTextPattern = regexp.MustCompile(`[^a-zA-Z0-9äöüÄÖÜß\s]`)
	spaceRuns      = regexp.MustCompile(`\s+`)
)

// NormalizeText strips URLs and non-alphanumeric noise, collapses whitespace
// and bounds the result to maxWords words. Texts over the budget are sampled:
// the first 10% of the budget, 20% centered on the document's midpoint
// (computed from the excess over the budget) and the last 10%, joined with
// single spaces. The result is a lossy excerpt for classification prompts;
// persisted chunk content stays verbatim.
func NormalizeText(text string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = 700
	}

	text = urlPattern.ReplaceAllString(text, "")
	text = nonTextPattern.ReplaceAllString(text, "")
	text = strings.TrimSpace(spaceRuns.ReplaceAllString(text, " "))

	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}

	headLen := maxWords / 10
	tailLen := maxWords / 10
	middleLen := maxWords / 5
	middleStart := (len(words) - maxWords) / 2

	sampled := make([]string, 0, headLen+middleLen+tailLen)
	sampled = append(sampled, words[:headLen]...)
	sampled = append(sampled, words[middleStart:middleStart+middleLen]...)
	sampled = append(sampled, words[len(words)-tailLen:]...)

	return strings.Join(sampled, " ")
}
