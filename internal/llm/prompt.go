package llm

import (
	"fmt"
	"regexp"
	"strings"
)

// SubpillarCount is the number of sub-topics requested per pillar. Pillar
// count is left to the model.
const SubpillarCount = 3

var numberedLine = regexp.MustCompile(`^\d+\.\s*`)

// PillarPrompt builds the deterministic prompt asking for pillar topics of a
// niche as a numbered list.
func PillarPrompt(nicheName string) string {
	return fmt.Sprintf(
		"You are a content strategist. Generate the main content pillars for the niche %q.\n"+
			"Each pillar is a major topic that can support many articles.\n"+
			"Respond with a numbered list only, one pillar title per line, like:\n"+
			"1. First pillar title\n2. Second pillar title",
		nicheName)
}

// SubpillarPrompt builds the deterministic prompt asking for exactly
// SubpillarCount sub-topics of a pillar as a numbered list.
func SubpillarPrompt(pillarTitle string) string {
	return fmt.Sprintf(
		"You are a content strategist. Generate exactly %d subpillar topics for the content pillar %q.\n"+
			"Each subpillar is a focused sub-topic suitable for a single article.\n"+
			"Respond with a numbered list only, one title per line, like:\n"+
			"1. First subpillar title\n2. Second subpillar title\n3. Third subpillar title",
		SubpillarCount, pillarTitle)
}

// ParseNumberedList extracts the titles of a numbered-list model response.
// Only lines starting with "N." count; the marker is stripped and the rest
// trimmed. Anything else the model wrapped around the list is ignored.
func ParseNumberedList(response string) []string {
	var titles []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if !numberedLine.MatchString(line) {
			continue
		}
		title := strings.TrimSpace(numberedLine.ReplaceAllString(line, ""))
		if title != "" {
			titles = append(titles, title)
		}
	}
	return titles
}
