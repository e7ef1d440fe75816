package fact

import (
	"fmt"
	"strings"
)

const genericFactPrompt = "Provide a fascinating and accurate Ethiopian history fact in 2-3 sentences. " +
	"Focus on interesting events, cultural aspects, or historical figures. " +
	"Make it engaging and educational."

func themedFactPrompt(theme string, dayIndex int) string {
	return fmt.Sprintf(
		"You are creating a 7-day mini-series about '%s'. "+
			"Today is day %d. Provide a concise, engaging fact (2-3 sentences) that fits in the series. "+
			"Avoid repeating previous days and keep it historically accurate.",
		theme, dayIndex,
	)
}

func weeklySummaryPrompt(theme string, facts []string) string {
	return fmt.Sprintf(
		"Summarize this 7-day themed series about '%s' into 1-2 cohesive paragraphs. "+
			"Highlight key takeaways and weave a narrative.\n\nFacts:\n- %s",
		theme, strings.Join(facts, "\n- "),
	)
}
