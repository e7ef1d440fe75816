package dispatch

import (
	"strconv"

	"github.com/valyala/fasttemplate"
)

var (
	themedTemplate  = fasttemplate.New("🌅 Weekly Theme: {{theme}}\nDay {{day}}/7\n\n{{fact}}", "{{", "}}")
	genericTemplate = fasttemplate.New("🌅 Daily Ethiopian History Fact\n\n{{fact}}\n\n🇪🇹 Have a great day!", "{{", "}}")
	summaryTemplate = fasttemplate.New("🧭 Weekly Summary: {{theme}}\n\n{{summary}}", "{{", "}}")
)

func ThemedMessage(theme string, dayIndex int, fact string) string {
	return themedTemplate.ExecuteString(map[string]any{
		"theme": theme,
		"day":   strconv.Itoa(dayIndex),
		"fact":  fact,
	})
}

func GenericMessage(fact string) string {
	return genericTemplate.ExecuteString(map[string]any{"fact": fact})
}

func SummaryMessage(theme, summary string) string {
	return summaryTemplate.ExecuteString(map[string]any{
		"theme":   theme,
		"summary": summary,
	})
}
