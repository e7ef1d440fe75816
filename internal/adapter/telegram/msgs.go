package telegram

import (
	"github.com/valyala/fasttemplate"
)

const (
	subscribedMsgID         = "subscribed"
	alreadySubscribedMsgID  = "already_subscribed"
	unsubscribedMsgID       = "unsubscribed"
	notSubscribedMsgID      = "not_subscribed"
	generatingMsgID         = "generating"
	factMsgID               = "fact"
	factFailedMsgID         = "fact_failed"
	themesDisabledMsgID     = "themes_disabled"
	themeOverviewMsgID      = "theme_overview"
	themeSubscribedMsgID    = "theme_subscribed"
	themeAlreadyMsgID       = "theme_already_subscribed"
	themeUnsubscribedMsgID  = "theme_unsubscribed"
	themeNotSubscribedMsgID = "theme_not_subscribed"
	themeStatusMsgID        = "theme_status"
	themeNotAdminMsgID      = "theme_not_admin"
	themeSetUsageMsgID      = "theme_set_usage"
	themeSetMsgID           = "theme_set"
	themeUnknownMsgID       = "theme_unknown_action"
	quizEmptyMsgID          = "quiz_empty"
	quizCorrectMsgID        = "quiz_correct"
	quizIncorrectMsgID      = "quiz_incorrect"
	quizExpiredMsgID        = "quiz_expired"
	helpMsgID               = "help"
	unknownCommandMsgID     = "unknown_command"
	storageErrorMsgID       = "storage_error"
)

var texts = map[string]string{
	subscribedMsgID:         "Subscribed ✅ You will receive one short Ethiopian history fact daily at {{time}}! 🇪🇹",
	alreadySubscribedMsgID:  "You are already subscribed to daily Ethiopian history facts! 📚",
	unsubscribedMsgID:       "Unsubscribed ✅ You will no longer receive daily facts.",
	notSubscribedMsgID:      "You are not subscribed to daily facts.",
	generatingMsgID:         "Generating a fascinating Ethiopian history fact... 🤔",
	factMsgID:               "📚 Ethiopian History Fact:\n\n{{fact}}",
	factFailedMsgID:         "Sorry, I couldn't generate a fact right now. Please try again later! 😔",
	themesDisabledMsgID:     "Themed series is currently disabled by the admin.",
	themeOverviewMsgID:      "Weekly Themed Series: You are currently {{status}}.\nUse /theme on to subscribe or /theme off to unsubscribe.\nCurrent theme: {{theme}}",
	themeSubscribedMsgID:    "Subscribed to Weekly Themed Series ✅",
	themeAlreadyMsgID:       "You are already subscribed to themes.",
	themeUnsubscribedMsgID:  "Unsubscribed from Weekly Themed Series ✅",
	themeNotSubscribedMsgID: "You were not subscribed to themes.",
	themeStatusMsgID:        "You are {{status}}. Current week: {{week}}, Theme: {{theme}}.",
	themeNotAdminMsgID:      "You are not authorized to set the theme.",
	themeSetUsageMsgID:      "Usage: /theme set <theme name>",
	themeSetMsgID:           "Set weekly theme to '{{theme}}' for week {{week}} ✅",
	themeUnknownMsgID:       "Unknown action. Use /theme on|off|status or /theme set <name>.",
	quizEmptyMsgID:          "No quiz questions available right now.",
	quizCorrectMsgID:        "✅ Correct!",
	quizIncorrectMsgID:      "❌ Incorrect. The correct answer is {{answer}}.",
	quizExpiredMsgID:        "Quiz session expired. Use /quiz to try again.",
	helpMsgID:               "🇪🇹 Ethiopian History Bot\n\n{{commands}}",
	unknownCommandMsgID:     "I don't know that command. Try /help.",
	storageErrorMsgID:       "Something went wrong saving your preference. Please try again later.",
}

var templates = func() map[string]*fasttemplate.Template {
	res := make(map[string]*fasttemplate.Template, len(texts))
	for id, text := range texts {
		res[id] = fasttemplate.New(text, "{{", "}}")
	}
	return res
}()

func text(id string) string {
	return texts[id]
}

func textWithArgs(id string, args map[string]any) string {
	t, ok := templates[id]
	if !ok {
		return ""
	}
	return t.ExecuteString(args)
}

// command is an entry of the bot menu registered with Telegram.
type command struct {
	name        string
	description string
}

var commands = []command{
	{name: "start", description: "subscribe to the daily history fact"},
	{name: "stop", description: "unsubscribe from the daily fact"},
	{name: "fact", description: "get a fact right now"},
	{name: "theme", description: "weekly themed series: on, off, status"},
	{name: "quiz", description: "answer a random history question"},
	{name: "help", description: "list commands"},
}
