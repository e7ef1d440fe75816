package telegram

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"ethiopian-history-bot/internal/domain"
	"ethiopian-history-bot/internal/usecase/quiz"
)

const quizPrefix = "quiz|"

type Subscriptions interface {
	Add(ctx context.Context, chatID int64) (bool, error)
	Remove(ctx context.Context, chatID int64) (bool, error)
}

type FactSource interface {
	Generate(ctx context.Context) (string, error)
}

type ThemeManager interface {
	Enabled() bool
	IsSubscribed(ctx context.Context, chatID int64) bool
	Subscribe(ctx context.Context, chatID int64) (bool, error)
	Unsubscribe(ctx context.Context, chatID int64) (bool, error)
	CurrentTheme(ctx context.Context) (string, string)
	EnsureCurrentWeekTheme(ctx context.Context, override string) (string, string, error)
}

// Quizzer keeps one pending question per user, so members of a group
// chat answer their own questions.
type Quizzer interface {
	Next(userID int64) (domain.Question, error)
	Answer(userID int64, choice int) (quiz.Result, error)
}

// Reply is an outgoing message. Buttons become a one-column inline
// keyboard.
type Reply struct {
	Text    string
	Buttons []Button
}

type Button struct {
	Text string
	Data string
}

type Responder interface {
	Reply(ctx context.Context, chatID int64, r Reply) error
}

// Command is an incoming slash command. UserID is zero when Telegram
// did not say who sent it.
type Command struct {
	ChatID int64
	UserID int64
	User   string
	Name   string
	Args   []string
}

type HandlerConfig struct {
	Subscriptions Subscriptions
	Facts         FactSource
	Themes        ThemeManager
	Quiz          Quizzer
	IsAdmin       func(chatID int64) bool
	SendTime      string
}

// Handler implements the bot commands independently of the Telegram
// transport.
type Handler struct {
	subs     Subscriptions
	facts    FactSource
	themes   ThemeManager
	quiz     Quizzer
	isAdmin  func(chatID int64) bool
	sendTime string
	log      logrus.FieldLogger
}

func NewHandler(cfg HandlerConfig, log logrus.FieldLogger) *Handler {
	isAdmin := cfg.IsAdmin
	if isAdmin == nil {
		isAdmin = func(int64) bool { return false }
	}
	return &Handler{
		subs:     cfg.Subscriptions,
		facts:    cfg.Facts,
		themes:   cfg.Themes,
		quiz:     cfg.Quiz,
		isAdmin:  isAdmin,
		sendTime: cfg.SendTime,
		log:      log.WithField("component", "commands"),
	}
}

// HandleCommand runs cmd and writes its replies through out.
func (h *Handler) HandleCommand(ctx context.Context, cmd Command, out Responder) error {
	log := h.log.WithFields(logrus.Fields{
		"chat_id": cmd.ChatID,
		"user":    cmd.User,
		"command": cmd.Name,
	})
	reply := func(r Reply) error {
		return out.Reply(ctx, cmd.ChatID, r)
	}

	switch cmd.Name {
	case "start":
		return reply(h.start(ctx, cmd, log))
	case "stop":
		return reply(h.stop(ctx, cmd, log))
	case "fact":
		if err := reply(Reply{Text: text(generatingMsgID)}); err != nil {
			return err
		}
		return reply(h.fact(ctx, log))
	case "theme":
		return reply(h.theme(ctx, cmd, log))
	case "quiz":
		return reply(h.nextQuiz(cmd, log))
	case "help":
		return reply(Reply{Text: helpText()})
	default:
		log.Debug("unknown command")
		return reply(Reply{Text: text(unknownCommandMsgID)})
	}
}

func (h *Handler) start(ctx context.Context, cmd Command, log logrus.FieldLogger) Reply {
	added, err := h.subs.Add(ctx, cmd.ChatID)
	if err != nil {
		log.WithError(err).Error("subscribe failed")
		return Reply{Text: text(storageErrorMsgID)}
	}
	if !added {
		log.Info("already subscribed")
		return Reply{Text: text(alreadySubscribedMsgID)}
	}
	log.Info("subscribed")
	return Reply{Text: textWithArgs(subscribedMsgID, map[string]any{"time": h.sendTime})}
}

func (h *Handler) stop(ctx context.Context, cmd Command, log logrus.FieldLogger) Reply {
	removed, err := h.subs.Remove(ctx, cmd.ChatID)
	if err != nil {
		log.WithError(err).Error("unsubscribe failed")
		return Reply{Text: text(storageErrorMsgID)}
	}
	if !removed {
		log.Info("was not subscribed")
		return Reply{Text: text(notSubscribedMsgID)}
	}
	log.Info("unsubscribed")
	return Reply{Text: text(unsubscribedMsgID)}
}

func (h *Handler) fact(ctx context.Context, log logrus.FieldLogger) Reply {
	f, err := h.facts.Generate(ctx)
	if err != nil {
		log.WithError(err).Warn("on-demand fact failed")
		return Reply{Text: text(factFailedMsgID)}
	}
	return Reply{Text: textWithArgs(factMsgID, map[string]any{"fact": f})}
}

func (h *Handler) theme(ctx context.Context, cmd Command, log logrus.FieldLogger) Reply {
	if !h.themes.Enabled() {
		return Reply{Text: text(themesDisabledMsgID)}
	}

	if len(cmd.Args) == 0 {
		_, theme := h.themes.CurrentTheme(ctx)
		return Reply{Text: textWithArgs(themeOverviewMsgID, map[string]any{
			"status": h.themeStatus(ctx, cmd.ChatID),
			"theme":  orTBD(theme),
		})}
	}

	switch action := strings.ToLower(cmd.Args[0]); action {
	case "on", "subscribe":
		added, err := h.themes.Subscribe(ctx, cmd.ChatID)
		if err != nil {
			log.WithError(err).Error("theme subscribe failed")
			return Reply{Text: text(storageErrorMsgID)}
		}
		if !added {
			return Reply{Text: text(themeAlreadyMsgID)}
		}
		log.Info("subscribed to themes")
		return Reply{Text: text(themeSubscribedMsgID)}
	case "off", "unsubscribe":
		removed, err := h.themes.Unsubscribe(ctx, cmd.ChatID)
		if err != nil {
			log.WithError(err).Error("theme unsubscribe failed")
			return Reply{Text: text(storageErrorMsgID)}
		}
		if !removed {
			return Reply{Text: text(themeNotSubscribedMsgID)}
		}
		log.Info("unsubscribed from themes")
		return Reply{Text: text(themeUnsubscribedMsgID)}
	case "status":
		week, theme := h.themes.CurrentTheme(ctx)
		return Reply{Text: textWithArgs(themeStatusMsgID, map[string]any{
			"status": h.themeStatus(ctx, cmd.ChatID),
			"week":   orTBD(week),
			"theme":  orTBD(theme),
		})}
	case "set":
		if !h.isAdmin(cmd.ChatID) {
			log.Warn("theme set by non-admin")
			return Reply{Text: text(themeNotAdminMsgID)}
		}
		name := strings.TrimSpace(strings.Join(cmd.Args[1:], " "))
		if name == "" {
			return Reply{Text: text(themeSetUsageMsgID)}
		}
		week, theme, err := h.themes.EnsureCurrentWeekTheme(ctx, name)
		if err != nil {
			log.WithError(err).Error("theme override not persisted")
		}
		log.WithFields(logrus.Fields{"week": week, "theme": theme}).Info("weekly theme set by admin")
		return Reply{Text: textWithArgs(themeSetMsgID, map[string]any{
			"theme": theme,
			"week":  week,
		})}
	default:
		return Reply{Text: text(themeUnknownMsgID)}
	}
}

func (h *Handler) themeStatus(ctx context.Context, chatID int64) string {
	if h.themes.IsSubscribed(ctx, chatID) {
		return "subscribed"
	}
	return "not subscribed"
}

func (h *Handler) nextQuiz(cmd Command, log logrus.FieldLogger) Reply {
	q, err := h.quiz.Next(quizOwner(cmd))
	if err != nil {
		if !errors.Is(err, quiz.ErrNoQuestions) {
			log.WithError(err).Error("quiz failed")
		}
		return Reply{Text: text(quizEmptyMsgID)}
	}
	owner := quizOwner(cmd)
	buttons := make([]Button, 0, len(q.Options))
	for i, opt := range q.Options {
		buttons = append(buttons, Button{Text: opt, Data: quizData(owner, i)})
	}
	return Reply{Text: q.Question, Buttons: buttons}
}

// HandleCallback grades a quiz button pressed by userID and returns the
// text that replaces the question. ok is false for data this bot does not
// own and for presses on another user's question.
func (h *Handler) HandleCallback(userID int64, data string) (string, bool) {
	raw, found := strings.CutPrefix(data, quizPrefix)
	if !found {
		return "", false
	}
	log := h.log.WithField("user_id", userID)

	owner, choice, err := parseQuizData(raw)
	if err != nil {
		log.WithError(err).WithField("data", data).Warn("malformed quiz callback")
		return text(quizExpiredMsgID), true
	}
	if owner != userID {
		return "", false
	}

	res, err := h.quiz.Answer(userID, choice)
	switch {
	case errors.Is(err, quiz.ErrSessionExpired), errors.Is(err, quiz.ErrInvalidChoice):
		return text(quizExpiredMsgID), true
	case err != nil:
		log.WithError(err).Error("quiz answer failed")
		return text(quizExpiredMsgID), true
	case res.Correct:
		return text(quizCorrectMsgID), true
	default:
		return textWithArgs(quizIncorrectMsgID, map[string]any{"answer": res.Answer}), true
	}
}

func quizOwner(cmd Command) int64 {
	if cmd.UserID != 0 {
		return cmd.UserID
	}
	return cmd.ChatID
}

func helpText() string {
	lines := make([]string, 0, len(commands))
	for _, c := range commands {
		lines = append(lines, "/"+c.name+" - "+c.description)
	}
	return textWithArgs(helpMsgID, map[string]any{"commands": strings.Join(lines, "\n")})
}

// quizData encodes the asking user and the option index as
// "quiz|<owner>|<index>".
func quizData(owner int64, idx int) string {
	return quizPrefix + strconv.FormatInt(owner, 10) + "|" + strconv.Itoa(idx)
}

func parseQuizData(raw string) (int64, int, error) {
	ownerPart, idxPart, found := strings.Cut(raw, "|")
	if !found {
		return 0, 0, errors.New("missing option index")
	}
	owner, err := strconv.ParseInt(ownerPart, 10, 64)
	if err != nil {
		return 0, 0, errors.Wrap(err, "owner")
	}
	idx, err := strconv.Atoi(idxPart)
	if err != nil {
		return 0, 0, errors.Wrap(err, "option index")
	}
	return owner, idx, nil
}

func orTBD(s string) string {
	if s == "" {
		return "TBD"
	}
	return s
}
