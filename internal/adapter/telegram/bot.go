package telegram

import (
	"context"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const maxMessageLen = 4096

type Config struct {
	Token string
	// SendRate caps outgoing requests per second across all chats.
	SendRate    float64
	SendTimeout time.Duration
}

type Bot struct {
	api         *tgbotapi.BotAPI
	handler     *Handler
	limiter     *rate.Limiter
	sendTimeout time.Duration
	log         logrus.FieldLogger
	wg          sync.WaitGroup
}

func NewBot(cfg Config, handler *Handler, log logrus.FieldLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, errors.Wrap(err, "telegram auth")
	}
	log = log.WithField("component", "telegram")
	log.WithField("account", api.Self.UserName).Info("authorized")

	limit := rate.Inf
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
	}
	return &Bot{
		api:         api,
		handler:     handler,
		limiter:     rate.NewLimiter(limit, 1),
		sendTimeout: cfg.SendTimeout,
		log:         log,
	}, nil
}

// RegisterCommands publishes the command menu shown by Telegram clients.
func (b *Bot) RegisterCommands(ctx context.Context) error {
	cmds := make([]tgbotapi.BotCommand, 0, len(commands))
	for _, c := range commands {
		cmds = append(cmds, tgbotapi.BotCommand{Command: c.name, Description: c.description})
	}
	return b.request(ctx, tgbotapi.NewSetMyCommands(cmds...))
}

// Run polls for updates until ctx is done, then waits for in-flight
// handlers.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("stopped receiving updates")
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram updates channel closed")
			}
			switch {
			case update.Message != nil && update.Message.IsCommand():
				b.spawn(update.Message.From, func() { b.handleMessage(ctx, update.Message) })
			case update.CallbackQuery != nil:
				b.spawn(update.CallbackQuery.From, func() { b.handleCallback(ctx, update.CallbackQuery) })
			}
		}
	}
}

func (b *Bot) spawn(from *tgbotapi.User, fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer b.handlePanic(from)
		fn()
	}()
}

func (b *Bot) handlePanic(from *tgbotapi.User) {
	if rec := recover(); rec != nil {
		log := b.log
		if from != nil {
			log = log.WithField("user_id", from.ID)
		}
		log.WithField("stack", string(debug.Stack())).Errorf("panic in handler: %v", rec)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	cmd := Command{
		ChatID: msg.Chat.ID,
		Name:   strings.ToLower(msg.Command()),
		Args:   strings.Fields(msg.CommandArguments()),
	}
	if msg.From != nil {
		cmd.UserID = msg.From.ID
		cmd.User = msg.From.FirstName
	}
	if err := b.handler.HandleCommand(ctx, cmd, b); err != nil {
		b.log.WithError(err).WithField("chat_id", cmd.ChatID).Warn("failed to reply")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if err := b.request(ctx, tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.WithError(err).Warn("failed to answer callback query")
	}
	if cb.Message == nil || cb.From == nil {
		return
	}

	chatID := cb.Message.Chat.ID
	reply, ok := b.handler.HandleCallback(cb.From.ID, cb.Data)
	if !ok {
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, cb.Message.MessageID, reply)
	if err := b.request(ctx, edit); err != nil {
		b.log.WithError(err).WithField("chat_id", chatID).Warn("failed to edit quiz message")
	}
}

// Send delivers text to chatID, splitting it if it exceeds the Telegram
// message limit.
func (b *Bot) Send(ctx context.Context, chatID int64, text string) error {
	return b.Reply(ctx, chatID, Reply{Text: text})
}

func (b *Bot) Reply(ctx context.Context, chatID int64, r Reply) error {
	chunks := splitText(r.Text, maxMessageLen)
	for idx, chunk := range chunks {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if idx == len(chunks)-1 && len(r.Buttons) > 0 {
			msg.ReplyMarkup = keyboard(r.Buttons)
		}
		if err := b.request(ctx, msg); err != nil {
			return errors.Wrapf(err, "send to %d", chatID)
		}
	}
	return nil
}

// request waits for the rate limiter and bounds the call by sendTimeout.
// The HTTP client has no per-call context, so a timed out call is
// abandoned rather than cancelled.
func (b *Bot) request(ctx context.Context, c tgbotapi.Chattable) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limit")
	}
	if b.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.sendTimeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		_, err := b.api.Request(c)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func keyboard(buttons []Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, btn := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func splitText(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		return []string{text}
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/chunkSize+1)
	for start := 0; start < len(runes); start += chunkSize {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks
}
