package dispatch

import (
	"context"

	"github.com/sirupsen/logrus"

	"ethiopian-history-bot/internal/domain"
)

type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

type Subscribers interface {
	Load(ctx context.Context) (domain.SubscriberSet, error)
}

type Facts interface {
	Generate(ctx context.Context) (string, error)
	GenerateThemed(ctx context.Context, theme string, dayIndex int) (string, error)
	CompileWeeklySummary(ctx context.Context, theme string, facts []string) string
}

type Themes interface {
	Enabled() bool
	EnsureCurrentWeekTheme(ctx context.Context, override string) (string, string, error)
	Subscribers(ctx context.Context) domain.SubscriberSet
	Today() int
	LogFact(ctx context.Context, chatID int64, week, fact string) error
	Snapshot(ctx context.Context) domain.ThemeState
}

// Report counts the outcome of one cycle.
type Report struct {
	Sent    int
	Failed  int
	Skipped int
}

type Service struct {
	subs   Subscribers
	themes Themes
	facts  Facts
	sender Sender
	log    logrus.FieldLogger
}

func NewService(subs Subscribers, themes Themes, facts Facts, sender Sender, log logrus.FieldLogger) *Service {
	return &Service{
		subs:   subs,
		themes: themes,
		facts:  facts,
		sender: sender,
		log:    log.WithField("component", "dispatch"),
	}
}

type themeContext struct {
	week       string
	theme      string
	day        int
	subscribed domain.SubscriberSet
}

func (tc *themeContext) covers(chatID int64) bool {
	return tc != nil && tc.theme != "" && tc.day > 0 && tc.subscribed.Has(chatID)
}

// Daily delivers one fact to every daily subscriber. Themed subscribers get
// the day's themed fact; everyone else shares a single generic fact that is
// generated at most once per cycle. A failure for one chat is counted and
// does not stop the cycle. The returned error is non-nil only when ctx was
// cancelled mid-cycle.
func (s *Service) Daily(ctx context.Context) (Report, error) {
	log := s.log.WithField("job", "daily")
	var report Report

	subs, _ := s.subs.Load(ctx)
	if len(subs) == 0 {
		log.Info("no subscribers; skipping daily fact delivery")
		return report, nil
	}
	log.WithField("subscribers", len(subs)).Info("starting daily fact delivery")

	tc := s.themeContext(ctx, log)
	var generic string

	for _, chatID := range subs.Sorted() {
		if err := ctx.Err(); err != nil {
			log.WithFields(logrus.Fields{"sent": report.Sent, "failed": report.Failed}).Warn("daily fact delivery cancelled")
			return report, err
		}
		clog := log.WithField("chat_id", chatID)

		var err error
		if tc.covers(chatID) {
			err = s.sendThemed(ctx, chatID, tc, clog)
		} else {
			if generic == "" {
				generic, err = s.facts.Generate(ctx)
			}
			if err == nil {
				err = s.deliver(ctx, chatID, GenericMessage(generic))
			}
		}
		if err != nil {
			clog.WithError(err).Warn("failed to send daily fact")
			report.Failed++
			continue
		}
		report.Sent++
	}

	log.WithFields(logrus.Fields{"sent": report.Sent, "failed": report.Failed}).Info("daily fact delivery completed")
	return report, nil
}

func (s *Service) themeContext(ctx context.Context, log logrus.FieldLogger) *themeContext {
	if !s.themes.Enabled() {
		return nil
	}
	week, theme, err := s.themes.EnsureCurrentWeekTheme(ctx, "")
	if err != nil {
		log.WithError(err).Warn("could not persist weekly theme selection")
	}
	return &themeContext{
		week:       week,
		theme:      theme,
		day:        s.themes.Today(),
		subscribed: s.themes.Subscribers(ctx),
	}
}

func (s *Service) sendThemed(ctx context.Context, chatID int64, tc *themeContext, log logrus.FieldLogger) error {
	fact, err := s.facts.GenerateThemed(ctx, tc.theme, tc.day)
	if err != nil {
		return err
	}
	if err := s.deliver(ctx, chatID, ThemedMessage(tc.theme, tc.day, fact)); err != nil {
		return err
	}
	if err := s.themes.LogFact(ctx, chatID, tc.week, fact); err != nil {
		log.WithError(err).Error("failed to log themed fact")
	}
	return nil
}

// WeeklySummary sends each themed subscriber a recap of the facts they
// received during the current theme week. Chats with nothing logged are
// skipped.
func (s *Service) WeeklySummary(ctx context.Context) (Report, error) {
	log := s.log.WithField("job", "weekly_summary")
	var report Report

	if !s.themes.Enabled() {
		return report, nil
	}
	state := s.themes.Snapshot(ctx)
	week, theme := state.CurrentWeekKey, state.CurrentTheme
	if week == "" || theme == "" {
		log.Info("no current theme; skipping weekly summaries")
		return report, nil
	}
	log = log.WithFields(logrus.Fields{"week": week, "theme": theme})
	log.WithField("subscribers", len(state.Subscribers)).Info("sending weekly themed summaries")

	for _, chatID := range state.SubscriberSet().Sorted() {
		if err := ctx.Err(); err != nil {
			log.WithFields(logrus.Fields{"sent": report.Sent, "failed": report.Failed}).Warn("weekly summaries cancelled")
			return report, err
		}
		facts := state.Facts(chatID, week)
		if len(facts) == 0 {
			report.Skipped++
			continue
		}
		summary := s.facts.CompileWeeklySummary(ctx, theme, facts)
		if err := s.deliver(ctx, chatID, SummaryMessage(theme, summary)); err != nil {
			log.WithError(err).WithField("chat_id", chatID).Warn("failed to send weekly summary")
			report.Failed++
			continue
		}
		report.Sent++
	}

	log.WithFields(logrus.Fields{
		"sent":    report.Sent,
		"failed":  report.Failed,
		"skipped": report.Skipped,
	}).Info("weekly summaries completed")
	return report, nil
}

func (s *Service) deliver(ctx context.Context, chatID int64, text string) error {
	return domain.DeliveryFailure(s.sender.Send(ctx, chatID, text))
}
