package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ethiopian-history-bot/internal/domain"
)

type fakeSubscribers struct {
	set domain.SubscriberSet
}

func (f fakeSubscribers) Load(context.Context) (domain.SubscriberSet, error) {
	return f.set, nil
}

type fakeFacts struct {
	mu          sync.Mutex
	generic     int
	themed      int
	failGeneric int
	failThemed  bool
	summaries   [][]string
}

func (f *fakeFacts) Generate(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generic++
	if f.generic <= f.failGeneric {
		return "", domain.GenerationFailure(errors.New("llm down"))
	}
	return fmt.Sprintf("generic fact #%d", f.generic), nil
}

func (f *fakeFacts) GenerateThemed(_ context.Context, theme string, day int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.themed++
	if f.failThemed {
		return "", domain.GenerationFailure(errors.New("llm down"))
	}
	return fmt.Sprintf("%s day %d", theme, day), nil
}

func (f *fakeFacts) CompileWeeklySummary(_ context.Context, theme string, facts []string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, facts)
	return fmt.Sprintf("%s recap of %d facts", theme, len(facts))
}

type fakeSender struct {
	mu     sync.Mutex
	fail   map[int64]bool
	sent   map[int64][]string
	onSend func(chatID int64)
}

func newFakeSender(failing ...int64) *fakeSender {
	s := &fakeSender{fail: map[int64]bool{}, sent: map[int64][]string{}}
	for _, id := range failing {
		s.fail[id] = true
	}
	return s
}

func (s *fakeSender) Send(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.onSend != nil {
		s.onSend(chatID)
	}
	if s.fail[chatID] {
		return errors.New("chat not found")
	}
	s.sent[chatID] = append(s.sent[chatID], text)
	return nil
}

type fakeThemes struct {
	enabled bool
	day     int
	state   domain.ThemeState
	logErr  error
}

func (f *fakeThemes) Enabled() bool { return f.enabled }

func (f *fakeThemes) EnsureCurrentWeekTheme(context.Context, string) (string, string, error) {
	if f.state.CurrentTheme == "" {
		f.state.CurrentWeekKey = "2024-02"
		f.state.CurrentTheme = "Historic Battles"
	}
	return f.state.CurrentWeekKey, f.state.CurrentTheme, nil
}

func (f *fakeThemes) Subscribers(context.Context) domain.SubscriberSet {
	return f.state.SubscriberSet()
}

func (f *fakeThemes) Today() int { return f.day }

func (f *fakeThemes) LogFact(_ context.Context, chatID int64, week, fact string) error {
	if f.logErr != nil {
		return f.logErr
	}
	f.state.AppendFact(chatID, week, fact)
	return nil
}

func (f *fakeThemes) Snapshot(context.Context) domain.ThemeState { return f.state }

func newTestService(subs domain.SubscriberSet, themes *fakeThemes, facts *fakeFacts, sender *fakeSender) *Service {
	log, _ := logtest.NewNullLogger()
	return NewService(fakeSubscribers{set: subs}, themes, facts, sender, log)
}

func TestDaily_SharesOneGenericFact(t *testing.T) {
	facts := &fakeFacts{}
	sender := newFakeSender()
	svc := newTestService(domain.NewSubscriberSet(1, 2, 3), &fakeThemes{}, facts, sender)

	report, err := svc.Daily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Sent: 3}, report)
	assert.Equal(t, 1, facts.generic)

	want := GenericMessage("generic fact #1")
	for _, id := range []int64{1, 2, 3} {
		assert.Equal(t, []string{want}, sender.sent[id])
	}
}

func TestDaily_SendFailureIsIsolated(t *testing.T) {
	sender := newFakeSender(2)
	svc := newTestService(domain.NewSubscriberSet(1, 2, 3), &fakeThemes{}, &fakeFacts{}, sender)

	report, err := svc.Daily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Sent: 2, Failed: 1}, report)
	assert.Len(t, sender.sent[1], 1)
	assert.Len(t, sender.sent[3], 1)
}

func TestDaily_NoSubscribers(t *testing.T) {
	facts := &fakeFacts{}
	svc := newTestService(domain.NewSubscriberSet(), &fakeThemes{enabled: true}, facts, newFakeSender())

	report, err := svc.Daily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
	assert.Zero(t, facts.generic)
}

func TestDaily_GenericFailureRetriesOnNextChat(t *testing.T) {
	facts := &fakeFacts{failGeneric: 1}
	sender := newFakeSender()
	svc := newTestService(domain.NewSubscriberSet(1, 2, 3), &fakeThemes{}, facts, sender)

	report, err := svc.Daily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Sent: 2, Failed: 1}, report)
	assert.Equal(t, 2, facts.generic)
	assert.Empty(t, sender.sent[1])
	assert.Equal(t, sender.sent[2], sender.sent[3])
}

func TestDaily_ThemedSubscribers(t *testing.T) {
	themes := &fakeThemes{enabled: true, day: 4, state: domain.NewThemeState()}
	themes.state.Subscribe(2)
	themes.state.Subscribe(99)
	facts := &fakeFacts{}
	sender := newFakeSender()
	svc := newTestService(domain.NewSubscriberSet(1, 2, 3), themes, facts, sender)

	report, err := svc.Daily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Sent: 3}, report)
	assert.Equal(t, 1, facts.themed, "99 is not a daily subscriber")
	assert.Equal(t, 1, facts.generic)

	assert.Equal(t, []string{ThemedMessage("Historic Battles", 4, "Historic Battles day 4")}, sender.sent[2])
	assert.Equal(t, sender.sent[1], sender.sent[3])
	assert.Equal(t, []string{"Historic Battles day 4"}, themes.state.Facts(2, "2024-02"))
}

func TestDaily_ThemedGenerationFailureIsIsolated(t *testing.T) {
	themes := &fakeThemes{enabled: true, day: 1, state: domain.NewThemeState()}
	themes.state.Subscribe(1)
	sender := newFakeSender()
	svc := newTestService(domain.NewSubscriberSet(1, 2), themes, &fakeFacts{failThemed: true}, sender)

	report, err := svc.Daily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Sent: 1, Failed: 1}, report)
	assert.Empty(t, themes.state.Facts(1, "2024-02"))
}

func TestDaily_LogFailureStillCountsAsSent(t *testing.T) {
	themes := &fakeThemes{enabled: true, day: 1, state: domain.NewThemeState(), logErr: domain.PersistenceFailure(errors.New("disk full"))}
	themes.state.Subscribe(1)
	svc := newTestService(domain.NewSubscriberSet(1), themes, &fakeFacts{}, newFakeSender())

	report, err := svc.Daily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Sent: 1}, report)
}

func TestDaily_ThemesDisabledIgnoresThemedSubscribers(t *testing.T) {
	themes := &fakeThemes{enabled: false, day: 1, state: domain.NewThemeState()}
	themes.state.Subscribe(1)
	facts := &fakeFacts{}
	svc := newTestService(domain.NewSubscriberSet(1), themes, facts, newFakeSender())

	_, err := svc.Daily(context.Background())
	require.NoError(t, err)
	assert.Zero(t, facts.themed)
	assert.Equal(t, 1, facts.generic)
}

func TestDaily_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sender := newFakeSender()
	sender.onSend = func(int64) { cancel() }
	svc := newTestService(domain.NewSubscriberSet(1, 2, 3), &fakeThemes{}, &fakeFacts{}, sender)

	report, err := svc.Daily(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Report{Sent: 1}, report)
}

func TestWeeklySummary(t *testing.T) {
	themes := &fakeThemes{enabled: true, state: domain.NewThemeState()}
	themes.state.CurrentWeekKey = "2024-02"
	themes.state.CurrentTheme = "Freedom Fighters"
	for _, id := range []int64{1, 2, 3} {
		themes.state.Subscribe(id)
	}
	themes.state.AppendFact(1, "2024-02", "a")
	themes.state.AppendFact(1, "2024-02", "b")
	themes.state.AppendFact(2, "2024-01", "last week only")
	themes.state.AppendFact(3, "2024-02", "c")
	facts := &fakeFacts{}
	sender := newFakeSender(3)
	svc := newTestService(domain.NewSubscriberSet(), themes, facts, sender)

	report, err := svc.WeeklySummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Sent: 1, Failed: 1, Skipped: 1}, report)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, facts.summaries)
	assert.Equal(t, []string{SummaryMessage("Freedom Fighters", "Freedom Fighters recap of 2 facts")}, sender.sent[1])
}

func TestWeeklySummary_NoOps(t *testing.T) {
	tests := []struct {
		name   string
		themes *fakeThemes
	}{
		{name: "themes disabled", themes: &fakeThemes{enabled: false, state: domain.ThemeState{CurrentWeekKey: "2024-02", CurrentTheme: "x", Subscribers: []int64{1}}}},
		{name: "no theme selected", themes: &fakeThemes{enabled: true, state: domain.ThemeState{Subscribers: []int64{1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.themes.state.AppendFact(1, "2024-02", "fact")
			facts := &fakeFacts{}
			sender := newFakeSender()
			svc := newTestService(domain.NewSubscriberSet(), tt.themes, facts, sender)

			report, err := svc.WeeklySummary(context.Background())
			require.NoError(t, err)
			assert.Equal(t, Report{}, report)
			assert.Empty(t, facts.summaries)
			assert.Empty(t, sender.sent)
		})
	}
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "🌅 Weekly Theme: Historic Battles\nDay 3/7\n\nAdwa, 1896.", ThemedMessage("Historic Battles", 3, "Adwa, 1896."))
	assert.Equal(t, "🌅 Daily Ethiopian History Fact\n\nCoffee.\n\n🇪🇹 Have a great day!", GenericMessage("Coffee."))
	assert.Equal(t, "🧭 Weekly Summary: T\n\nS", SummaryMessage("T", "S"))
}
