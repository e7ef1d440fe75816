package theme

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ethiopian-history-bot/internal/domain"
)

type Service struct {
	store   domain.ThemeStore
	enabled bool
	loc     *time.Location
	catalog []string
	log     logrus.FieldLogger
	now     func() time.Time
	pick    func(n int) int
}

// NewService computes week keys and day indexes in loc, the zone the
// triggers fire in. A nil loc means local time.
func NewService(store domain.ThemeStore, enabled bool, loc *time.Location, log logrus.FieldLogger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store:   store,
		enabled: enabled,
		loc:     loc,
		catalog: domain.DefaultThemes,
		log:     log.WithField("component", "theme"),
		now:     time.Now,
		pick:    rand.Intn,
	}
}

// Enabled reports whether the themed series is switched on. All other
// methods still work when it is off; callers are expected to check.
func (s *Service) Enabled() bool {
	return s.enabled
}

// EnsureCurrentWeekTheme selects this week's theme on the first call after
// a week rollover. A non-empty override always becomes the current theme.
func (s *Service) EnsureCurrentWeekTheme(ctx context.Context, override string) (string, string, error) {
	override = strings.TrimSpace(override)
	week := domain.WeekKey(s.clock())

	state, err := s.store.Update(ctx, func(st *domain.ThemeState) bool {
		if override == "" && st.CurrentWeekKey == week && st.CurrentTheme != "" {
			return false
		}
		theme := override
		if theme == "" {
			theme = s.catalog[s.pick(len(s.catalog))]
		}
		st.CurrentWeekKey = week
		st.CurrentTheme = theme
		st.EnsureWeek(week)
		s.log.WithFields(logrus.Fields{"week": week, "theme": theme}).Info("selected weekly theme")
		return true
	})
	return state.CurrentWeekKey, state.CurrentTheme, err
}

// CurrentTheme returns the stored week key and theme without selecting
// one. Both are empty if no theme was ever chosen.
func (s *Service) CurrentTheme(ctx context.Context) (string, string) {
	state, _ := s.store.Load(ctx)
	return state.CurrentWeekKey, state.CurrentTheme
}

// Subscribe reports false if chatID was already subscribed.
func (s *Service) Subscribe(ctx context.Context, chatID int64) (bool, error) {
	changed := false
	_, err := s.store.Update(ctx, func(st *domain.ThemeState) bool {
		changed = st.Subscribe(chatID)
		return changed
	})
	if err != nil {
		return false, err
	}
	if changed {
		s.log.WithField("chat_id", chatID).Info("subscribed to weekly themes")
	}
	return changed, nil
}

// Unsubscribe reports false if chatID was not subscribed.
func (s *Service) Unsubscribe(ctx context.Context, chatID int64) (bool, error) {
	changed := false
	_, err := s.store.Update(ctx, func(st *domain.ThemeState) bool {
		changed = st.Unsubscribe(chatID)
		return changed
	})
	if err != nil {
		return false, err
	}
	if changed {
		s.log.WithField("chat_id", chatID).Info("unsubscribed from weekly themes")
	}
	return changed, nil
}

func (s *Service) IsSubscribed(ctx context.Context, chatID int64) bool {
	state, _ := s.store.Load(ctx)
	return state.IsSubscribed(chatID)
}

// Subscribers returns the themed subscriber set.
func (s *Service) Subscribers(ctx context.Context) domain.SubscriberSet {
	state, _ := s.store.Load(ctx)
	return state.SubscriberSet()
}

// Today returns the day index of the current date within its ISO week.
func (s *Service) Today() int {
	return domain.DayIndex(s.clock())
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) LogFact(ctx context.Context, chatID int64, week, fact string) error {
	_, err := s.store.Update(ctx, func(st *domain.ThemeState) bool {
		st.AppendFact(chatID, week, fact)
		return true
	})
	return err
}

// Snapshot returns the whole persisted state.
func (s *Service) Snapshot(ctx context.Context) domain.ThemeState {
	state, _ := s.store.Load(ctx)
	return state
}
