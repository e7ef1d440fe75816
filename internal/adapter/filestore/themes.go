package filestore

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"ethiopian-history-bot/internal/domain"
)

// Themes stores the weekly theme state in a JSON file.
type Themes struct {
	path string
	mu   sync.Locker
	log  logrus.FieldLogger
}

func NewThemes(path string, log logrus.FieldLogger) *Themes {
	return &Themes{
		path: path,
		mu:   &sync.Mutex{},
		log:  log.WithField("store", "themes"),
	}
}

// Load returns the persisted state, or an empty state when the file is
// missing or unreadable. Read failures are also returned tagged.
func (t *Themes) Load(ctx context.Context) (domain.ThemeState, error) {
	if err := ctx.Err(); err != nil {
		return domain.NewThemeState(), err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadLocked()
}

// Update applies fn to the current state and saves it when fn reports a
// change. A corrupt file is treated as empty state, as Load does.
func (t *Themes) Update(ctx context.Context, fn func(*domain.ThemeState) bool) (domain.ThemeState, error) {
	if err := ctx.Err(); err != nil {
		return domain.NewThemeState(), err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	state, _ := t.loadLocked()
	if !fn(&state) {
		return state, nil
	}
	if err := writeJSON(t.path, state); err != nil {
		t.log.WithError(err).Error("failed to save theme state")
		return state, domain.PersistenceFailure(err)
	}
	return state, nil
}

func (t *Themes) loadLocked() (domain.ThemeState, error) {
	state := domain.NewThemeState()
	if err := readJSON(t.path, &state); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewThemeState(), nil
		}
		t.log.WithError(err).Error("failed to load theme state, using empty state")
		return domain.NewThemeState(), domain.PersistenceFailure(err)
	}
	if state.Subscribers == nil {
		state.Subscribers = []int64{}
	}
	if state.FactsLog == nil {
		state.FactsLog = map[string]map[string][]string{}
	}
	return state, nil
}
