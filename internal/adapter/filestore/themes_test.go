package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ethiopian-history-bot/internal/domain"
)

func newTestThemes(t *testing.T) (*Themes, string) {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	path := filepath.Join(t.TempDir(), "themes.json")
	return NewThemes(path, log), path
}

func TestThemes_LoadMissingFile(t *testing.T) {
	store, _ := newTestThemes(t)

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.NewThemeState(), state)
}

func TestThemes_RoundTrip(t *testing.T) {
	store, _ := newTestThemes(t)
	ctx := context.Background()

	want := domain.ThemeState{
		Subscribers:    []int64{11, -22},
		CurrentWeekKey: "2024-02",
		CurrentTheme:   "Historic Battles",
		FactsLog: map[string]map[string][]string{
			"2024-01": {"11": {"a", "b"}},
			"2024-02": {"11": {"c"}, "-22": {"d", "e", "f"}},
		},
	}
	_, err := store.Update(ctx, func(s *domain.ThemeState) bool {
		*s = want
		return true
	})
	require.NoError(t, err)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestThemes_UpdateWithoutChangeDoesNotWrite(t *testing.T) {
	store, path := newTestThemes(t)

	_, err := store.Update(context.Background(), func(*domain.ThemeState) bool { return false })
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestThemes_FileFormat(t *testing.T) {
	store, path := newTestThemes(t)

	_, err := store.Update(context.Background(), func(s *domain.ThemeState) bool {
		s.Subscribe(42)
		s.CurrentWeekKey = "2024-10"
		s.CurrentTheme = "Freedom Fighters"
		s.AppendFact(42, "2024-10", "fact")
		return true
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"subscribers": [42],
		"current_week_key": "2024-10",
		"current_theme": "Freedom Fighters",
		"facts_log": {"2024-10": {"42": ["fact"]}}
	}`, string(raw))
}

func TestThemes_CorruptFileFallsBackToEmpty(t *testing.T) {
	store, path := newTestThemes(t)
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	state, err := store.Load(context.Background())
	assert.True(t, errors.Is(err, domain.ErrPersistence))
	assert.Equal(t, domain.NewThemeState(), state)
}
