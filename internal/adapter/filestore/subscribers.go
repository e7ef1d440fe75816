package filestore

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"ethiopian-history-bot/internal/domain"
)

type subscribersDoc struct {
	Subscribers []int64 `json:"subscribers"`
}

// Subscribers stores the daily subscriber set in a JSON file. The file is
// the source of truth and is read on every call; mu serializes all access.
type Subscribers struct {
	path string
	mu   sync.Locker
	log  logrus.FieldLogger
}

func NewSubscribers(path string, log logrus.FieldLogger) *Subscribers {
	return &Subscribers{
		path: path,
		mu:   &sync.Mutex{},
		log:  log.WithField("store", "subscribers"),
	}
}

// Load returns the persisted set. On a missing file it returns an empty set;
// on any other failure it returns an empty set together with a tagged
// persistence failure, which callers may ignore.
func (s *Subscribers) Load(ctx context.Context) (domain.SubscriberSet, error) {
	if err := ctx.Err(); err != nil {
		return domain.NewSubscriberSet(), err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Subscribers) Save(ctx context.Context, subs domain.SubscriberSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(subs)
}

// Add reports false when chatID is already subscribed.
func (s *Subscribers) Add(ctx context.Context, chatID int64) (bool, error) {
	return s.modify(ctx, func(subs domain.SubscriberSet) bool { return subs.Add(chatID) })
}

// Remove reports false when chatID was not subscribed.
func (s *Subscribers) Remove(ctx context.Context, chatID int64) (bool, error) {
	return s.modify(ctx, func(subs domain.SubscriberSet) bool { return subs.Remove(chatID) })
}

func (s *Subscribers) modify(ctx context.Context, fn func(domain.SubscriberSet) bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, _ := s.loadLocked()
	if !fn(subs) {
		return false, nil
	}
	if err := s.saveLocked(subs); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Subscribers) loadLocked() (domain.SubscriberSet, error) {
	var doc subscribersDoc
	if err := readJSON(s.path, &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Info("no subscribers file found, starting with empty set")
			return domain.NewSubscriberSet(), nil
		}
		s.log.WithError(err).Error("failed to load subscribers, starting with empty set")
		return domain.NewSubscriberSet(), domain.PersistenceFailure(err)
	}
	subs := domain.NewSubscriberSet(doc.Subscribers...)
	s.log.WithField("count", len(subs)).Debug("loaded subscribers")
	return subs, nil
}

func (s *Subscribers) saveLocked(subs domain.SubscriberSet) error {
	if err := writeJSON(s.path, subscribersDoc{Subscribers: subs.Sorted()}); err != nil {
		s.log.WithError(err).Error("failed to save subscribers")
		return domain.PersistenceFailure(err)
	}
	s.log.WithField("count", len(subs)).Info("saved subscribers")
	return nil
}
