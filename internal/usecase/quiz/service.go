package quiz

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"ethiopian-history-bot/internal/domain"
)

var (
	ErrNoQuestions    = errors.New("no quiz questions")
	ErrSessionExpired = errors.New("quiz session expired")
	ErrInvalidChoice  = errors.New("invalid quiz choice")
)

type Result struct {
	Correct bool
	Answer  string
}

type Service struct {
	bank    *Bank
	store   domain.QuizStore
	ttl     time.Duration
	log     logrus.FieldLogger
	now     func() time.Time
	pick    func(n int) int
	shuffle func(n int, swap func(i, j int))
}

func NewService(bank *Bank, store domain.QuizStore, ttl time.Duration, log logrus.FieldLogger) *Service {
	return &Service{
		bank:    bank,
		store:   store,
		ttl:     ttl,
		log:     log.WithField("component", "quiz"),
		now:     time.Now,
		pick:    rand.Intn,
		shuffle: rand.Shuffle,
	}
}

// Next asks userID a random question with shuffled options. Asking again
// replaces any unanswered question.
func (s *Service) Next(userID int64) (domain.Question, error) {
	n := s.bank.Len()
	if n == 0 {
		return domain.Question{}, ErrNoQuestions
	}
	q := s.bank.At(s.pick(n))
	s.shuffle(len(q.Options), func(i, j int) {
		q.Options[i], q.Options[j] = q.Options[j], q.Options[i]
	})
	s.store.Put(userID, domain.PendingQuiz{
		Options: q.Options,
		Answer:  q.Answer,
		AskedAt: s.now(),
	})
	return q, nil
}

// Answer grades choice, an index into the options returned by Next. The
// pending question is consumed either way.
func (s *Service) Answer(userID int64, choice int) (Result, error) {
	pending, ok := s.store.Take(userID, s.now().Add(-s.ttl))
	if !ok {
		return Result{}, ErrSessionExpired
	}
	if choice < 0 || choice >= len(pending.Options) {
		return Result{Answer: pending.Answer}, ErrInvalidChoice
	}
	return Result{
		Correct: pending.Options[choice] == pending.Answer,
		Answer:  pending.Answer,
	}, nil
}

// Sweep forgets questions nobody answered within the session lifetime.
func (s *Service) Sweep() {
	if n := s.store.Prune(s.now().Add(-s.ttl)); n > 0 {
		s.log.WithField("removed", n).Debug("pruned expired quiz sessions")
	}
}
