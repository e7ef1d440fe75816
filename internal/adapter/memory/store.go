package memory

import (
	"sync"
	"time"

	"ethiopian-history-bot/internal/domain"
)

// Store keeps pending quiz answers per user in process memory.
type Store struct {
	mu      sync.Mutex
	pending map[int64]domain.PendingQuiz
}

func NewStore() *Store {
	return &Store{
		pending: make(map[int64]domain.PendingQuiz),
	}
}

func (s *Store) Put(userID int64, quiz domain.PendingQuiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[userID] = quiz
}

func (s *Store) Take(userID int64, notBefore time.Time) (domain.PendingQuiz, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quiz, ok := s.pending[userID]
	if !ok {
		return domain.PendingQuiz{}, false
	}
	delete(s.pending, userID)
	if quiz.AskedAt.Before(notBefore) {
		return domain.PendingQuiz{}, false
	}
	return quiz, true
}

// Prune drops quizzes asked before notBefore and reports how many were removed.
func (s *Store) Prune(notBefore time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID, quiz := range s.pending {
		if quiz.AskedAt.Before(notBefore) {
			delete(s.pending, userID)
			removed++
		}
	}
	return removed
}
