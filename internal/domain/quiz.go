package domain

import "time"

type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// PendingQuiz is a question a user has been asked and not yet answered.
type PendingQuiz struct {
	Options []string
	Answer  string
	AskedAt time.Time
}

type QuizStore interface {
	Put(userID int64, quiz PendingQuiz)
	// Take removes and returns the user's pending quiz if it was asked
	// after notBefore.
	Take(userID int64, notBefore time.Time) (PendingQuiz, bool)
	Prune(notBefore time.Time) int
}
