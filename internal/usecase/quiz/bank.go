package quiz

import (
	_ "embed"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"ethiopian-history-bot/internal/domain"
)

//go:embed questions.json
var builtinQuestions []byte

// Bank is the question pool. It can be reloaded from a file while in use.
type Bank struct {
	mu        sync.RWMutex
	questions []domain.Question
}

// NewBank returns a bank seeded with the built-in questions.
func NewBank() (*Bank, error) {
	qs, err := parseQuestions(builtinQuestions)
	if err != nil {
		return nil, errors.Wrap(err, "builtin questions")
	}
	return &Bank{questions: qs}, nil
}

// Load replaces the questions with the contents of path. On any error the
// current questions are kept.
func (b *Bank) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	qs, err := parseQuestions(data)
	if err != nil {
		return errors.Wrap(err, path)
	}
	b.mu.Lock()
	b.questions = qs
	b.mu.Unlock()
	return nil
}

func (b *Bank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.questions)
}

func (b *Bank) At(i int) domain.Question {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q := b.questions[i]
	q.Options = append([]string(nil), q.Options...)
	return q
}

func parseQuestions(data []byte) ([]domain.Question, error) {
	var qs []domain.Question
	if err := json.Unmarshal(data, &qs); err != nil {
		return nil, errors.Wrap(err, "decode questions")
	}
	for i, q := range qs {
		if err := validate(q); err != nil {
			return nil, errors.Wrapf(err, "question %d", i)
		}
	}
	return qs, nil
}

func validate(q domain.Question) error {
	if strings.TrimSpace(q.Question) == "" {
		return errors.New("empty question")
	}
	if len(q.Options) < 2 {
		return errors.New("need at least two options")
	}
	for _, o := range q.Options {
		if o == q.Answer {
			return nil
		}
	}
	return errors.Errorf("answer %q is not among the options", q.Answer)
}
