package fact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"ethiopian-history-bot/internal/domain"
)

var ErrEmptyCompletion = errors.New("empty completion")

type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type CompletionRequest struct {
	Model               string
	Messages            []domain.Message
	Temperature         float32
	MaxCompletionTokens int
}

type Config struct {
	Model string
	// Timeout bounds a single completion call.
	Timeout time.Duration
	// Concurrency caps in-flight completion calls across the process.
	Concurrency int64
}

// Service produces fact texts through the language model. Calls block the
// calling goroutine only; at most Concurrency run at once.
type Service struct {
	client Client
	cfg    Config
	sem    *semaphore.Weighted
	log    logrus.FieldLogger
}

func NewService(client Client, cfg Config, log logrus.FieldLogger) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Service{
		client: client,
		cfg:    cfg,
		sem:    semaphore.NewWeighted(cfg.Concurrency),
		log:    log.WithField("component", "fact"),
	}
}

// Generate returns one generic Ethiopian history fact.
func (s *Service) Generate(ctx context.Context) (string, error) {
	return s.complete(ctx, genericFactPrompt, 0.7, 150)
}

// GenerateThemed returns the fact for day dayIndex (1..7) of a series on theme.
func (s *Service) GenerateThemed(ctx context.Context, theme string, dayIndex int) (string, error) {
	return s.complete(ctx, themedFactPrompt(theme, dayIndex), 0.6, 180)
}

// CompileWeeklySummary weaves the week's facts into a short narrative. If
// the model call fails it falls back to a plain bulleted list, so it always
// returns text.
func (s *Service) CompileWeeklySummary(ctx context.Context, theme string, facts []string) string {
	summary, err := s.complete(ctx, weeklySummaryPrompt(theme, facts), 0.3, 220)
	if err != nil {
		s.log.WithError(err).WithField("theme", theme).Warn("falling back to plain weekly summary")
		return FallbackSummary(theme, facts)
	}
	return summary
}

// FallbackSummary lists every fact verbatim under the theme name.
func FallbackSummary(theme string, facts []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly Summary for '%s':\n\n", theme)
	for i, f := range facts {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(f)
	}
	return b.String()
}

func (s *Service) complete(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", domain.GenerationFailure(err)
	}
	defer s.sem.Release(1)

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	resp, err := s.client.Complete(ctx, CompletionRequest{
		Model:               s.cfg.Model,
		Messages:            []domain.Message{{Role: domain.RoleUser, Content: prompt}},
		Temperature:         temperature,
		MaxCompletionTokens: maxTokens,
	})
	if err != nil {
		return "", domain.GenerationFailure(errors.Wrap(err, "complete"))
	}
	resp = strings.TrimSpace(resp)
	if resp == "" {
		return "", domain.GenerationFailure(ErrEmptyCompletion)
	}
	return resp, nil
}
