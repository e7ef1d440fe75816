package fact

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ethiopian-history-bot/internal/domain"
)

type fakeClient struct {
	mu       sync.Mutex
	requests []CompletionRequest
	reply    string
	err      error
	complete func(ctx context.Context) (string, error)
}

func (c *fakeClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	if c.complete != nil {
		return c.complete(ctx)
	}
	return c.reply, c.err
}

func newTestService(client Client, cfg Config) *Service {
	log, _ := logtest.NewNullLogger()
	return NewService(client, cfg, log)
}

func TestGenerate(t *testing.T) {
	client := &fakeClient{reply: "  Aksum minted coins.\n"}
	svc := newTestService(client, Config{Model: "llama"})

	got, err := svc.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Aksum minted coins.", got)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "llama", req.Model)
	assert.Equal(t, 150, req.MaxCompletionTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, domain.RoleUser, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "Ethiopian history fact")
}

func TestGenerateThemed_PromptCarriesThemeAndDay(t *testing.T) {
	client := &fakeClient{reply: "Day three fact."}
	svc := newTestService(client, Config{})

	got, err := svc.GenerateThemed(context.Background(), "Historic Battles", 3)
	require.NoError(t, err)
	assert.Equal(t, "Day three fact.", got)

	prompt := client.requests[0].Messages[0].Content
	assert.Contains(t, prompt, "'Historic Battles'")
	assert.Contains(t, prompt, "Today is day 3.")
}

func TestGenerate_FailuresAreTagged(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
	}{
		{name: "client error", client: &fakeClient{err: errors.New("503")}},
		{name: "blank completion", client: &fakeClient{reply: " \n "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.client, Config{})
			_, err := svc.Generate(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrGeneration))
		})
	}
}

func TestGenerate_Timeout(t *testing.T) {
	client := &fakeClient{complete: func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	svc := newTestService(client, Config{Timeout: 10 * time.Millisecond})

	_, err := svc.Generate(context.Background())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, errors.Is(err, domain.ErrGeneration))
}

func TestCompileWeeklySummary(t *testing.T) {
	facts := []string{"Lalibela churches were carved from rock.", "Gondar was a royal capital."}

	t.Run("model summary", func(t *testing.T) {
		client := &fakeClient{reply: "A cohesive story."}
		svc := newTestService(client, Config{})

		got := svc.CompileWeeklySummary(context.Background(), "Religious History and Landmarks", facts)
		assert.Equal(t, "A cohesive story.", got)
		prompt := client.requests[0].Messages[0].Content
		for _, f := range facts {
			assert.Contains(t, prompt, "- "+f)
		}
	})

	t.Run("fallback on failure", func(t *testing.T) {
		svc := newTestService(&fakeClient{err: errors.New("rate limited")}, Config{})

		got := svc.CompileWeeklySummary(context.Background(), "Religious History and Landmarks", facts)
		assert.Equal(t,
			"Weekly Summary for 'Religious History and Landmarks':\n\n"+
				"- Lalibela churches were carved from rock.\n"+
				"- Gondar was a royal capital.",
			got)
	})
}

func TestConcurrencyIsBounded(t *testing.T) {
	var (
		mu      sync.Mutex
		running int
		peak    int
	)
	release := make(chan struct{})
	client := &fakeClient{complete: func(ctx context.Context) (string, error) {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		mu.Unlock()
		<-release
		mu.Lock()
		running--
		mu.Unlock()
		return "fact", nil
	}}
	svc := newTestService(client, Config{Concurrency: 2})

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Generate(context.Background())
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, peak, 2)
}
