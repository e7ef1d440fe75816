// Command llmcheck sends one prompt through the configured LLM endpoint and
// prints the answer. It exits non-zero if the call fails.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"ethiopian-history-bot/internal/adapter/openai"
	"ethiopian-history-bot/internal/config"
	"ethiopian-history-bot/internal/domain"
	"ethiopian-history-bot/internal/usecase/fact"
)

const greeting = "Hello, test Ethiopian history agent (Groq)."

func main() {
	log := logrus.New()

	cfg, err := config.Load(".env", log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := openai.NewClient(cfg.LLMKey, cfg.LLMBaseURL)
	answer, err := client.Complete(ctx, fact.CompletionRequest{
		Model:    cfg.LLMModel,
		Messages: []domain.Message{{Role: domain.RoleUser, Content: greeting}},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: LLM call failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(answer)
}
