package translate

import (
	"context"
	"fmt"
	"time"

	"tutoring-controlplane/pkg/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultTimeout = 20 * time.Second

// chatClient calls an OpenAI-compatible chat completions endpoint.
type chatClient struct {
	http       *resty.Client
	model      string
	apiKey     string
	timeout    time.Duration
	configured bool
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func newChatClient(cfg *config.Config) *chatClient {
	timeout := cfg.Translator.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &chatClient{
		http: resty.New().
			SetBaseURL(cfg.Translator.BaseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		model:      cfg.Translator.Model,
		apiKey:     cfg.Translator.APIKey,
		timeout:    timeout,
		configured: cfg.Translator.BaseURL != "" && cfg.Translator.APIKey != "",
	}
}

func (c *chatClient) IsConfigured() bool {
	return c.configured
}

func (c *chatClient) Translate(ctx context.Context, text, targetLang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"Translate the following tutoring feedback into %s. Keep the tone friendly and return only the translation.\n\n%s",
		targetLang, text,
	)

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(chatRequest{
			Model:       c.model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			Temperature: 0.2,
		}).
		SetResult(&out).
		Post("/v1/chat/completions")
	if err != nil {
		return "", fmt.Errorf("translation request: %w", err)
	}

	if resp.IsError() {
		zap.L().Warn("translation provider returned error",
			zap.Int("status", resp.StatusCode()),
		)
		return "", fmt.Errorf("translation provider status %d", resp.StatusCode())
	}

	if len(out.Choices) == 0 {
		return "", fmt.Errorf("translation provider returned no choices")
	}

	return out.Choices[0].Message.Content, nil
}
