// Package llm talks to the completion service for article filtering and
// briefing generation. Prompt templates come from the configuration store,
// the package only substitutes values and interprets responses.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-pkgz/repeater/v2"
	"github.com/sashabaranov/go-openai"

	"github.com/hammed103/maya-news-extraction/pkg/config"
	"github.com/hammed103/maya-news-extraction/pkg/ratelimit"
)

// Client wraps the completion service with pacing and bounded retries
type Client struct {
	api      *openai.Client
	cfg      config.LLMConfig
	limiter  *ratelimit.Limiter
	attempts int
}

// NewClient creates an LLM client. An empty endpoint uses the service default.
func NewClient(cfg config.LLMConfig, limiter *ratelimit.Limiter, attempts int) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}

	return &Client{
		api:      openai.NewClientWithConfig(clientConfig),
		cfg:      cfg,
		limiter:  limiter,
		attempts: attempts,
	}
}

// complete sends a single-user-message completion request and returns the
// response text. Retries transient failures through the limiter's backoff.
func (c *Client) complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	var content string

	retrier := repeater.NewBackoff(c.attempts, c.cfg.Timeout/10)
	err := retrier.Do(ctx, func() error {
		if err := c.limiter.Acquire(ctx, ratelimit.ChannelLLM); err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		resp, err := c.api.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
			Model:       c.cfg.Model,
			Temperature: temperature,
			MaxTokens:   maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			c.limiter.Failure(ratelimit.ChannelLLM)
			return fmt.Errorf("completion request: %w", err)
		}
		if len(resp.Choices) == 0 {
			c.limiter.Failure(ratelimit.ChannelLLM)
			return fmt.Errorf("empty completion response")
		}

		c.limiter.Success(ratelimit.ChannelLLM)
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(content), nil
}

// substitute fills {name} placeholders in a prompt template
func substitute(template string, values map[string]string) string {
	result := template
	for name, value := range values {
		result = strings.ReplaceAll(result, "{"+name+"}", value)
	}
	return result
}

// scrubMarkdown removes markdown decoration the model tends to add
func scrubMarkdown(text string) string {
	for _, token := range []string{"**", "###", "##"} {
		text = strings.ReplaceAll(text, token, "")
	}
	text = strings.ReplaceAll(text, "# ", "")
	return strings.TrimSpace(text)
}
