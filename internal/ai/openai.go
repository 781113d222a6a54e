package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient writes link card descriptions using the Chat Completions API.
type OpenAIClient struct {
	client   *openai.Client
	model    string
	language string
}

type Config struct {
	APIKey   string
	Model    string
	BaseURL  string // optional
	Language string // defaults to English
}

func NewOpenAI(cfg Config) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("openai: model must be specified")
	}
	var c *openai.Client
	if cfg.BaseURL != "" {
		cc := openai.DefaultConfig(cfg.APIKey)
		cc.BaseURL = cfg.BaseURL
		c = openai.NewClientWithConfig(cc)
	} else {
		c = openai.NewClient(cfg.APIKey)
	}
	return &OpenAIClient{client: c, model: model, language: langOrDefault(cfg.Language)}, nil
}

// maxDescriptionRunes keeps card descriptions short enough for clients to
// render without truncating mid-sentence.
const maxDescriptionRunes = 280

func (o *OpenAIClient) DescribeLink(ctx context.Context, title, pageSummary string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	pageSummary = strings.TrimSpace(pageSummary)
	if len([]rune(pageSummary)) > 1000 {
		pageSummary = string([]rune(pageSummary)[:1000])
	}
	sys := fmt.Sprintf(`
		Write one plain sentence in %s describing what the linked article is about.
		No hype, no emojis, no hashtags, no links. At most 200 characters.
		`, o.language)
	user := fmt.Sprintf("Title: %s\nPage description: %s", title, pageSummary)
	out, err := o.create(ctx, sys, user)
	if err != nil {
		slog.Error("openai: describe link error", "err", err)
		return "", err
	}
	return clip(strings.TrimSpace(out), maxDescriptionRunes), nil
}

func (o *OpenAIClient) create(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

func langOrDefault(lang string) string {
	l := strings.TrimSpace(lang)
	if l == "" {
		return "English"
	}
	return l
}
