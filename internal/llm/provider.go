// Package llm provides optional natural-language hint text from chat models
// via CloudWeGo Eino. Every failure is a result value; callers fall back to
// template hints.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dusk-indust/learnwatch/internal/result"
)

const (
	ProviderNone   = "none"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderAuto   = "auto"
)

const (
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultOllamaModel = "deepseek-coder:6.7b"
	DefaultOllamaURL   = "http://localhost:11434"
)

// Provider turns a prompt into text.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) result.Result[string]
}

// Config selects and tunes the chat models.
type Config struct {
	Provider    string
	OpenAIModel string
	OllamaModel string
	APIKey      string
	BaseURL     string // Ollama
	MaxTokens   int
	Temperature float32
	CacheSize   int
}

var _ Provider = (*ChatProvider)(nil)

// ChatProvider adapts an Eino chat model to Provider.
type ChatProvider struct {
	name        string
	model       model.BaseChatModel
	maxTokens   int
	temperature float32
}

// NewChatProvider wraps any Eino chat model.
func NewChatProvider(name string, m model.BaseChatModel, maxTokens int, temperature float32) *ChatProvider {
	return &ChatProvider{name: name, model: m, maxTokens: maxTokens, temperature: temperature}
}

// NewOpenAI builds a provider backed by the OpenAI chat completions API.
func NewOpenAI(ctx context.Context, cfg Config) (*ChatProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	name := cfg.OpenAIModel
	if name == "" {
		name = DefaultOpenAIModel
	}
	m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		Model:  name,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat model: %w", err)
	}
	return NewChatProvider(ProviderOpenAI, m, cfg.MaxTokens, cfg.Temperature), nil
}

// NewOllama builds a provider backed by a local Ollama server.
func NewOllama(ctx context.Context, cfg Config) (*ChatProvider, error) {
	name := cfg.OllamaModel
	if name == "" {
		name = DefaultOllamaModel
	}
	m, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: ollamaURL(cfg),
		Model:   name,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat model: %w", err)
	}
	return NewChatProvider(ProviderOllama, m, cfg.MaxTokens, cfg.Temperature), nil
}

func (p *ChatProvider) Name() string { return p.name }

// Generate sends prompt as a single user message.
func (p *ChatProvider) Generate(ctx context.Context, prompt string) result.Result[string] {
	var opts []model.Option
	if p.maxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(p.maxTokens))
	}
	opts = append(opts, model.WithTemperature(p.temperature))

	resp, err := p.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)}, opts...)
	if err != nil {
		return result.Err[string](result.ValidationError, fmt.Sprintf("%s: %v", p.name, err))
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return result.Err[string](result.ValidationError, p.name+": empty response")
	}
	return result.Ok(strings.TrimSpace(resp.Content))
}

func ollamaURL(cfg Config) string {
	if cfg.BaseURL != "" {
		return strings.TrimRight(cfg.BaseURL, "/")
	}
	return DefaultOllamaURL
}
