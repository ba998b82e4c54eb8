package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dusk-indust/learnwatch/internal/logger"
	"github.com/dusk-indust/learnwatch/internal/result"
)

// Candidate is a provider plus a check for whether it can be tried now.
type Candidate struct {
	Provider  Provider
	Available func(ctx context.Context) bool
}

var _ Provider = (*Router)(nil)

// Router tries candidates in order and returns the first success.
type Router struct {
	candidates []Candidate
	log        *logger.Logger
}

// NewRouter returns a router over the given candidates.
func NewRouter(log *logger.Logger, candidates ...Candidate) *Router {
	if log == nil {
		log = logger.Nop()
	}
	return &Router{candidates: candidates, log: log}
}

func (r *Router) Name() string { return "router" }

// Generate returns the first successful response. It fails with
// ValidationError when no candidate is available or every available one
// failed.
func (r *Router) Generate(ctx context.Context, prompt string) result.Result[string] {
	var failures []string
	for _, c := range r.candidates {
		if c.Available != nil && !c.Available(ctx) {
			continue
		}
		res := c.Provider.Generate(ctx, prompt)
		if res.IsOk() {
			return res
		}
		r.log.Warn("llm provider failed", "provider", c.Provider.Name(), "err", res.Error())
		failures = append(failures, c.Provider.Name())
	}
	if len(failures) == 0 {
		return result.Err[string](result.ValidationError, "no LLM provider available")
	}
	return result.Err[string](result.ValidationError, "LLM providers failed: "+strings.Join(failures, ", "))
}

// New builds the provider chain described by cfg: OpenAI first when an API
// key is set, then Ollama when its server answers. The chain is wrapped in a
// CachedProvider when cfg.CacheSize is positive. Provider "none" yields a
// nil Provider.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Provider, error) {
	if log == nil {
		log = logger.Nop()
	}
	var candidates []Candidate

	wantOpenAI := cfg.Provider == ProviderOpenAI || cfg.Provider == ProviderAuto
	wantOllama := cfg.Provider == ProviderOllama || cfg.Provider == ProviderAuto

	if wantOpenAI && cfg.APIKey != "" {
		p, err := NewOpenAI(ctx, cfg)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, Candidate{Provider: p})
	}
	if wantOllama {
		p, err := NewOllama(ctx, cfg)
		if err != nil {
			return nil, err
		}
		url := ollamaURL(cfg)
		candidates = append(candidates, Candidate{
			Provider:  p,
			Available: func(ctx context.Context) bool { return OllamaReachable(ctx, url) },
		})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var p Provider = NewRouter(log, candidates...)
	if cfg.CacheSize > 0 {
		cached, err := NewCachedProvider(p, cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		p = cached
	}
	log.Info("llm providers configured", "count", len(candidates), "cache", cfg.CacheSize)
	return p, nil
}

// OllamaReachable reports whether an Ollama server answers at baseURL.
func OllamaReachable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
