package llm

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dusk-indust/learnwatch/internal/result"
)

var _ Provider = (*CachedProvider)(nil)

// CachedProvider memoizes successful responses by prompt. Failures are not
// cached so a provider that comes back is used again.
type CachedProvider struct {
	next  Provider
	cache *lru.Cache[string, string]
}

// NewCachedProvider keeps up to size responses from next.
func NewCachedProvider(next Provider, size int) (*CachedProvider, error) {
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("llm cache: %w", err)
	}
	return &CachedProvider{next: next, cache: c}, nil
}

func (c *CachedProvider) Name() string { return c.next.Name() }

func (c *CachedProvider) Generate(ctx context.Context, prompt string) result.Result[string] {
	if text, ok := c.cache.Get(prompt); ok {
		return result.Ok(text)
	}
	res := c.next.Generate(ctx, prompt)
	if text, ok := res.Value(); ok {
		c.cache.Add(prompt, text)
	}
	return res
}

// Len is the number of cached responses.
func (c *CachedProvider) Len() int { return c.cache.Len() }
