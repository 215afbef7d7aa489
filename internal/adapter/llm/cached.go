package llm

import (
	"context"
	"errors"
	"time"

	"doc-quiz/internal/cache"
	"doc-quiz/internal/domain"
	"doc-quiz/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// readiness is implemented by generators that can tell, without a network call,
// that they cannot serve a request.
type readiness interface {
	Ready() error
}

// CachedGenerator memoizes replies by prompt digest. Concurrent identical prompts
// share a single oracle call. Cache failures are logged and never surface to callers;
// generation errors are never cached.
type CachedGenerator struct {
	next      domain.Generator
	cache     domain.Cache
	ttl       time.Duration
	keyParams []string
	sfGroup   singleflight.Group
}

// NewCachedGenerator wraps next. keyParams (typically provider and model) partition the
// key space so switching models does not serve stale replies.
func NewCachedGenerator(next domain.Generator, c domain.Cache, ttl time.Duration, keyParams ...string) *CachedGenerator {
	return &CachedGenerator{next: next, cache: c, ttl: ttl, keyParams: keyParams}
}

// Generate implements domain.Generator
func (g *CachedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	l := logger.Get()
	if r, ok := g.next.(readiness); ok {
		if err := r.Ready(); err != nil {
			return "", err
		}
	}
	cacheKey := cache.GenerateCacheKey("llm", "reply", cache.Digest(prompt), g.keyParams...)

	cached, err := g.cache.Get(ctx, cacheKey)
	if err == nil {
		l.Debug("LLM reply cache hit", zap.String("key", cacheKey))
		return cached, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		l.Warn("LLM reply cache get failed", zap.String("key", cacheKey), zap.Error(err))
	}

	// the flight outlives any single caller; the wrapped client bounds it with its own timeout
	flightCtx := context.WithoutCancel(ctx)
	resultC := g.sfGroup.DoChan(cacheKey, func() (interface{}, error) {
		reply, genErr := g.next.Generate(flightCtx, prompt)
		if genErr != nil {
			return nil, genErr
		}
		if setErr := g.cache.Set(flightCtx, cacheKey, reply, g.ttl); setErr != nil {
			l.Warn("LLM reply cache set failed", zap.String("key", cacheKey), zap.Error(setErr))
		}
		return reply, nil
	})

	select {
	case <-ctx.Done():
		return "", domain.NewGenerationFailedError(ctx.Err())
	case res := <-resultC:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			l.Debug("LLM reply shared with concurrent caller", zap.String("key", cacheKey))
		}
		return res.Val.(string), nil
	}
}

var _ domain.Generator = (*CachedGenerator)(nil)
