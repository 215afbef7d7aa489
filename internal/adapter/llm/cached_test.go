package llm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"doc-quiz/internal/cache"
	"doc-quiz/internal/config"
	"doc-quiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

const cachedPrompt = "Generate a quiz for the following text:\n\nParis is the capital of France.."

func expectedKey() string {
	return cache.GenerateCacheKey("llm", "reply", cache.Digest(cachedPrompt), "googleai", "gemini-2.0-flash")
}

func TestCachedGenerator_Hit(t *testing.T) {
	mc := new(MockCache)
	mc.On("Get", mock.Anything, expectedKey()).Return("cached quiz", nil)

	g := NewCachedGenerator(generatorFunc(func(ctx context.Context, prompt string) (string, error) {
		t.Fatal("oracle must not be called on a cache hit")
		return "", nil
	}), mc, time.Hour, "googleai", "gemini-2.0-flash")

	reply, err := g.Generate(context.Background(), cachedPrompt)
	require.NoError(t, err)
	assert.Equal(t, "cached quiz", reply)
	mc.AssertExpectations(t)
}

func TestCachedGenerator_MissStoresReply(t *testing.T) {
	mc := new(MockCache)
	mc.On("Get", mock.Anything, expectedKey()).Return("", domain.ErrCacheMiss)
	mc.On("Set", mock.Anything, expectedKey(), "fresh quiz", time.Hour).Return(nil)

	g := NewCachedGenerator(generatorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "fresh quiz", nil
	}), mc, time.Hour, "googleai", "gemini-2.0-flash")

	reply, err := g.Generate(context.Background(), cachedPrompt)
	require.NoError(t, err)
	assert.Equal(t, "fresh quiz", reply)
	mc.AssertExpectations(t)
}

func TestCachedGenerator_CacheFailuresAreIgnored(t *testing.T) {
	mc := new(MockCache)
	mc.On("Get", mock.Anything, mock.Anything).Return("", errors.New("redis down"))
	mc.On("Set", mock.Anything, mock.Anything, "fresh quiz", time.Hour).Return(errors.New("redis down"))

	g := NewCachedGenerator(generatorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "fresh quiz", nil
	}), mc, time.Hour)

	reply, err := g.Generate(context.Background(), cachedPrompt)
	require.NoError(t, err)
	assert.Equal(t, "fresh quiz", reply)
}

func TestCachedGenerator_ErrorsAreNotCached(t *testing.T) {
	mc := new(MockCache)
	mc.On("Get", mock.Anything, mock.Anything).Return("", domain.ErrCacheMiss)

	g := NewCachedGenerator(generatorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", domain.NewGenerationFailedError(errors.New("boom"))
	}), mc, time.Hour)

	_, err := g.Generate(context.Background(), cachedPrompt)
	assert.True(t, domain.IsCode(err, domain.CodeGenerationFailed))
	mc.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedGenerator_ConcurrentCallsShareOracle(t *testing.T) {
	mc := new(MockCache)
	mc.On("Get", mock.Anything, mock.Anything).Return("", domain.ErrCacheMiss)
	mc.On("Set", mock.Anything, mock.Anything, "shared", time.Hour).Return(nil)

	var calls int32
	release := make(chan struct{})
	g := NewCachedGenerator(generatorFunc(func(ctx context.Context, prompt string) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	}), mc, time.Hour)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = g.Generate(context.Background(), cachedPrompt)
		}(i)
	}
	// let every caller reach the singleflight group before the oracle answers
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "shared", r)
	}
}

func TestCachedGenerator_MissingCredentialBeatsCacheHit(t *testing.T) {
	mc := new(MockCache)
	mc.On("Get", mock.Anything, mock.Anything).Return("cached quiz", nil)

	cfg := testConfig()
	cfg.APIKey = ""
	client := &Client{cfg: cfg, newModel: func(ctx context.Context, cfg config.LLMConfig) (textModel, error) {
		t.Fatal("model must not be built without a credential")
		return nil, nil
	}}
	g := NewCachedGenerator(client, mc, time.Hour, cfg.Provider, cfg.Model)

	reply, err := g.Generate(context.Background(), cachedPrompt)
	assert.Empty(t, reply)
	requireCode(t, err, domain.CodeMissingCredential)
	mc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestCachedGenerator_CancelledCallerDoesNotFailSharedFlight(t *testing.T) {
	mc := new(MockCache)
	mc.On("Get", mock.Anything, mock.Anything).Return("", domain.ErrCacheMiss)
	mc.On("Set", mock.Anything, mock.Anything, "shared", time.Hour).Return(nil)

	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	g := NewCachedGenerator(generatorFunc(func(ctx context.Context, prompt string) (string, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "shared", nil
	}), mc, time.Hour)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := g.Generate(firstCtx, cachedPrompt)
		firstErr <- err
	}()
	<-started

	secondReply := make(chan string, 1)
	go func() {
		reply, err := g.Generate(context.Background(), cachedPrompt)
		assert.NoError(t, err)
		secondReply <- reply
	}()
	// let the second caller join the flight
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.True(t, domain.IsCode(err, domain.CodeGenerationFailed))
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	select {
	case reply := <-secondReply:
		assert.Equal(t, "shared", reply)
	case <-time.After(time.Second):
		t.Fatal("second caller did not receive the shared reply")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
