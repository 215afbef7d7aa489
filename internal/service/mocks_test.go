package service

import (
	"context"
	"os"
	"testing"
	"time"

	"doc-quiz/internal/config"
	"doc-quiz/internal/domain"
	"doc-quiz/internal/logger"
	"doc-quiz/internal/presenter"

	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(config.LoggerConfig{Level: "error"}); err != nil {
		panic("Failed to initialize logger for tests: " + err.Error())
	}
	exitVal := m.Run()
	_ = logger.Sync()
	os.Exit(exitVal)
}

// --- MockExtractor ---
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, doc domain.Document) (string, error) {
	args := m.Called(ctx, doc)
	return args.String(0), args.Error(1)
}

func (m *MockExtractor) SupportedMediaTypes() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

// --- MockGenerator ---
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// manualTicks hands out a tick channel the test drives explicitly.
type manualTicks struct {
	c chan time.Time
}

func newManualTicks() *manualTicks {
	return &manualTicks{c: make(chan time.Time)}
}

func (m *manualTicks) fn() presenter.TickerFunc {
	return func() (<-chan time.Time, func()) {
		return m.c, func() {}
	}
}

// stalledTicks never ticks, so a reveal only finishes through SkipToEnd.
func stalledTicks() (<-chan time.Time, func()) {
	return nil, func() {}
}
