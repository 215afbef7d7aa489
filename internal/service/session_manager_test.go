package service

import (
	"context"
	"testing"
	"time"

	"doc-quiz/internal/domain"
	"doc-quiz/internal/extractor"
	"doc-quiz/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_Lifecycle(t *testing.T) {
	mgr := NewSessionManager(NewQuizService(extractor.New(), new(MockGenerator)), stalledTicks, time.Hour)

	a := mgr.Create()
	b := mgr.Create()
	assert.True(t, util.IsULID(a.ID()))
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, mgr.Len())

	got, err := mgr.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)

	require.NoError(t, mgr.Delete(a.ID()))
	_, err = mgr.Get(a.ID())
	assert.True(t, domain.IsCode(err, domain.CodeSessionNotFound))
	assert.True(t, domain.IsCode(mgr.Delete(a.ID()), domain.CodeSessionNotFound))
	assert.Equal(t, 1, mgr.Len())
}

func TestSessionManager_SessionsAreIndependent(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", context.Background(), "Generate a quiz for the following text:\n\nParis is the capital of France..").
		Return(parisReply, nil)
	mgr := NewSessionManager(NewQuizService(extractor.New(), gen), stalledTicks, time.Hour)

	a := mgr.Create()
	b := mgr.Create()
	_, err := a.SubmitDocument(context.Background(), textDoc("Paris is the capital of France."))
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseQuizReady, a.Snapshot().Phase)
	assert.Equal(t, domain.PhaseIdle, b.Snapshot().Phase)
	assert.Empty(t, b.Snapshot().Transcript)
}

func TestSessionManager_Expire(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	mgr := NewSessionManager(NewQuizService(extractor.New(), new(MockGenerator)), stalledTicks, 30*time.Minute)
	mgr.now = func() time.Time { return now }

	stale := mgr.Create()
	now = now.Add(20 * time.Minute)
	fresh := mgr.Create()
	now = now.Add(15 * time.Minute)

	assert.Equal(t, 1, mgr.Expire())
	_, err := mgr.Get(stale.ID())
	assert.Error(t, err)
	_, err = mgr.Get(fresh.ID())
	assert.NoError(t, err)
}

func TestSessionManager_ExpireDisabled(t *testing.T) {
	mgr := NewSessionManager(NewQuizService(extractor.New(), new(MockGenerator)), stalledTicks, 0)
	mgr.Create()
	assert.Equal(t, 0, mgr.Expire())
	assert.Equal(t, 1, mgr.Len())
}

func TestSessionManager_CloseAll(t *testing.T) {
	mgr := NewSessionManager(NewQuizService(extractor.New(), new(MockGenerator)), stalledTicks, time.Hour)
	conv := mgr.Create()
	chunks, _ := conv.Subscribe()

	mgr.CloseAll()
	assert.Equal(t, 0, mgr.Len())
	_, open := <-chunks
	assert.False(t, open)
}
