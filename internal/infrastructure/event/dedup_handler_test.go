package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func TestDedupHandler_SkipsRepeatedEvent(t *testing.T) {
	store := cache.NewMemoryMarkerStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	inner := &recordingHandler{types: []string{"Recorded"}}
	h := NewDedupHandler(inner, store, shared.DefaultIdempotencyConfig(), zap.NewNop())

	e := newTestEvent("Recorded")
	require.NoError(t, h.Handle(context.Background(), e))
	require.NoError(t, h.Handle(context.Background(), e))
	require.NoError(t, h.Handle(context.Background(), newTestEvent("Recorded")))

	assert.Equal(t, 2, inner.count())
	assert.Equal(t, []string{"Recorded"}, h.EventTypes())

	processed, err := store.IsProcessed(context.Background(), "event:"+e.EventID().String())
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestDedupHandler_StoreErrorStillHandles(t *testing.T) {
	store := new(MockIdempotencyStore)
	store.On("MarkProcessed", mock.Anything, mock.Anything, 72*time.Hour).Return(false, errors.New("redis down"))
	inner := &recordingHandler{}
	h := NewDedupHandler(inner, store, shared.DefaultIdempotencyConfig(), nil)

	require.NoError(t, h.Handle(context.Background(), newTestEvent("Recorded")))
	assert.Equal(t, 1, inner.count())
	store.AssertExpectations(t)
}

func TestDedupHandler_Disabled(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := &recordingHandler{err: errors.New("handler failed")}
	h := NewDedupHandler(inner, store, shared.IdempotencyConfig{Enabled: false}, nil)

	e := newTestEvent("Recorded")
	assert.EqualError(t, h.Handle(context.Background(), e), "handler failed")
	assert.EqualError(t, h.Handle(context.Background(), e), "handler failed")
	assert.Equal(t, 2, inner.count())
	store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
}
