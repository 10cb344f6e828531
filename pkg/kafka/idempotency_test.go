package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMemoryIdempotencyStore_AddAndContains(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryIdempotencyStore(time.Minute)

	ok, err := s.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Add(ctx, "evt-1"))
	ok, _ = s.Contains(ctx, "evt-1")
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryIdempotencyStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := NewMemoryIdempotencyStore(time.Minute)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Add(ctx, "old"))
	now = now.Add(2 * time.Minute)

	ok, _ := s.Contains(ctx, "old")
	assert.False(t, ok)

	require.NoError(t, s.Add(ctx, "a"))
	now = now.Add(2 * time.Minute)
	require.NoError(t, s.Add(ctx, "b"))
	assert.Equal(t, 1, s.Len(), "expired entries are swept on Add")
}

type mockStore struct{ mock.Mock }

func (m *mockStore) Contains(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Add(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func TestIdempotentHandler_SkipsDuplicates(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Hour)
	calls := 0
	h := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		return nil
	}, discardLogger())

	e := &Event{EventID: "evt-1"}
	require.NoError(t, h(context.Background(), e))
	require.NoError(t, h(context.Background(), e))
	assert.Equal(t, 1, calls)
}

func TestIdempotentHandler_FailureIsNotRecorded(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Hour)
	h := IdempotentHandler(store, func(context.Context, *Event) error {
		return errors.New("db down")
	}, discardLogger())

	assert.Error(t, h(context.Background(), &Event{EventID: "evt-1"}))
	assert.Equal(t, 0, store.Len())
}

func TestIdempotentHandler_EmptyIDPassesThrough(t *testing.T) {
	store := new(mockStore)
	calls := 0
	h := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		return nil
	}, discardLogger())

	require.NoError(t, h(context.Background(), &Event{}))
	assert.Equal(t, 1, calls)
	store.AssertNotCalled(t, "Contains", mock.Anything, mock.Anything)
}

func TestIdempotentHandler_StoreErrorProcessesAnyway(t *testing.T) {
	store := new(mockStore)
	store.On("Contains", mock.Anything, "evt-1").Return(false, errors.New("unreachable"))
	store.On("Add", mock.Anything, "evt-1").Return(nil)

	calls := 0
	h := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		return nil
	}, discardLogger())

	require.NoError(t, h(context.Background(), &Event{EventID: "evt-1"}))
	assert.Equal(t, 1, calls)
	store.AssertExpectations(t)
}
