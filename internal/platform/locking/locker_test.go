package locking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgera/ledgera_backend/internal/platform/locking"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "stock:move:t1:loc1:item1", locking.Key("stock", "move", "t1", "loc1", "item1"))
	assert.Equal(t, "document:void:t1:doc1", locking.Key("document", "void", "t1", "doc1"))
	assert.Equal(t, "a:b:t1", locking.Key("a", "b", "t1"))
}

func TestNoopLockerRunsFn(t *testing.T) {
	l := locking.NewNoopLocker()
	ran := false
	err := l.WithLock(context.Background(), "k", time.Second, func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestNoopLockerPropagatesFnError(t *testing.T) {
	l := locking.NewNoopLocker()
	want := assert.AnError
	err := l.WithLocks(context.Background(), []string{"b", "a"}, time.Second, func(ctx context.Context) error {
		return want
	})
	assert.ErrorIs(t, err, want)
}

func TestNoopLockerWithLocksEmptyKeys(t *testing.T) {
	l := locking.NewNoopLocker()
	ran := false
	err := l.WithLocks(context.Background(), nil, time.Second, func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}
