package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopStore(t *testing.T) {
	ctx := context.Background()
	store := NoopStore{}

	require.NoError(t, store.Set(ctx, "k", "v"))

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found, "noop store never retains values")
}
