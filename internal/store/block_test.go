// internal/store/block_test.go
package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repohub/internal/model"
)

func TestBlockState(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no reason clears the timestamp", func(t *testing.T) {
		reason, blockedAt := blockState(nil, now)
		assert.Nil(t, reason)
		assert.Nil(t, blockedAt)
	})

	t.Run("a reason derives the timestamp", func(t *testing.T) {
		spam := model.BlockReasonSpam
		reason, blockedAt := blockState(&spam, now)
		require.NotNil(t, reason)
		require.NotNil(t, blockedAt)
		assert.Equal(t, "SPAM", *reason)
		assert.Equal(t, now, *blockedAt)
	})
}
