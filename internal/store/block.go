// internal/store/block.go
package store

import (
	"time"

	"repohub/internal/model"
)

// blockState derives the blocked timestamp from a moderation reason. The
// timestamp is a pure function of the reason: no reason means not blocked,
// any reason means blocked as of now. Every mutating write that touches
// block_reason goes through this; blocked_at is never written directly.
func blockState(reason *model.BlockReason, now time.Time) (*string, *time.Time) {
	if reason == nil {
		return nil, nil
	}
	s := string(*reason)
	return &s, &now
}
