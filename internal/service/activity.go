package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mrahman/messbook/internal/models"
	"github.com/mrahman/messbook/internal/storage"
)

// logActivity appends an audit row. Best effort: a failed audit write
// never fails the operation it describes.
func logActivity(ctx context.Context, store storage.Store, actor Actor, action, details string) {
	entry := &models.ActivityEntry{
		ID:        uuid.New().String(),
		MessID:    actor.MessID,
		ActorID:   actor.MemberID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now().Unix(),
	}
	if err := store.AppendActivity(ctx, entry); err != nil {
		slog.Warn("failed to append activity", "action", action, "error", err)
	}
}
