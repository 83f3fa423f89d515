// Package journal records what the bot did for the operator. Entries are an
// audit trail only; sessions are never restored from them.
package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/vidbot/core/logger"
)

// Action names a journaled event.
type Action string

const (
	ActionReceived    Action = "received"
	ActionProcessed   Action = "processed"
	ActionFailed      Action = "failed"
	ActionRateLimited Action = "rate_limited"
	ActionCancelled   Action = "cancelled"
	ActionDenied      Action = "denied"
)

// Entry is one journal row.
type Entry struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	Action    Action    `db:"action"`
	Details   string    `db:"details"`
	CreatedAt time.Time `db:"created_at"`
}

// Journal stores entries and reads back the newest ones.
type Journal interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, userID int64, limit int) ([]Entry, error)
}

func prepare(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return e
}

// Write records e and logs the entry. A journal failure is logged and
// otherwise ignored so it never blocks the workflow.
func Write(ctx context.Context, j Journal, userID int64, action Action, details string) {
	level := slog.LevelInfo
	if action == ActionDenied || action == ActionFailed {
		level = slog.LevelWarn
	}
	logger.Event(ctx, logger.CompJournal, level, "activity",
		slog.String("action", string(action)),
		slog.Int64("user_id", userID),
		slog.String("details", logger.SanitizeLimit(details, 200)),
	)
	if j == nil {
		return
	}
	if err := j.Record(ctx, Entry{UserID: userID, Action: action, Details: details}); err != nil {
		logger.Error(ctx, logger.CompJournal, "journal.record",
			slog.String("status", "fail"),
			slog.Any("err", err),
		)
	}
}
