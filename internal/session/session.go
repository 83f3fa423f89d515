// Package session tracks the operator's rename workflow: which media is
// waiting for a name, which one is being transferred, and nothing else.
package session

import (
	"context"
	"time"
)

// Stage is a position in the rename workflow. An owner without a stored
// session is StageIdle.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageAwaitingName Stage = "awaiting_name"
	StageProcessing   Stage = "processing"
)

// Kind tells how the media reached the bot.
type Kind string

const (
	KindVideo    Kind = "video"
	KindDocument Kind = "document"
)

// NoCaption stands in for a missing caption on the inbound media.
const NoCaption = "No previous caption"

// Media is everything needed to fetch the inbound file again later.
type Media struct {
	FileID    string
	UniqueID  string
	FileName  string
	MIME      string
	Size      int64
	Kind      Kind
	Caption   string
	ChatID    int64
	MessageID int
}

// Session is one in-progress rename. Values handed out by Store are copies.
type Session struct {
	ID              string
	OwnerID         int64
	Media           Media
	PreviousCaption string
	// LocalPath is set once a download has been issued. Whoever ends the
	// session deletes the file.
	LocalPath string
	Stage     Stage
	CreatedAt time.Time
}

// Reply addresses the message that supplied the new name.
type Reply struct {
	ChatID    int64
	MessageID int
}

// Outcome is the terminal result of one transfer attempt.
type Outcome string

const (
	OutcomeCompleted   Outcome = "completed"
	OutcomeFailed      Outcome = "failed"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeCancelled   Outcome = "cancelled"
)

// TransferResult reports how a transfer ended.
type TransferResult struct {
	Outcome    Outcome
	FileName   string
	Caption    string
	RetryAfter time.Duration
	Err        error
}

// Transferer moves a session's media to its new name. Implementations own
// cleanup of the staged file on every path.
type Transferer interface {
	Transfer(ctx context.Context, s Session, name string, reply Reply) TransferResult
}
