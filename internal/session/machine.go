package session

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/m3rciful/vidbot/core/logger"
	"github.com/m3rciful/vidbot/internal/naming"
	"github.com/m3rciful/vidbot/internal/staging"
)

// DefaultMaxFileSize is the largest file the Bot API will hand out, 2 GiB.
const DefaultMaxFileSize int64 = 2 << 30

// Options configures a Machine.
type Options struct {
	Store       *Store
	MaxFileSize int64
	// RejectWhileActive refuses new media while a session exists instead of
	// replacing it.
	RejectWhileActive bool
	Transferer        Transferer
	Clock             func() time.Time
}

// Machine applies inbound events to the owner's session.
type Machine struct {
	store    *Store
	maxSize  int64
	strict   bool
	transfer Transferer
	now      func() time.Time
}

// NewMachine builds a Machine, filling defaults for zero options.
func NewMachine(opts Options) *Machine {
	m := &Machine{
		store:    opts.Store,
		maxSize:  opts.MaxFileSize,
		strict:   opts.RejectWhileActive,
		transfer: opts.Transferer,
		now:      opts.Clock,
	}
	if m.store == nil {
		m.store = NewStore()
	}
	if m.maxSize <= 0 {
		m.maxSize = DefaultMaxFileSize
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// SetTransferer wires the transfer step after construction.
func (m *Machine) SetTransferer(t Transferer) {
	m.transfer = t
}

// Store exposes the backing store.
func (m *Machine) Store() *Store {
	return m.store
}

// MaxFileSize returns the enforced size limit.
func (m *Machine) MaxFileSize() int64 {
	return m.maxSize
}

// MediaArrived validates media and opens a session awaiting a name. Any
// existing session is replaced unless RejectWhileActive is set. Rejected
// media never touches the store.
func (m *Machine) MediaArrived(ctx context.Context, owner int64, media Media) (Session, error) {
	if err := m.validate(media); err != nil {
		logger.Info(ctx, logger.CompSession, "media.rejected",
			slog.String("status", "skip"),
			slog.String("file_name", logger.SanitizeLimit(media.FileName, 128)),
			slog.String("mime", media.MIME),
			slog.Int64("size", media.Size),
			slog.String("cause", err.Error()),
		)
		return Session{}, err
	}
	if m.strict {
		if cur, ok := m.store.Get(owner); ok {
			logger.Info(logger.WithSession(ctx, cur.ID), logger.CompSession, "media.rejected",
				slog.String("status", "skip"),
				slog.String("stage", string(cur.Stage)),
				slog.String("cause", ErrSessionActive.Error()),
			)
			return Session{}, ErrSessionActive
		}
	}

	caption := media.Caption
	if strings.TrimSpace(caption) == "" {
		caption = NoCaption
	}
	sess := Session{
		ID:              uuid.NewString(),
		OwnerID:         owner,
		Media:           media,
		PreviousCaption: caption,
		Stage:           StageAwaitingName,
		CreatedAt:       m.now(),
	}
	prev, replaced := m.store.Put(sess)

	attrs := []slog.Attr{
		slog.String("stage", string(sess.Stage)),
		slog.String("file_name", logger.SanitizeLimit(media.FileName, 128)),
		slog.Int64("size", media.Size),
	}
	if replaced {
		attrs = append(attrs,
			slog.String("replaced_id", prev.ID),
			slog.String("replaced_stage", string(prev.Stage)),
		)
	}
	logger.Info(logger.WithSession(ctx, sess.ID), logger.CompSession, "session.created", attrs...)
	return sess, nil
}

func (m *Machine) validate(media Media) error {
	if media.Kind == KindDocument && !isVideo(media) {
		return ErrNotVideo
	}
	if media.Size > m.maxSize {
		return &SizeError{Limit: m.maxSize, Size: media.Size}
	}
	return nil
}

// isVideo trusts a declared MIME type and falls back to the file extension
// when the sender declared nothing useful.
func isVideo(media Media) bool {
	mime := strings.ToLower(strings.TrimSpace(media.MIME))
	if mime != "" && mime != "application/octet-stream" {
		return strings.HasPrefix(mime, "video/")
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(media.FileName)), ".")
	if ext == "" {
		return false
	}
	return filetype.GetType(ext).MIME.Type == "video"
}

// TextStatus says what SubmitName did with the text.
type TextStatus int

const (
	// TextIgnoredIdle means there was no session to name.
	TextIgnoredIdle TextStatus = iota
	// TextIgnoredBusy means the session is already being transferred.
	TextIgnoredBusy
	// TextInvalidName means the text held nothing usable; the session still waits.
	TextInvalidName
	// TextAccepted means a transfer ran; see NameResult.Transfer.
	TextAccepted
)

// NameResult reports the effect of SubmitName.
type NameResult struct {
	Status   TextStatus
	Session  Session
	Name     string
	Transfer TransferResult
}

// ValidateName sanitizes text into a base file name.
func ValidateName(text string, now time.Time) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrInvalidName
	}
	return naming.Sanitize(text, now), nil
}

// SubmitName names the waiting media and runs the transfer to completion.
// The session is gone from the store when it returns with TextAccepted.
func (m *Machine) SubmitName(ctx context.Context, owner int64, text string, reply Reply) NameResult {
	sess, ok := m.store.Get(owner)
	if !ok {
		return NameResult{Status: TextIgnoredIdle}
	}
	ctx = logger.WithSession(ctx, sess.ID)
	if sess.Stage != StageAwaitingName {
		logger.Debug(ctx, logger.CompSession, "text.ignored", slog.String("stage", string(sess.Stage)))
		return NameResult{Status: TextIgnoredBusy, Session: sess}
	}
	name, err := ValidateName(text, m.now())
	if err != nil {
		return NameResult{Status: TextInvalidName, Session: sess}
	}
	if m.transfer == nil {
		return NameResult{Status: TextAccepted, Session: sess, Name: name, Transfer: TransferResult{
			Outcome: OutcomeFailed,
			Err:     errors.New("session: no transferer configured"),
		}}
	}

	tctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if !m.store.Begin(owner, sess.ID, cancel) {
		logger.Debug(ctx, logger.CompSession, "text.ignored", slog.String("cause", "session changed"))
		return NameResult{Status: TextIgnoredBusy, Session: sess}
	}
	sess.Stage = StageProcessing
	logger.Info(ctx, logger.CompSession, "session.processing",
		slog.String("stage", string(sess.Stage)),
		slog.String("file_name", name),
	)

	res := m.transfer.Transfer(tctx, sess, name, reply)
	m.store.CompareAndRemove(owner, sess.ID)

	logger.Info(ctx, logger.CompSession, "session.closed",
		slog.String("outcome", string(res.Outcome)),
		slog.Duration("duration", logger.Took(sess.CreatedAt)),
	)
	return NameResult{Status: TextAccepted, Session: sess, Name: name, Transfer: res}
}

// Cancel ends the owner's session in any stage: an in-flight transfer is
// aborted and a staged file is deleted. It reports false when idle.
func (m *Machine) Cancel(ctx context.Context, owner int64) (Session, bool) {
	sess, ok := m.store.Remove(owner)
	if !ok {
		return Session{}, false
	}
	ctx = logger.WithSession(ctx, sess.ID)
	if err := staging.Remove(sess.LocalPath); err != nil {
		logger.Warn(ctx, logger.CompSession, "staging.remove", slog.String("status", "fail"), slog.Any("err", err))
	}
	logger.Info(ctx, logger.CompSession, "session.cancelled", slog.String("stage", string(sess.Stage)))
	return sess, true
}

// Caption returns the previous caption of the owner's session.
func (m *Machine) Caption(owner int64) (string, bool) {
	sess, ok := m.store.Get(owner)
	if !ok {
		return "", false
	}
	return sess.PreviousCaption, true
}

// Stage returns the owner's current stage.
func (m *Machine) Stage(owner int64) Stage {
	sess, ok := m.store.Get(owner)
	if !ok {
		return StageIdle
	}
	return sess.Stage
}
