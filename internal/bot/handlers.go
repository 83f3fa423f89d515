package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/vidbot/core/logger"
	tghelpers "github.com/m3rciful/vidbot/core/telegram/helpers"
	"github.com/m3rciful/vidbot/core/telegram/keyboard"
	"github.com/m3rciful/vidbot/core/telegram/router"
	"github.com/m3rciful/vidbot/core/telegram/sender"
	"github.com/m3rciful/vidbot/internal/journal"
	"github.com/m3rciful/vidbot/internal/session"

	tele "gopkg.in/telebot.v4"
)

// Handlers turns owner updates into session transitions and replies.
// Authorization has already happened in the middleware chain, except for
// Denied which is the rejection hook.
type Handlers struct {
	machine *session.Machine
	journal journal.Journal
	caption string
}

// NewHandlers builds Handlers around a session machine.
func NewHandlers(m *session.Machine, j journal.Journal, caption string) *Handlers {
	return &Handlers{machine: m, journal: j, caption: caption}
}

func (h *Handlers) record(ctx context.Context, userID int64, action journal.Action, details string) {
	journal.Write(ctx, h.journal, userID, action, details)
}

func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}

// Start greets the owner.
func (h *Handlers) Start(c tele.Context) error {
	return tghelpers.ReplyHTML(c, textWelcome)
}

// Help explains the workflow.
func (h *Handlers) Help(c tele.Context) error {
	return tghelpers.ReplyHTML(c, helpText(h.caption))
}

// Cancel drops the owner's session in any stage.
func (h *Handlers) Cancel(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sess, ok := h.machine.Cancel(ctx, senderID(c))
	if !ok {
		return tghelpers.ReplyHTML(c, textNothingToDo)
	}
	h.record(ctx, sess.OwnerID, journal.ActionCancelled, string(sess.Stage))
	return tghelpers.ReplyHTML(c, textCancelled)
}

// History lists the owner's recent journal entries.
func (h *Handlers) History(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if h.journal == nil {
		return tghelpers.ReplyHTML(c, textNoHistory)
	}
	entries, err := h.journal.Recent(ctx, senderID(c), historyLimit)
	if err != nil {
		logger.Error(ctx, logger.CompJournal, "journal.recent", slog.String("status", "fail"), slog.Any("err", err))
		return tghelpers.ReplyHTML(c, textHistoryErr)
	}
	return tghelpers.ReplyHTML(c, historyText(entries))
}

// Video handles an inbound video message.
func (h *Handlers) Video(c tele.Context) error {
	v := c.Message().Video
	if v == nil {
		return router.ErrSkipped
	}
	return h.media(c, session.Media{
		FileID:   v.FileID,
		UniqueID: v.UniqueID,
		FileName: v.FileName,
		MIME:     v.MIME,
		Size:     v.FileSize,
		Kind:     session.KindVideo,
	})
}

// Document handles an inbound file; only video documents are accepted.
func (h *Handlers) Document(c tele.Context) error {
	d := c.Message().Document
	if d == nil {
		return router.ErrSkipped
	}
	return h.media(c, session.Media{
		FileID:   d.FileID,
		UniqueID: d.UniqueID,
		FileName: d.FileName,
		MIME:     d.MIME,
		Size:     d.FileSize,
		Kind:     session.KindDocument,
	})
}

// OtherMedia ignores photos, audio and the like from the owner.
func (h *Handlers) OtherMedia(tele.Context) error {
	return router.ErrSkipped
}

func (h *Handlers) media(c tele.Context, media session.Media) error {
	ctx := tghelpers.BuildContext(c)
	msg := c.Message()
	media.Caption = msg.Caption
	media.MessageID = msg.ID
	if chat := c.Chat(); chat != nil {
		media.ChatID = chat.ID
	}

	sess, err := h.machine.MediaArrived(ctx, senderID(c), media)
	var sizeErr *session.SizeError
	switch {
	case errors.As(err, &sizeErr):
		return tghelpers.ReplyHTML(c, tooLargeText(sizeErr.Limit, sizeErr.Size))
	case errors.Is(err, session.ErrNotVideo):
		return tghelpers.ReplyHTML(c, textInvalidType)
	case errors.Is(err, session.ErrSessionActive):
		return tghelpers.ReplyHTML(c, textBusy)
	case err != nil:
		return err
	}

	h.record(ctx, sess.OwnerID, journal.ActionReceived,
		fmt.Sprintf("%s - %d bytes", media.Kind, media.Size))
	markup := keyboard.InlineButtons(keyboard.InlineBtn{Text: copyCaptionLabel, Unique: copyCaptionUnique})
	return tghelpers.ReplyHTML(c, promptText(media.Size, sess.PreviousCaption), markup)
}

// InProgress reports whether the owner has a session that claims free text.
func (h *Handlers) InProgress(userID int64) bool {
	return h.machine.Stage(userID) != session.StageIdle
}

// HandleText treats text as the new name of the waiting media. It blocks
// until the transfer finishes.
func (h *Handlers) HandleText(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	owner := senderID(c)
	reply := session.Reply{MessageID: c.Message().ID}
	if chat := c.Chat(); chat != nil {
		reply.ChatID = chat.ID
	}

	res := h.machine.SubmitName(ctx, owner, c.Text(), reply)
	switch res.Status {
	case session.TextIgnoredIdle, session.TextIgnoredBusy:
		return router.ErrSkipped
	case session.TextInvalidName:
		return tghelpers.ReplyHTML(c, textInvalidName)
	}

	tr := res.Transfer
	switch tr.Outcome {
	case session.OutcomeCompleted:
		h.record(ctx, owner, journal.ActionProcessed, tr.FileName)
	case session.OutcomeRateLimited:
		h.record(ctx, owner, journal.ActionRateLimited,
			fmt.Sprintf("%s - retry after %s", tr.FileName, tr.RetryAfter.Round(time.Second)))
	case session.OutcomeFailed:
		h.record(ctx, owner, journal.ActionFailed,
			fmt.Sprintf("%s - %s", tr.FileName, sender.Redact(tr.Err)))
	}
	return nil
}

// CopyCaption answers the prompt button with the stored caption.
func (h *Handlers) CopyCaption(c tele.Context) error {
	caption, ok := h.machine.Caption(senderID(c))
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: textNoSession, ShowAlert: true})
	}
	if err := c.Respond(&tele.CallbackResponse{Text: captionToast(caption)}); err != nil {
		return err
	}
	return tghelpers.ReplyHTML(c, oldCaptionText(caption))
}

// Denied answers anyone but the owner. It never touches sessions.
func (h *Handlers) Denied(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	details := "message"
	if c.Callback() != nil {
		details = "callback"
	}
	h.record(ctx, senderID(c), journal.ActionDenied, details)

	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: textDeniedAlert, ShowAlert: true})
	}
	if msg := c.Message(); msg != nil && strings.HasPrefix(msg.Text, "/start") {
		return tghelpers.ReplyHTML(c, textDenied)
	}
	return tghelpers.ReplyHTML(c, textDeniedContact)
}
