package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/vidbot/core/logger"
	"github.com/m3rciful/vidbot/internal/session"
	"github.com/m3rciful/vidbot/internal/transfer"

	tele "gopkg.in/telebot.v4"
)

// statusNotifier reports transfer progress in a single message that is sent
// once and edited afterwards.
type statusNotifier struct {
	transport *Transport
}

func (n statusNotifier) Begin(ctx context.Context, reply session.Reply) transfer.Status {
	return &statusMessage{ctx: ctx, transport: n.transport, reply: reply}
}

type statusMessage struct {
	ctx       context.Context
	transport *Transport
	reply     session.Reply
	msg       *tele.Message
}

func (s *statusMessage) Downloading()             { s.show("downloading", textDownloading) }
func (s *statusMessage) Uploading(caption string) { s.show("uploading", uploadingText(caption)) }
func (s *statusMessage) Failed()                  { s.show("failed", textFailed) }
func (s *statusMessage) Cancelled()               { s.show("cancelled", textStopped) }

func (s *statusMessage) Done(fileName, caption string) {
	s.show("done", doneText(fileName, caption))
}

func (s *statusMessage) RateLimited(wait time.Duration) {
	s.show("rate_limited", rateLimitedText(wait))
}

func (s *statusMessage) show(stage, text string) {
	bot, _, err := s.transport.bound()
	if err != nil {
		return
	}
	// Status updates must land even after the transfer context is cancelled.
	ctx := context.WithoutCancel(s.ctx)
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}

	if s.msg != nil {
		if _, err = bot.Edit(s.msg, text, opts); err == nil || isNotModified(err) {
			return
		}
		logger.Debug(ctx, logger.CompTGSender, "status.edit",
			slog.String("stage", stage),
			slog.String("status", "fail"),
			slog.Any("err", err),
		)
	}

	chat := &tele.Chat{ID: s.reply.ChatID}
	if s.reply.MessageID != 0 {
		opts.ReplyTo = &tele.Message{ID: s.reply.MessageID, Chat: chat}
	}
	msg, err := bot.Send(chat, text, opts)
	if err != nil {
		logger.Warn(ctx, logger.CompTGSender, "status.send",
			slog.String("stage", stage),
			slog.String("status", "fail"),
			slog.Any("err", err),
		)
		return
	}
	s.msg = msg
}

func isNotModified(err error) bool {
	var apiErr *tele.Error
	return errors.As(err, &apiErr) && apiErr.Code == 400 &&
		strings.Contains(strings.ToLower(apiErr.Description), "message is not modified")
}
