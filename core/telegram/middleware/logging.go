package middleware

import (
	"log/slog"

	"github.com/m3rciful/vidbot/core/logger"
	"github.com/m3rciful/vidbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/vidbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware stores the correlated request context on the update and
// writes one sampled debug line describing what arrived.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if !logger.ShouldSampleDebug() {
			return next(c)
		}

		attrs := []slog.Attr{slog.String("kind", UpdateKind(c.Update()))}
		if chat := c.Chat(); chat != nil {
			attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
		}
		if user := c.Sender(); user != nil && user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		switch {
		case c.Callback() != nil:
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(callbacks.CallbackKey(c), 128)))
		case c.Message() != nil:
			attrs = append(attrs, mediaAttrs(c.Message())...)
			if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
			}
		}
		logger.Debug(ctx, logger.CompTG, "update.received", attrs...)
		return next(c)
	}
}

func mediaAttrs(m *tele.Message) []slog.Attr {
	switch {
	case m.Video != nil:
		return []slog.Attr{
			slog.String("media", "video"),
			slog.String("file_name", logger.SanitizeLimit(m.Video.FileName, 128)),
			slog.String("mime", m.Video.MIME),
			slog.Int64("size", m.Video.FileSize),
		}
	case m.Document != nil:
		return []slog.Attr{
			slog.String("media", "document"),
			slog.String("file_name", logger.SanitizeLimit(m.Document.FileName, 128)),
			slog.String("mime", m.Document.MIME),
			slog.Int64("size", m.Document.FileSize),
		}
	}
	return nil
}
