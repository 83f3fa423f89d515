package middleware

import (
	"log/slog"

	"github.com/m3rciful/vidbot/core/logger"
	tghelpers "github.com/m3rciful/vidbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Guard authorizes exactly one Telegram user. A zero OwnerID authorizes nobody.
type Guard struct {
	OwnerID int64
}

// IsAuthorized reports whether userID is the configured owner.
func (g Guard) IsAuthorized(userID int64) bool {
	return g.OwnerID != 0 && userID == g.OwnerID
}

// OwnerOptions defines how unauthorized updates are handled.
type OwnerOptions struct {
	Guard    Guard
	OnReject tele.HandlerFunc
}

// OwnerOnly drops every update whose sender is not the owner before any
// handler sees it. OnReject runs for rejected updates that have a sender.
func OwnerOnly(opts OwnerOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user != nil && opts.Guard.IsAuthorized(user.ID) {
				return next(c)
			}
			ctx := tghelpers.BuildContext(c)
			attrs := []slog.Attr{slog.String("status", "denied")}
			if user != nil {
				attrs = append(attrs,
					slog.Int64("user_id", user.ID),
					slog.String("username", logger.SanitizeLimit(user.Username, 64)),
				)
			}
			logger.Warn(ctx, logger.CompTG, "access.denied", attrs...)
			if user == nil || opts.OnReject == nil {
				return nil
			}
			return opts.OnReject(c)
		}
	}
}
