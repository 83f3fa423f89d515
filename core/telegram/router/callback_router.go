package router

import (
	"log/slog"

	tg "github.com/m3rciful/vidbot/core/telegram"
	"github.com/m3rciful/vidbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute dispatches inline button presses through the registry.
// Handlers are responsible for answering the callback.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key := callbacks.CallbackKey(c)
		name := "callback." + normalizeHandlerName(key)

		h, ok := reg.GetCallback(key)
		if !ok || h == nil {
			h = reg.CallbackNotFound()
			return handleWithSummary(c, name, func() error {
				if h == nil {
					return c.Respond()
				}
				return h(c)
			}, slog.String("cb_key", key), slog.String("cause", "not_found"))
		}
		return handleWithSummary(c, name, func() error { return h(c) }, slog.String("cb_key", key))
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
