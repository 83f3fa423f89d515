package router

import (
	tg "github.com/m3rciful/vidbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// Flow is a conversation that may claim free text while it is in progress.
type Flow interface {
	InProgress(userID int64) bool
	HandleText(c tele.Context) error
}

// MessageOptions wires media handlers and the text fallback chain.
type MessageOptions struct {
	Flow        Flow
	Video       tele.HandlerFunc
	Document    tele.HandlerFunc
	UnknownText tele.HandlerFunc
	// UnknownMedia handles photos, audio and other media nobody asked for.
	UnknownMedia tele.HandlerFunc
}

// MessageRoutes builds handlers for text and media updates. Text goes to the
// active flow first, then registered command aliases, then UnknownText.
func MessageRoutes(reg *tg.Registry, opts MessageOptions) []tg.Route {
	text := func(c tele.Context) error {
		if opts.Flow != nil && c.Sender() != nil && opts.Flow.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "flow.text", func() error {
				return opts.Flow.HandleText(c)
			})
		}
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return handleWithSummary(c, normalizeHandlerName(key), func() error {
					return cmd.Handler(c)
				})
			}
		}
		return handleWithSummary(c, "unknown_text", func() error {
			if opts.UnknownText != nil {
				return opts.UnknownText(c)
			}
			return ErrSkipped
		})
	}

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: text}}
	if opts.Video != nil {
		routes = append(routes, tg.Route{Endpoint: tele.OnVideo, Handler: summarized("media.video", opts.Video)})
	}
	if opts.Document != nil {
		routes = append(routes, tg.Route{Endpoint: tele.OnDocument, Handler: summarized("media.document", opts.Document)})
	}
	if opts.UnknownMedia != nil {
		routes = append(routes, tg.Route{Endpoint: tele.OnMedia, Handler: summarized("media.other", opts.UnknownMedia)})
	}
	return routes
}
