package router

import (
	tg "github.com/m3rciful/superbot/core/telegram"
	"github.com/m3rciful/superbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// RouteKey is the tele.Context key a handler sets to name the route that
// served the update. It is reported in the handler summary.
const RouteKey = "route"

// MessageOptions controls which inbound message kinds reach the handler.
type MessageOptions struct {
	// Handler receives every routed message. Nil disables the routes.
	Handler tele.HandlerFunc
	// Photos also routes photo messages (with or without caption).
	Photos bool
}

// MessageRoutes binds text (and optionally photo) updates to a single handler.
// Each update is wrapped with panic recovery and receipt logging.
func MessageRoutes(opts MessageOptions) []tg.Route {
	if opts.Handler == nil {
		return nil
	}
	handler := func(c tele.Context) error {
		return summarize(c, "message", opts.Handler)
	}
	wrapped := middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler))

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: wrapped}}
	if opts.Photos {
		routes = append(routes, tg.Route{Endpoint: tele.OnPhoto, Handler: wrapped})
	}
	return routes
}
