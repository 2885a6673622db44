package transport

import (
	tghelpers "github.com/m3rciful/superbot/core/telegram/helpers"
	"github.com/m3rciful/superbot/core/telegram/router"
	"github.com/m3rciful/superbot/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

// Handler feeds every routed message to engine and records the route that
// served it for the handler summary.
func Handler(engine *conversation.Engine) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		d, err := engine.Handle(ctx, NewMessage(c))
		if d.Route != "" {
			c.Set(router.RouteKey, d.Route)
		}
		return err
	}
}
