package router

import (
	"log/slog"
	"maps"
	"slices"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/leadgenbot/core/logger"
	tg "github.com/m3rciful/leadgenbot/core/telegram"
)

// CommandRoutes prepares command handlers wrapped with shared middleware.
// Aliases get their own endpoint bound to the same handler.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for _, cmd := range slices.Sorted(maps.Keys(cmds)) {
		def := cmds[cmd]
		h := commandHandler(cmd, def.Handler)
		routes = append(routes, tg.Route{Endpoint: cmd, Handler: h})
		for _, alias := range def.Aliases {
			if alias == "" {
				continue
			}
			if alias[0] != '/' {
				alias = "/" + alias
			}
			routes = append(routes, tg.Route{Endpoint: alias, Handler: h})
		}
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(cmds)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)

	return routes
}

func commandHandler(cmd string, next tele.HandlerFunc) tele.HandlerFunc {
	name := "cmd." + normalizeHandlerName(cmd)
	return guard(func(c tele.Context) error {
		return newSummary(name).run(c, next)
	})
}
