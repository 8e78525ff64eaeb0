package telegram

import (
	"github.com/m3rciful/leadgenbot/core/telegram/middleware"
)

// DefaultMiddlewares builds the shared middleware chain for bots.
// The recover layer is outermost so errors from any later layer end in the apology.
func DefaultMiddlewares(apology string, extra ...Middleware) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.Recover(apology)},
		{Name: "trace", Use: middleware.Trace},
		{Name: "replies", Use: middleware.CountReplies},
	}
	for _, mw := range extra {
		if mw.Use == nil {
			continue
		}
		mws = append(mws, mw)
	}
	return mws
}
