package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/vidbot/core/config"
	"github.com/m3rciful/vidbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MiddlewareOptions carries callbacks for the shared chain.
type MiddlewareOptions struct {
	// OnDenied answers updates from anyone but the owner.
	OnDenied tele.HandlerFunc
	// OnLimited answers updates dropped by the rate limiter.
	OnLimited tele.HandlerFunc
}

// DefaultMiddlewares builds the shared chain: panic recovery, request logging,
// the owner guard, optional rate limiting and reply metrics, in that order.
func DefaultMiddlewares(cfg *coreconfig.Config, opts MiddlewareOptions) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
	}
	if cfg == nil {
		return append(mws, Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware})
	}

	mws = append(mws, Middleware{
		Name: "owner_only",
		Use: middleware.OwnerOnly(middleware.OwnerOptions{
			Guard:    middleware.Guard{OwnerID: cfg.Telegram.OwnerID},
			OnReject: opts.OnDenied,
		}),
	})

	if interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond; interval > 0 {
		ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, t := range cfg.RateLimit.ExcludeUpdates {
			ex[strings.ToLower(t)] = struct{}{}
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval:  interval,
				Burst:     cfg.RateLimit.Burst,
				Exclude:   ex,
				OnLimited: opts.OnLimited,
			}),
		})
	}
	return append(mws, Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware})
}
