package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	coreconfig "github.com/m3rciful/vidbot/core/config"
)

func names(mws []Middleware) []string {
	out := make([]string, 0, len(mws))
	for _, m := range mws {
		out = append(out, m.Name)
	}
	return out
}

func TestDefaultMiddlewaresOrder(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Telegram.OwnerID = 1
	assert.Equal(t, []string{"recover", "logger", "owner_only", "metrics"}, names(DefaultMiddlewares(cfg, MiddlewareOptions{})))

	cfg.RateLimit.IntervalMS = 500
	assert.Equal(t, []string{"recover", "logger", "owner_only", "rate_limit", "metrics"}, names(DefaultMiddlewares(cfg, MiddlewareOptions{})))
}
