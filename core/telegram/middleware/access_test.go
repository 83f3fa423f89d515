package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

func TestGuardIsAuthorized(t *testing.T) {
	g := Guard{OwnerID: 42}
	assert.True(t, g.IsAuthorized(42))
	assert.False(t, g.IsAuthorized(7))
	assert.False(t, g.IsAuthorized(0))
	assert.False(t, Guard{}.IsAuthorized(0), "zero owner authorizes nobody")
	assert.False(t, Guard{}.IsAuthorized(42))
}

func TestOwnerOnly(t *testing.T) {
	var handled, rejected int
	h := OwnerOnly(OwnerOptions{
		Guard:    Guard{OwnerID: 42},
		OnReject: func(tele.Context) error { rejected++; return nil },
	})(func(tele.Context) error { handled++; return nil })

	require.NoError(t, h(newFake(42)))
	assert.Equal(t, 1, handled)
	assert.Equal(t, 0, rejected)

	require.NoError(t, h(newFake(7)))
	assert.Equal(t, 1, handled, "stranger must not reach the handler")
	assert.Equal(t, 1, rejected)

	require.NoError(t, h(newFake(0)))
	assert.Equal(t, 1, handled)
	assert.Equal(t, 1, rejected, "updates without a sender are dropped silently")
}
