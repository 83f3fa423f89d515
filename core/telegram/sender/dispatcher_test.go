package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

func TestDispatcherRunsJobsInOrder(t *testing.T) {
	d := NewDispatcher(Options{})
	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, d.Enqueue(context.Background(), "send", "", func() error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, i)
			return nil
		}))
	}
	d.Close()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	assert.Zero(t, d.ErrorCount())
	assert.ErrorIs(t, d.Enqueue(context.Background(), "late", "", func() error { return nil }), ErrQueueClosed)
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		return nil
	}))
	d.Close()
	assert.Equal(t, int32(3), calls.Load())
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherCountsPermanentFailures(t *testing.T) {
	d := NewDispatcher(Options{MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send", "", func() error {
		calls.Add(1)
		return errors.New("bad request")
	}))
	d.Close()
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestFloodWait(t *testing.T) {
	wait, ok := FloodWait(tele.FloodError{RetryAfter: 30})
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, wait)

	wait, ok = FloodWait(&tele.FloodError{RetryAfter: 5})
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, wait)

	_, ok = FloodWait(errors.New("nope"))
	assert.False(t, ok)
}

func TestRedactAndClassify(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AA-bb_cc/sendMessage": EOF`)
	assert.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF`, Redact(err))
	assert.Equal(t, "flood", Classify(tele.FloodError{RetryAfter: 1}))
	assert.Equal(t, "timeout", Classify(context.DeadlineExceeded))
	assert.Equal(t, "unknown", Classify(errors.New("x")))
}
