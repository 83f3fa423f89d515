package logger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLine(t *testing.T, format logFormat, emit func(*slog.Logger)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	log := slog.New(newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: aw,
		format: format,
	}))
	emit(log)
	require.NoError(t, aw.Close())
	return strings.TrimSpace(buf.String())
}

func TestKVLineFollowsKeyOrder(t *testing.T) {
	ctx := WithUpdate(context.Background(), 42, 7, 9)
	ctx = WithSession(ctx, "sess-1")

	line := captureLine(t, formatKV, func(l *slog.Logger) {
		LogEvent(ctx, l.With("component", CompTransfer), slog.LevelInfo, "transfer.completed",
			slog.String("status", "OK"),
			slog.String("file_name", "My Clip.mp4"),
		)
	})

	tokens := strings.Split(line, " ")
	want := []string{"ts=", "level=INFO", "component=service.transfer", "event=transfer.completed", "status=ok", "rid=" + CompactRID("42:9:7"), "session_id=sess-1"}
	require.GreaterOrEqual(t, len(tokens), len(want), line)
	for i, prefix := range want {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, want prefix %s", i, tokens[i], prefix)
	}
	assert.Contains(t, line, `file_name="My Clip.mp4"`)
	assert.NotContains(t, line, "rid_full=")
}

func TestJSONLineKeepsFullRIDAndDropsUnknownOutcome(t *testing.T) {
	ctx := WithUpdate(context.Background(), 12, 34, 56)

	line := captureLine(t, formatJSON, func(l *slog.Logger) {
		LogEvent(ctx, l, slog.LevelError, "transfer.failed",
			slog.String("outcome", "exploded"),
			slog.Any("err", errors.New("boom")),
			slog.Duration("duration", 1500*time.Millisecond),
		)
	})

	order := []string{`{"ts":`, `"level":"ERROR"`, `"component":"app"`, `"event":"transfer.failed"`, `"rid":"` + CompactRID("12:56:34") + `"`, `"rid_full":"12:56:34"`}
	pos := -1
	for _, p := range order {
		idx := strings.Index(line, p)
		require.True(t, idx > pos, "%s out of order in %s", p, line)
		pos = idx
	}
	assert.Contains(t, line, `"duration_ms":1500`)
	assert.Contains(t, line, `"err":"boom"`)
	assert.Contains(t, line, `"ts_unix_nano"`)
	assert.NotContains(t, line, "outcome")
}

func TestGroupsFlattenWithDots(t *testing.T) {
	line := captureLine(t, formatKV, func(l *slog.Logger) {
		l.WithGroup("media").Info("media.received", slog.Int64("size", 10), slog.Group("file", slog.String("mime", "video/mp4")))
	})
	assert.Contains(t, line, "media.size=10")
	assert.Contains(t, line, "media.file.mime=video/mp4")
	assert.Contains(t, line, "event=media.received")
}

func TestCompactRID(t *testing.T) {
	assert.Equal(t, "3f.co.lx", CompactRID("123:456:789"))
	assert.Equal(t, "not-a-rid", CompactRID("not-a-rid"))
	assert.Equal(t, "1:x:2", CompactRID("1:x:2"))
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	assert.Equal(t, []bool{true, false, false, true}, got)

	s.Set(0, 0)
	assert.True(t, s.Allow())

	num, den := parseRatioSpec("2/5")
	assert.Equal(t, []int{2, 5}, []int{num, den})
	num, den = parseRatioSpec("10")
	assert.Equal(t, []int{1, 10}, []int{num, den})
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "ab\tc", Sanitize("a\x00b\tc\u200b"))
	assert.Equal(t, "héll", SanitizeLimit("héllo", 4))
	assert.Equal(t, "", SanitizeLimit("x", 0))
}
