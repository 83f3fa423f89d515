package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

type ctxKey int

const (
	keyLogger ctxKey = iota
	keyRID
	keyUpdateID
	keyUserID
	keyChatID
	keyHandler
	keySessionID
)

// WithLogger stores log in ctx for propagation across layers.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, keyLogger, log)
}

// FromContext returns the logger stored in ctx, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(keyLogger).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return L
}

// WithUpdate attaches update correlation fields; rid is derived from them.
func WithUpdate(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, keyUpdateID, updateID)
	ctx = context.WithValue(ctx, keyUserID, userID)
	ctx = context.WithValue(ctx, keyChatID, chatID)
	return context.WithValue(ctx, keyRID, BuildRID(updateID, chatID, userID))
}

// WithHandler records the route that is serving the update.
func WithHandler(ctx context.Context, handler string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if handler == "" {
		return ctx
	}
	return context.WithValue(ctx, keyHandler, handler)
}

// WithSession tags every later line with the rename session id.
func WithSession(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, keySessionID, id)
}

func RIDFrom(ctx context.Context) string       { return stringValue(ctx, keyRID) }
func HandlerFrom(ctx context.Context) string   { return stringValue(ctx, keyHandler) }
func SessionIDFrom(ctx context.Context) string { return stringValue(ctx, keySessionID) }
func UserIDFrom(ctx context.Context) int64     { return intValue(ctx, keyUserID) }
func ChatIDFrom(ctx context.Context) int64     { return intValue(ctx, keyChatID) }
func UpdateIDFrom(ctx context.Context) int     { return int(intValue(ctx, keyUpdateID)) }

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}

func intValue(ctx context.Context, key ctxKey) int64 {
	if ctx == nil {
		return 0
	}
	switch v := ctx.Value(key).(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// BuildRID returns a correlation identifier in the form updateID:chatID:userID.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

// CompactRID rewrites a BuildRID value into dot-separated base36 segments.
// Anything else is returned unchanged.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	parts := strings.Split(rid, ":")
	if len(parts) != 3 {
		return rid
	}
	for i, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return rid
		}
		parts[i] = strconv.FormatInt(n, 36)
	}
	return strings.Join(parts, ".")
}

// contextFields copies correlation values from ctx into fields unless the
// record already carries them.
func contextFields(ctx context.Context, fields map[string]any) {
	if ctx == nil {
		return
	}
	put := func(key string, val any, empty bool) {
		if empty {
			return
		}
		if _, ok := fields[key]; !ok {
			fields[key] = val
		}
	}
	rid := RIDFrom(ctx)
	put("rid", rid, rid == "")
	sid := SessionIDFrom(ctx)
	put("session_id", sid, sid == "")
	uid := UserIDFrom(ctx)
	put("user_id", uid, uid == 0)
	cid := ChatIDFrom(ctx)
	put("chat_id", cid, cid == 0)
	upd := UpdateIDFrom(ctx)
	put("update_id", upd, upd == 0)
	h := HandlerFrom(ctx)
	put("handler", h, h == "")
}
