package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

// outcome values mirror transfer outcomes; anything else is dropped.
var outcomeValues = map[string]struct{}{
	"completed":    {},
	"failed":       {},
	"cancelled":    {},
	"rate_limited": {},
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if name, ok := levelNames[strings.ToLower(level)]; ok {
		return name
	}
	return strings.ToUpper(level)
}

func normalizeEnums(fields map[string]any) {
	if v, ok := fields["level"].(string); ok {
		fields["level"] = normalizeLevel(v)
	}
	if v, ok := fields["status"].(string); ok {
		fields["status"] = strings.ToLower(v)
	}
	if v, ok := fields["outcome"].(string); ok {
		v = strings.ToLower(v)
		if _, known := outcomeValues[v]; known {
			fields["outcome"] = v
		} else {
			delete(fields, "outcome")
		}
	}
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"session_id",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"handler",
	"cb_key",
	"stage",
	"outcome",
	"duration_ms",
	"file_name",
	"mime",
	"size",
	"limit",
	"retry_after_s",
	"attempt",
	"mode",
	"listen",
	"public_url",
	"api_url",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"cause",
	"retryable",
	"attempts",
	"backoff_ms",
}
