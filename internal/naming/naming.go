// Package naming turns operator-supplied text into safe file names.
package naming

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNameLength bounds a sanitized name, in runes.
const MaxNameLength = 100

const (
	fallbackPrefix = "video_"
	stampLayout    = "20060102_150405"
	outputExt      = ".mp4"
)

var disallowed = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_",
	"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
)

// Sanitize maps raw to a name that is safe on common filesystems: the
// characters < > : " / \ | ? * become '_', surrounding dots and spaces are
// trimmed and the result is capped at MaxNameLength runes. An empty result
// falls back to video_YYYYMMDD_HHMMSS derived from now.
func Sanitize(raw string, now time.Time) string {
	name := trim(disallowed.Replace(raw))
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = trim(string([]rune(name)[:MaxNameLength]))
	}
	if name == "" {
		return fallbackPrefix + now.Format(stampLayout)
	}
	return name
}

// OutputName is the file name the renamed media is delivered under.
func OutputName(name string) string {
	return name + outputExt
}

// StagingName builds the transient download name from the arrival time and
// the media's unique id.
func StagingName(now time.Time, uniqueID string) string {
	uid := disallowed.Replace(uniqueID)
	if uid == "" {
		uid = "media"
	}
	return now.Format(stampLayout) + "_" + uid
}

func trim(s string) string {
	return strings.Trim(s, ". ")
}
