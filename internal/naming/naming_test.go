package naming

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"My Clip":                 "My Clip",
		`a<b>c:d"e/f\g|h?i*j`:     "a_b_c_d_e_f_g_h_i_j",
		"  ..hidden name.. ":      "hidden name",
		"../../etc/passwd":        "_.._etc_passwd",
		"":                        "video_20260314_092653",
		"   ":                     "video_20260314_092653",
		". . .":                   "video_20260314_092653",
		"Серия 01: начало":        "Серия 01_ начало",
		"episode.final.":          "episode.final",
	}
	for in, want := range cases {
		assert.Equal(t, want, Sanitize(in, fixedNow), "input %q", in)
	}
}

func TestSanitizeNeverEmptyForDisallowedOnly(t *testing.T) {
	got := Sanitize(`<>:"/\|?*`, fixedNow)
	assert.Equal(t, "_________", got)
}

func TestSanitizeBoundAndIdempotence(t *testing.T) {
	inputs := []string{
		strings.Repeat("a", 250),
		strings.Repeat("я", 101),
		strings.Repeat("x", 99) + " .tail",
		strings.Repeat("b", 99) + ".",
		"  " + strings.Repeat("c/", 80),
		"normal name",
		"..//..",
	}
	for _, in := range inputs {
		once := Sanitize(in, fixedNow)
		assert.LessOrEqual(t, utf8.RuneCountInString(once), MaxNameLength, "input %q", in)
		assert.NotContains(t, once, "/")
		assert.NotContains(t, once, `\`)
		assert.NotEmpty(t, once)
		assert.Equal(t, once, Sanitize(once, fixedNow.Add(time.Hour)), "idempotence for %q", in)
	}
}

func TestSanitizeTrimsAfterTruncation(t *testing.T) {
	in := strings.Repeat("x", 99) + " y"
	got := Sanitize(in, fixedNow)
	assert.Equal(t, strings.Repeat("x", 99), got)
}

func TestOutputAndStagingNames(t *testing.T) {
	assert.Equal(t, "My Clip.mp4", OutputName("My Clip"))
	assert.Equal(t, "20260314_092653_AgADx5", StagingName(fixedNow, "AgADx5"))
	assert.Equal(t, "20260314_092653_a_b", StagingName(fixedNow, "a/b"))
	assert.Equal(t, "20260314_092653_media", StagingName(fixedNow, ""))
}
