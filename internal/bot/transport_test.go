package bot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/vidbot/internal/session"
	"github.com/m3rciful/vidbot/internal/transfer"

	tele "gopkg.in/telebot.v4"
)

func TestDownloadStreamsFromFileEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/file/bot123:abc/videos/file_1.mp4" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, "123:abc")
	tr.Bind(&fakeBot{file: tele.File{FilePath: "videos/file_1.mp4"}}, srv.Client())

	dst := filepath.Join(t.TempDir(), "staged")
	require.NoError(t, tr.Download(context.Background(), session.Media{FileID: "f"}, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestDownloadBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	tr := NewTransport(srv.URL, "123:abc")
	tr.Bind(&fakeBot{file: tele.File{FilePath: "videos/x"}}, srv.Client())
	err := tr.Download(context.Background(), session.Media{FileID: "f"}, filepath.Join(t.TempDir(), "staged"))
	assert.ErrorContains(t, err, "404")
}

func TestDownloadCopiesLocalPath(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "served.mp4")
	require.NoError(t, os.WriteFile(src, []byte("local bytes"), 0o600))

	tr := NewTransport("http://unused", "t")
	tr.Bind(&fakeBot{file: tele.File{FilePath: src}}, nil)

	dst := filepath.Join(dir, "staged")
	require.NoError(t, tr.Download(context.Background(), session.Media{FileID: "f"}, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "local bytes", string(data))
}

func TestTransportUnbound(t *testing.T) {
	tr := NewTransport("http://unused", "t")
	assert.ErrorIs(t, tr.Download(context.Background(), session.Media{}, "x"), ErrNotBound)
	assert.ErrorIs(t, tr.Upload(context.Background(), transfer.Upload{}), ErrNotBound)
}

func TestUploadSendsDocumentAsReply(t *testing.T) {
	bot := &fakeBot{}
	tr := NewTransport("http://unused", "t")
	tr.Bind(bot, nil)

	err := tr.Upload(context.Background(), transfer.Upload{
		Path:     "/tmp/staged",
		FileName: "My Clip.mp4",
		Caption:  "➤ -AnimeBuddy",
		Reply:    session.Reply{ChatID: 42, MessageID: 12},
	})
	require.NoError(t, err)
	require.Len(t, bot.sent, 1)
	doc, ok := bot.sent[0].(*tele.Document)
	require.True(t, ok)
	assert.Equal(t, "My Clip.mp4", doc.FileName)
	assert.Equal(t, "➤ -AnimeBuddy", doc.Caption)
	assert.True(t, doc.DisableTypeDetection)
	require.Len(t, bot.sendTo, 1)
	assert.Equal(t, 12, bot.sendTo[0].ReplyTo.ID)
}

func TestUploadMapsFloodWait(t *testing.T) {
	bot := &fakeBot{sendErr: tele.FloodError{RetryAfter: 30}}
	tr := NewTransport("http://unused", "t")
	tr.Bind(bot, nil)

	err := tr.Upload(context.Background(), transfer.Upload{Reply: session.Reply{ChatID: 42}})
	var rl *transfer.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, 30*time.Second, rl.RetryAfter)
}

func TestUploadRespectsCancelledContext(t *testing.T) {
	bot := &fakeBot{}
	tr := NewTransport("http://unused", "t")
	tr.Bind(bot, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tr.Upload(ctx, transfer.Upload{}), context.Canceled)
	assert.Empty(t, bot.sent)
}

func TestStatusMessageSendsOnceThenEdits(t *testing.T) {
	bot := &fakeBot{}
	tr := NewTransport("http://unused", "t")
	tr.Bind(bot, nil)

	st := statusNotifier{transport: tr}.Begin(context.Background(), session.Reply{ChatID: 42, MessageID: 12})
	st.Downloading()
	st.Uploading("➤ -AnimeBuddy")
	st.RateLimited(30 * time.Second)

	require.Len(t, bot.sent, 1)
	assert.Equal(t, textDownloading, bot.sent[0])
	assert.Equal(t, 12, bot.sendTo[0].ReplyTo.ID)
	require.Len(t, bot.edits, 2)
	assert.Contains(t, bot.edits[0], "Uploading your renamed file")
	assert.Contains(t, bot.edits[1], "Waiting 30 seconds")
}
