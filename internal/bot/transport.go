package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/m3rciful/vidbot/core/logger"
	"github.com/m3rciful/vidbot/core/telegram/sender"
	"github.com/m3rciful/vidbot/internal/session"
	"github.com/m3rciful/vidbot/internal/transfer"

	tele "gopkg.in/telebot.v4"
)

// ErrNotBound is returned before the bot runtime has started.
var ErrNotBound = errors.New("bot: transport not bound")

// botAPI is the slice of *tele.Bot the transport and status messages use.
type botAPI interface {
	FileByID(fileID string) (tele.File, error)
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
	Edit(msg tele.Editable, what any, opts ...any) (*tele.Message, error)
}

// Transport downloads and uploads media through the Bot API. It is bound to
// the live bot once the runtime starts.
type Transport struct {
	apiURL string
	token  string

	mu     sync.RWMutex
	bot    botAPI
	client *http.Client
}

// NewTransport returns an unbound transport for the given Bot API server.
func NewTransport(apiURL, token string) *Transport {
	return &Transport{apiURL: apiURL, token: token}
}

// Bind attaches the running bot and its HTTP client.
func (t *Transport) Bind(bot botAPI, client *http.Client) {
	if client == nil {
		client = http.DefaultClient
	}
	t.mu.Lock()
	t.bot, t.client = bot, client
	t.mu.Unlock()
}

func (t *Transport) bound() (botAPI, *http.Client, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.bot == nil {
		return nil, nil, ErrNotBound
	}
	return t.bot, t.client, nil
}

// Download resolves media.FileID and writes its bytes to path. A local Bot
// API server returns an absolute path that is copied directly; otherwise the
// file is streamed from the server's file endpoint.
func (t *Transport) Download(ctx context.Context, media session.Media, path string) error {
	bot, client, err := t.bound()
	if err != nil {
		return err
	}
	start := time.Now()
	file, err := bot.FileByID(media.FileID)
	if err != nil {
		return wrapSendErr("get file", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var n int64
	if filepath.IsAbs(file.FilePath) {
		n, err = copyLocal(file.FilePath, path)
	} else {
		n, err = t.fetch(ctx, client, file.FilePath, path)
	}
	if err != nil {
		return err
	}
	logger.Debug(ctx, logger.CompTransfer, "download.done",
		slog.Int64("size", n),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func (t *Transport) fetch(ctx context.Context, client *http.Client, remote, path string) (int64, error) {
	url := t.apiURL + "/file/bot" + t.token + "/" + remote
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build download request: %s", sender.Redact(err))
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("download: %s", sender.Redact(err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download: unexpected status %s", resp.Status)
	}
	return writeFile(path, resp.Body)
}

func copyLocal(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open local file: %w", err)
	}
	defer in.Close()
	return writeFile(dst, in)
}

func writeFile(path string, r io.Reader) (int64, error) {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("create staged file: %w", err)
	}
	n, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("write staged file: %w", err)
	}
	return n, nil
}

// Upload sends the staged file as a plain document replying to the message
// that named it. The Bot API call itself cannot be interrupted; ctx is
// checked before it starts.
func (t *Transport) Upload(ctx context.Context, u transfer.Upload) error {
	bot, _, err := t.bound()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	chat := &tele.Chat{ID: u.Reply.ChatID}
	doc := &tele.Document{
		File:                 tele.FromDisk(u.Path),
		FileName:             u.FileName,
		Caption:              u.Caption,
		DisableTypeDetection: true,
	}
	opts := &tele.SendOptions{}
	if u.Reply.MessageID != 0 {
		opts.ReplyTo = &tele.Message{ID: u.Reply.MessageID, Chat: chat}
	}
	start := time.Now()
	if _, err := bot.Send(chat, doc, opts); err != nil {
		return wrapSendErr("send document", err)
	}
	logger.Debug(ctx, logger.CompTransfer, "upload.done",
		slog.String("file_name", u.FileName),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// wrapSendErr turns a flood wait into *transfer.RateLimitError and annotates
// anything else with op.
func wrapSendErr(op string, err error) error {
	if wait, ok := sender.FloodWait(err); ok {
		return &transfer.RateLimitError{RetryAfter: wait, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
