package transfer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/vidbot/internal/session"
	"github.com/m3rciful/vidbot/internal/staging"
)

var flvHeader = []byte{'F', 'L', 'V', 0x01, 0x05, 0, 0, 0, 9, 0, 0, 0, 0}

type fakeDownloader struct {
	payload []byte
	err     error
	paths   []string
}

func (d *fakeDownloader) Download(ctx context.Context, _ session.Media, path string) error {
	d.paths = append(d.paths, path)
	if err := os.WriteFile(path, d.payload, 0o600); err != nil {
		return err
	}
	if d.err != nil {
		return d.err
	}
	return ctx.Err()
}

type fakeUploader struct {
	errs    []error
	uploads []Upload
	sawFile []bool
	block   bool
}

func (u *fakeUploader) Upload(ctx context.Context, up Upload) error {
	u.uploads = append(u.uploads, up)
	_, statErr := os.Stat(up.Path)
	u.sawFile = append(u.sawFile, statErr == nil)
	if u.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if len(u.errs) == 0 {
		return nil
	}
	err := u.errs[0]
	u.errs = u.errs[1:]
	return err
}

type recorder struct {
	mu     sync.Mutex
	events []string
	waits  []time.Duration
}

func (r *recorder) Begin(context.Context, session.Reply) Status { return r }

func (r *recorder) add(ev string) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) Downloading()        { r.add("downloading") }
func (r *recorder) Uploading(string)    { r.add("uploading") }
func (r *recorder) Done(string, string) { r.add("done") }
func (r *recorder) Failed()             { r.add("failed") }
func (r *recorder) Cancelled()          { r.add("cancelled") }
func (r *recorder) RateLimited(wait time.Duration) {
	r.waits = append(r.waits, wait)
	r.add("rate_limited")
}

type harness struct {
	orch  *Orchestrator
	store *session.Store
	down  *fakeDownloader
	up    *fakeUploader
	rec   *recorder
	dir   staging.Dir
	sess  session.Session
	slept []time.Duration
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	h := &harness{
		store: session.NewStore(),
		down:  &fakeDownloader{payload: flvHeader},
		up:    &fakeUploader{},
		rec:   &recorder{},
		dir:   staging.New(t.TempDir()),
	}
	h.sess = session.Session{
		ID:      "sess-1",
		OwnerID: 42,
		Media:   session.Media{FileID: "f", UniqueID: "uniq", Size: 10 << 20, Kind: session.KindVideo},
		Stage:   session.StageAwaitingName,
	}
	h.store.Put(h.sess)
	require.True(t, h.store.Begin(42, h.sess.ID, nil))

	opts := Options{
		Downloader: h.down,
		Uploader:   h.up,
		Notifier:   h.rec,
		Ledger:     h.store,
		Staging:    h.dir,
		Clock:      func() time.Time { return time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC) },
		Sleep: func(ctx context.Context, d time.Duration) error {
			h.slept = append(h.slept, d)
			return ctx.Err()
		},
	}
	if mutate != nil {
		mutate(&opts)
	}
	h.orch = New(opts)
	return h
}

func (h *harness) run(ctx context.Context) session.TransferResult {
	return h.orch.Transfer(ctx, h.sess, "My Clip", session.Reply{ChatID: 42, MessageID: 7})
}

func stagedFiles(t *testing.T, dir staging.Dir) []string {
	t.Helper()
	entries, err := os.ReadDir(dir.Root())
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestTransferCompletes(t *testing.T) {
	h := newHarness(t, nil)
	res := h.run(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, session.OutcomeCompleted, res.Outcome)
	assert.Equal(t, "My Clip.mp4", res.FileName)
	assert.Equal(t, DefaultCaption, res.Caption)
	assert.Equal(t, []string{"downloading", "uploading", "done"}, h.rec.events)

	require.Len(t, h.up.uploads, 1)
	up := h.up.uploads[0]
	assert.Equal(t, "My Clip.mp4", up.FileName)
	assert.Equal(t, DefaultCaption, up.Caption)
	assert.Equal(t, session.Reply{ChatID: 42, MessageID: 7}, up.Reply)
	assert.Equal(t, filepath.Join(h.dir.Root(), "20261016_093000_uniq"), up.Path)
	assert.True(t, h.up.sawFile[0])

	assert.Empty(t, stagedFiles(t, h.dir))
	assert.Zero(t, h.store.Len())
}

func TestTransferCustomCaption(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.Caption = "by me" })
	res := h.run(context.Background())
	assert.Equal(t, "by me", res.Caption)
	assert.Equal(t, "by me", h.up.uploads[0].Caption)
}

func TestTransferDownloadFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.down.err = errors.New("network down")
	res := h.run(context.Background())

	assert.Equal(t, session.OutcomeFailed, res.Outcome)
	assert.ErrorContains(t, res.Err, "network down")
	assert.Equal(t, []string{"downloading", "failed"}, h.rec.events)
	assert.Empty(t, h.up.uploads)
	assert.Empty(t, stagedFiles(t, h.dir))
	assert.Zero(t, h.store.Len())
}

func TestTransferUploadFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.up.errs = []error{errors.New("bad request")}
	res := h.run(context.Background())

	assert.Equal(t, session.OutcomeFailed, res.Outcome)
	assert.Equal(t, []string{"downloading", "uploading", "failed"}, h.rec.events)
	assert.Empty(t, stagedFiles(t, h.dir))
}

func TestTransferRateLimitedWithoutRetry(t *testing.T) {
	h := newHarness(t, nil)
	h.up.errs = []error{&RateLimitError{RetryAfter: 30 * time.Second}}
	res := h.run(context.Background())

	assert.Equal(t, session.OutcomeRateLimited, res.Outcome)
	assert.Equal(t, 30*time.Second, res.RetryAfter)
	assert.Equal(t, []time.Duration{30 * time.Second}, h.rec.waits)
	assert.Equal(t, []time.Duration{30 * time.Second}, h.slept)
	assert.Equal(t, []string{"downloading", "uploading", "rate_limited"}, h.rec.events)
	assert.Len(t, h.up.uploads, 1)
	assert.Empty(t, stagedFiles(t, h.dir))
	assert.Zero(t, h.store.Len())
}

func TestTransferRateLimitRetries(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.RateLimitRetries = 2 })
	h.up.errs = []error{&RateLimitError{RetryAfter: time.Second}}
	res := h.run(context.Background())

	assert.Equal(t, session.OutcomeCompleted, res.Outcome)
	assert.Len(t, h.up.uploads, 2)
	assert.Equal(t, []string{"downloading", "uploading", "rate_limited", "done"}, h.rec.events)
}

func TestTransferRateLimitRetriesExhausted(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.RateLimitRetries = 1 })
	h.up.errs = []error{
		&RateLimitError{RetryAfter: time.Second},
		&RateLimitError{RetryAfter: 2 * time.Second},
	}
	res := h.run(context.Background())

	assert.Equal(t, session.OutcomeRateLimited, res.Outcome)
	assert.Equal(t, 2*time.Second, res.RetryAfter)
	assert.Len(t, h.up.uploads, 2)
}

func TestTransferCancelledMidUpload(t *testing.T) {
	h := newHarness(t, nil)
	h.up.block = true
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan session.TransferResult)
	go func() { done <- h.run(ctx) }()

	require.Eventually(t, func() bool {
		h.rec.mu.Lock()
		defer h.rec.mu.Unlock()
		return len(h.rec.events) == 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	res := <-done

	assert.Equal(t, session.OutcomeCancelled, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, []string{"downloading", "uploading", "cancelled"}, h.rec.events)
	assert.Empty(t, stagedFiles(t, h.dir))
}

func TestTransferSkippedWhenSessionGone(t *testing.T) {
	h := newHarness(t, nil)
	h.store.Remove(42)
	res := h.run(context.Background())

	assert.Equal(t, session.OutcomeCancelled, res.Outcome)
	assert.Empty(t, h.down.paths)
	assert.Equal(t, []string{"cancelled"}, h.rec.events)
}

func TestTransferLeavesReplacingSessionAlone(t *testing.T) {
	h := newHarness(t, nil)
	replacement := session.Session{ID: "sess-2", OwnerID: 42, Stage: session.StageAwaitingName}
	h.orch.opts.Uploader = uploaderFunc(func(context.Context, Upload) error {
		h.store.Put(replacement)
		return nil
	})
	res := h.run(context.Background())

	assert.Equal(t, session.OutcomeCompleted, res.Outcome)
	cur, ok := h.store.Get(42)
	require.True(t, ok)
	assert.Equal(t, "sess-2", cur.ID)
}

func TestTransferVerifyStaged(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.VerifyStaged = true })
	h.down.payload = []byte("just some text, not a video")
	res := h.run(context.Background())

	assert.Equal(t, session.OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrNotVideoPayload)
	assert.Empty(t, h.up.uploads)
	assert.Empty(t, stagedFiles(t, h.dir))

	h = newHarness(t, func(o *Options) { o.VerifyStaged = true })
	res = h.run(context.Background())
	assert.Equal(t, session.OutcomeCompleted, res.Outcome)
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleep(context.Background(), time.Millisecond))
}

type uploaderFunc func(context.Context, Upload) error

func (f uploaderFunc) Upload(ctx context.Context, u Upload) error { return f(ctx, u) }
