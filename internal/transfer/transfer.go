// Package transfer moves a named media file through download, upload and
// cleanup.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/h2non/filetype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/m3rciful/vidbot/core/logger"
	"github.com/m3rciful/vidbot/core/telegram/sender"
	"github.com/m3rciful/vidbot/internal/naming"
	"github.com/m3rciful/vidbot/internal/session"
	"github.com/m3rciful/vidbot/internal/staging"
)

const instrumentation = "github.com/m3rciful/vidbot/internal/transfer"

// DefaultCaption is attached to every delivered file unless configured otherwise.
const DefaultCaption = "➤ -AnimeBuddy"

// ErrNotVideoPayload fails a transfer whose staged bytes are not a video.
var ErrNotVideoPayload = errors.New("staged file is not a video")

// Downloader writes the media's bytes to path.
type Downloader interface {
	Download(ctx context.Context, media session.Media, path string) error
}

// Upload describes one outbound document.
type Upload struct {
	Path     string
	FileName string
	Caption  string
	Reply    session.Reply
}

// Uploader sends a staged file back to the operator.
type Uploader interface {
	Upload(ctx context.Context, u Upload) error
}

// Status receives progress of one transfer. Implementations must not block
// for long; errors are theirs to log.
type Status interface {
	Downloading()
	Uploading(caption string)
	Done(fileName, caption string)
	RateLimited(wait time.Duration)
	Failed()
	Cancelled()
}

// Notifier opens a Status for a transfer answering reply.
type Notifier interface {
	Begin(ctx context.Context, reply session.Reply) Status
}

// Ledger is the part of the session store the orchestrator reports to.
type Ledger interface {
	SetLocalPath(owner int64, id, path string) bool
	CompareAndRemove(owner int64, id string) bool
}

// RateLimitError means the platform asked to wait before the next call.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// Options configures an Orchestrator.
type Options struct {
	Downloader Downloader
	Uploader   Uploader
	Notifier   Notifier
	Ledger     Ledger
	Staging    staging.Dir
	Caption    string
	// RateLimitRetries is how many times a rate limited step is tried again
	// after the wait. Zero ends the transfer after the first wait.
	RateLimitRetries int
	// VerifyStaged sniffs the downloaded bytes and refuses non-video payloads.
	VerifyStaged bool
	Clock        func() time.Time
	Sleep        func(ctx context.Context, d time.Duration) error
}

// Orchestrator runs transfers. It is safe for concurrent use.
type Orchestrator struct {
	opts    Options
	tracer  trace.Tracer
	results metric.Int64Counter
	elapsed metric.Float64Histogram
}

// New builds an Orchestrator, filling defaults for zero options.
func New(opts Options) *Orchestrator {
	if opts.Caption == "" {
		opts.Caption = DefaultCaption
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	if opts.RateLimitRetries < 0 {
		opts.RateLimitRetries = 0
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}

	meter := otel.Meter(instrumentation)
	results, err := meter.Int64Counter("vidbot.transfer.results",
		metric.WithDescription("Finished transfers by outcome"))
	if err != nil {
		logger.Warn(context.Background(), logger.CompTransfer, "metrics.init", slog.Any("err", err))
	}
	elapsed, err := meter.Float64Histogram("vidbot.transfer.duration",
		metric.WithDescription("Transfer wall time"), metric.WithUnit("s"))
	if err != nil {
		logger.Warn(context.Background(), logger.CompTransfer, "metrics.init", slog.Any("err", err))
	}
	return &Orchestrator{
		opts:    opts,
		tracer:  otel.Tracer(instrumentation),
		results: results,
		elapsed: elapsed,
	}
}

// Caption returns the caption delivered files carry.
func (o *Orchestrator) Caption() string {
	return o.opts.Caption
}

// Transfer downloads the session's media, uploads it as name.mp4 in reply to
// the naming message and removes the staged file on every path.
func (o *Orchestrator) Transfer(ctx context.Context, sess session.Session, name string, reply session.Reply) (res session.TransferResult) {
	start := o.opts.Clock()
	ctx, span := o.tracer.Start(ctx, "transfer",
		trace.WithAttributes(attribute.String("session.id", sess.ID), attribute.Int64("media.size", sess.Media.Size)))
	status := o.opts.Notifier.Begin(ctx, reply)

	res = session.TransferResult{
		FileName: naming.OutputName(name),
		Caption:  o.opts.Caption,
	}
	path := o.opts.Staging.Path(naming.StagingName(start, sess.Media.UniqueID))

	defer func() {
		o.finalize(ctx, sess, path)
		o.record(ctx, res, start)
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, string(res.Outcome))
		}
		span.End()
	}()

	if !o.opts.Ledger.SetLocalPath(sess.OwnerID, sess.ID, path) {
		res.Outcome = session.OutcomeCancelled
		res.Err = context.Canceled
		status.Cancelled()
		return res
	}

	status.Downloading()
	err := o.attempt(ctx, status, func() error {
		return o.opts.Downloader.Download(ctx, sess.Media, path)
	})
	if err == nil && o.opts.VerifyStaged {
		err = verifyVideo(path)
	}
	if err == nil {
		status.Uploading(o.opts.Caption)
		err = o.attempt(ctx, status, func() error {
			return o.opts.Uploader.Upload(ctx, Upload{
				Path:     path,
				FileName: res.FileName,
				Caption:  o.opts.Caption,
				Reply:    reply,
			})
		})
	}

	var rl *RateLimitError
	switch {
	case err == nil:
		res.Outcome = session.OutcomeCompleted
		status.Done(res.FileName, res.Caption)
	case ctx.Err() != nil:
		res.Outcome = session.OutcomeCancelled
		res.Err = ctx.Err()
		status.Cancelled()
	case errors.As(err, &rl):
		res.Outcome = session.OutcomeRateLimited
		res.RetryAfter = rl.RetryAfter
		res.Err = err
	default:
		res.Outcome = session.OutcomeFailed
		res.Err = err
		status.Failed()
	}
	return res
}

// attempt runs op, waiting out rate limits and retrying up to the configured
// number of times. The last rate limit error is returned after its wait.
func (o *Orchestrator) attempt(ctx context.Context, status Status, op func() error) error {
	for try := 0; ; try++ {
		err := op()
		var rl *RateLimitError
		if err == nil || !errors.As(err, &rl) {
			return err
		}
		logger.Warn(ctx, logger.CompTransfer, "transfer.rate_limited",
			slog.Duration("retry_after", rl.RetryAfter),
			slog.Int("attempt", try+1),
		)
		status.RateLimited(rl.RetryAfter)
		if serr := o.opts.Sleep(ctx, rl.RetryAfter); serr != nil {
			return serr
		}
		if try >= o.opts.RateLimitRetries {
			return err
		}
	}
}

func (o *Orchestrator) finalize(ctx context.Context, sess session.Session, path string) {
	if err := staging.Remove(path); err != nil {
		logger.Warn(ctx, logger.CompTransfer, "staging.remove",
			slog.String("status", "fail"),
			slog.Any("err", err),
		)
	}
	o.opts.Ledger.CompareAndRemove(sess.OwnerID, sess.ID)
}

func (o *Orchestrator) record(ctx context.Context, res session.TransferResult, start time.Time) {
	took := o.opts.Clock().Sub(start)
	attrs := metric.WithAttributes(attribute.String("outcome", string(res.Outcome)))
	// Metrics outlive a cancelled transfer context.
	mctx := context.WithoutCancel(ctx)
	if o.results != nil {
		o.results.Add(mctx, 1, attrs)
	}
	if o.elapsed != nil {
		o.elapsed.Record(mctx, took.Seconds(), attrs)
	}

	level := slog.LevelInfo
	fields := []slog.Attr{
		slog.String("outcome", string(res.Outcome)),
		slog.String("file_name", res.FileName),
		slog.Duration("duration", logger.RoundMS(took)),
	}
	switch res.Outcome {
	case session.OutcomeFailed:
		level = slog.LevelError
		fields = append(fields, slog.String("status", "fail"), slog.String("err_code", sender.Classify(res.Err)),
			slog.String("cause", logger.SanitizeLimit(sender.Redact(res.Err), 256)))
	case session.OutcomeRateLimited:
		level = slog.LevelWarn
		fields = append(fields, slog.Duration("retry_after", res.RetryAfter))
	}
	logger.Event(ctx, logger.CompTransfer, level, "transfer.done", fields...)
}

func verifyVideo(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open staged file: %w", err)
	}
	defer f.Close()
	head := make([]byte, 261)
	n, err := f.Read(head)
	if err != nil && n == 0 {
		return fmt.Errorf("read staged file: %w", err)
	}
	if !filetype.IsVideo(head[:n]) {
		return ErrNotVideoPayload
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type nopNotifier struct{}

func (nopNotifier) Begin(context.Context, session.Reply) Status { return nopStatus{} }

type nopStatus struct{}

func (nopStatus) Downloading()              {}
func (nopStatus) Uploading(string)          {}
func (nopStatus) Done(string, string)       {}
func (nopStatus) RateLimited(time.Duration) {}
func (nopStatus) Failed()                   {}
func (nopStatus) Cancelled()                {}
