package maskgif

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type encodeOutcome int8

const (
	encodePending encodeOutcome = iota
	encodeFinished
	encodeFailed
	encodeTimedOut
)

func (o encodeOutcome) String() string {
	switch o {
	case encodeFinished:
		return "finished"
	case encodeFailed:
		return "error"
	case encodeTimedOut:
		return "timeout"
	}
	return "pending"
}

// encodeJob a single encoder run. finish, fail and timeout race against
// each other and only the first one to settle takes effect.
type encodeJob struct {
	settled atomic.Bool
	done    chan struct{}
	cancel  context.CancelFunc
	surface *Surface
	logger  *zap.Logger

	outcome encodeOutcome
	blob    *Blob
	err     error
}

func newEncodeJob(ctx context.Context, surface *Surface, logger *zap.Logger) (*encodeJob, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &encodeJob{
		done:    make(chan struct{}),
		cancel:  cancel,
		surface: surface,
		logger:  logger,
	}, ctx
}

func (j *encodeJob) settle(outcome encodeOutcome, blob *Blob, err error) bool {
	if !j.settled.CompareAndSwap(false, true) {
		return false
	}
	// aborts the encoder if still running
	j.cancel()
	if j.surface != nil && !j.surface.Restore() {
		j.logger.Debug("restore skipped", zap.Stringer("outcome", outcome))
	}
	j.outcome = outcome
	j.blob = blob
	j.err = err
	close(j.done)
	return true
}

func (j *encodeJob) finish(blob *Blob) bool {
	if isEmpty(blob) {
		return j.fail(ErrEncode.WithDetail("empty output"))
	}
	return j.settle(encodeFinished, blob, nil)
}

func (j *encodeJob) fail(err error) bool {
	if err == nil {
		err = ErrEncode
	} else if !errors.Is(err, ErrEncode) && !errors.Is(err, ErrEncodeSetup) &&
		!errors.Is(err, context.Canceled) {
		err = ErrEncode.WithDetail(err.Error())
	}
	return j.settle(encodeFailed, nil, err)
}

func (j *encodeJob) timeout() bool {
	return j.settle(encodeTimedOut, nil, ErrEncodeTimeout)
}

// Done closes once the job settled
func (j *encodeJob) Done() <-chan struct{} {
	return j.done
}

// encode runs the encoder on a copy of the surface, bounded by EncodeTimeout.
// The surface is restored from its snapshot whatever the outcome.
func (app *App) encode(ctx context.Context, surface *Surface) (*Blob, error) {
	if app.Encoder == nil {
		surface.Restore()
		return nil, ErrEncodeSetup.WithDetail("encoder not configured")
	}
	job, jobCtx := newEncodeJob(ctx, surface, app.Logger)
	if app.EncodeTimeout > 0 {
		timer := time.AfterFunc(app.EncodeTimeout, func() {
			if job.timeout() {
				app.Logger.Warn("encode timeout", zap.Duration("timeout", app.EncodeTimeout))
			}
		})
		defer timer.Stop()
	}
	frame := surface.Frame()
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				job.fail(ErrEncode.WithDetail("panic"))
				app.Logger.Error("encode panic", zap.Any("panic", rec))
			}
		}()
		blob, err := app.Encoder.Encode(jobCtx, frame)
		if err != nil {
			if job.fail(err) && app.Debug {
				app.Logger.Debug("encode error", zap.Error(err))
			}
			return
		}
		job.finish(blob)
	}()
	select {
	case <-job.Done():
	case <-ctx.Done():
		job.fail(ctx.Err())
		<-job.Done()
	}
	if app.Debug {
		app.Logger.Debug("encode", zap.Stringer("outcome", job.outcome))
	}
	return job.blob, job.err
}
