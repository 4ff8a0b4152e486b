package reminder

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"remindbot/internal/randsrc"
	"remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

// Sender delivers one reminder to the bound chat.
type Sender interface {
	Send(ctx context.Context, text string, opt transport.SendOptions) (transport.MessageRef, error)
}

// Settings exposes the global hide-text flag.
type Settings interface {
	HideText() bool
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type WorkerOption func(*Worker)

// WithSleep replaces the wall-clock sleep (tests).
func WithSleep(fn SleepFunc) WorkerOption { return func(w *Worker) { w.sleep = fn } }

// WithUnit sets the length of one interval unit. Default time.Minute.
func WithUnit(d time.Duration) WorkerOption { return func(w *Worker) { w.unit = d } }

// Worker waits a random interval, then sends a random message from its profile, forever.
type Worker struct {
	profile  *Profile
	src      randsrc.Provider
	batch    int
	sender   Sender
	settings Settings
	log      logx.Logger

	sleep SleepFunc
	unit  time.Duration

	mu      sync.Mutex
	waitSeq randsrc.Sequence
	idxSeq  randsrc.Sequence
}

func NewWorker(p *Profile, src randsrc.Provider, batch int, sender Sender, settings Settings, log logx.Logger, opts ...WorkerOption) *Worker {
	w := &Worker{
		profile:  p,
		src:      src,
		batch:    batch,
		sender:   sender,
		settings: settings,
		log:      log.With(logx.String("comp", "reminder.worker"), logx.String("profile", p.Name())),
		sleep:    sleepCtx,
		unit:     time.Minute,
	}
	for _, o := range opts {
		o(w)
	}
	snap := p.Snapshot()
	w.waitSeq = w.newWaitSeq(snap.Interval)
	w.idxSeq = randsrc.Index(src, len(snap.Messages), batch)
	p.OnChange(w.rebuild)
	return w
}

func (w *Worker) newWaitSeq(iv Interval) randsrc.Sequence {
	return randsrc.NewSequence(w.src, iv.Min, iv.Max, w.batch)
}

// rebuild replaces the sequences governed by the changed fields.
func (w *Worker) rebuild(c Change) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c.IntervalChanged {
		w.waitSeq = w.newWaitSeq(c.Interval)
	}
	if c.MessagesChanged {
		w.idxSeq = randsrc.Index(w.src, len(c.Messages), w.batch)
	}
	w.log.Debug("sequences rebuilt", logx.Bool("wait", c.IntervalChanged), logx.Bool("index", c.MessagesChanged))
}

func (w *Worker) sequences() (wait, idx randsrc.Sequence) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.waitSeq, w.idxSeq
}

// Run loops until ctx is done or the random source fails.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("reminder worker started")
	for {
		if err := w.cycle(ctx); err != nil {
			return err
		}
	}
}

func (w *Worker) cycle(ctx context.Context) error {
	waitSeq, _ := w.sequences()
	n, err := waitSeq.Next(ctx)
	if err != nil {
		return fmt.Errorf("draw wait: %w", err)
	}
	if n <= 0 || int64(n) > math.MaxInt64/int64(w.unit) {
		return fmt.Errorf("draw wait: %d out of range", n)
	}
	d := time.Duration(n) * w.unit
	w.log.Info("next after", logx.Duration("wait", d), logx.String("in", FormatDuration(d)))
	if err := w.sleep(ctx, d); err != nil {
		return err
	}

	// Read the index sequence after the sleep: a message change during the
	// sleep applies to this draw.
	_, idxSeq := w.sequences()
	i, err := idxSeq.Next(ctx)
	if err != nil {
		return fmt.Errorf("draw index: %w", err)
	}
	msgs := w.profile.Messages()
	if len(msgs) == 0 {
		return ErrEmptyMessages
	}
	// A rebuild racing the draw can leave i from the previous length.
	text := msgs[i%len(msgs)]

	hide := w.settings.HideText()
	if _, err := w.sender.Send(ctx, text, transport.SendOptions{Spoiler: hide}); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Best effort: a failed send skips this reminder only.
		w.log.Warn("reminder send failed", logx.Err(err))
		return nil
	}
	w.log.Info("reminder sent", logx.Int("index", i%len(msgs)), logx.Bool("hidden", hide))
	return nil
}

// FormatDuration renders d as H:MM:SS.
func FormatDuration(d time.Duration) string {
	s := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", s/3600, (s/60)%60, s%60)
}
