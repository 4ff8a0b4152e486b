package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestGoRecordsFirstErrorWithoutCancel(t *testing.T) {
	t.Parallel()

	sup := NewSupervisor(context.Background(), WithCancelOnError(false))
	boom := errors.New("boom")
	sup.Go("fails", func(ctx context.Context) error { return boom })

	sibling := make(chan struct{})
	sup.Go0("sibling", func(ctx context.Context) {
		<-ctx.Done()
		close(sibling)
	})

	time.Sleep(20 * time.Millisecond)
	select {
	case <-sibling:
		t.Fatal("sibling canceled although cancel-on-error is off")
	default:
	}

	err := sup.Stop(waitCtx(t))
	if !errors.Is(err, boom) {
		t.Fatalf("Stop() = %v, want wrapped boom", err)
	}
}

func TestGoCancelOnError(t *testing.T) {
	t.Parallel()

	sup := NewSupervisor(context.Background(), WithCancelOnError(true))
	sup.Go("fails", func(ctx context.Context) error { return errors.New("x") })
	select {
	case <-sup.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled after first error")
	}
	_ = sup.Wait(waitCtx(t))
}

func TestGoRecoversPanic(t *testing.T) {
	t.Parallel()

	sup := NewSupervisor(context.Background())
	sup.Go("panics", func(ctx context.Context) error { panic("oh no") })
	if err := sup.Wait(waitCtx(t)); err == nil {
		t.Fatal("expected panic to surface as error")
	}
	if c := sup.Counters(); c.Active != 0 || c.Started != 1 {
		t.Fatalf("counters = %+v", c)
	}
}

func TestGoRestartGivesUp(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	var gaveUp atomic.Bool
	sup := NewSupervisor(context.Background())
	sup.GoRestart("flaky", func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("flaky")
	},
		WithRestartBackoff(time.Millisecond, 2*time.Millisecond),
		WithMaxRestarts(2),
		WithFatalOnFinalError(true),
		WithGiveUpHook(func(error) { gaveUp.Store(true) }),
	)

	if err := sup.Wait(waitCtx(t)); err == nil {
		t.Fatal("expected final error")
	}
	if got := runs.Load(); got != 3 {
		t.Fatalf("runs = %d, want 3 (initial + 2 restarts)", got)
	}
	if !gaveUp.Load() {
		t.Fatal("give-up hook not called")
	}
}

func TestGoRestartStopsOnCleanExit(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	sup := NewSupervisor(context.Background())
	sup.GoRestart("once", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	if err := sup.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait() = %v", err)
	}
	if runs.Load() != 1 {
		t.Fatalf("runs = %d, want 1", runs.Load())
	}
}

func TestGoRestartHealthyRunResetsRestartCount(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	var gaveUp atomic.Bool
	sup := NewSupervisor(context.Background())
	sup.GoRestart("rare", func(ctx context.Context) error {
		if runs.Add(1) == 5 {
			return nil
		}
		// each failure follows a healthy run
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(30 * time.Millisecond):
		}
		return errors.New("rare")
	},
		WithRestartBackoff(time.Millisecond, 2*time.Millisecond),
		WithHealthyRun(10*time.Millisecond),
		WithMaxRestarts(1),
		WithFatalOnFinalError(true),
		WithGiveUpHook(func(error) { gaveUp.Store(true) }),
	)

	if err := sup.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait() = %v", err)
	}
	if got := runs.Load(); got != 5 {
		t.Fatalf("runs = %d, want 5", got)
	}
	if gaveUp.Load() {
		t.Fatal("gave up although every failure followed a healthy run")
	}
}
