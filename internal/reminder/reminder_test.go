package reminder

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"remindbot/internal/randsrc"
	"remindbot/internal/storage"
	"remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

type memStore struct {
	mu    sync.Mutex
	saves []storage.State
	err   error
}

func (m *memStore) Save(_ context.Context, st storage.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, st.Clone())
	return m.err
}

func (m *memStore) last() storage.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves[len(m.saves)-1]
}

type sent struct {
	text string
	hide bool
}

type recordSender struct {
	mu   sync.Mutex
	msgs []sent
	c    chan sent
}

func newRecordSender() *recordSender { return &recordSender{c: make(chan sent, 1024)} }

func (r *recordSender) Send(_ context.Context, text string, opt transport.SendOptions) (transport.MessageRef, error) {
	r.mu.Lock()
	r.msgs = append(r.msgs, sent{text, opt.Spoiler})
	n := len(r.msgs)
	r.mu.Unlock()
	select {
	case r.c <- sent{text, opt.Spoiler}:
	default:
	}
	return transport.MessageRef{ChatID: 1, MessageID: n}, nil
}

func (r *recordSender) count(text string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if m.text == text {
			n++
		}
	}
	return n
}

// rangeProvider answers from a local generator and records requested ranges.
type rangeProvider struct {
	mu     sync.Mutex
	inner  *randsrc.Local
	ranges [][2]int
	failOn map[[2]int]bool
}

func newRangeProvider() *rangeProvider {
	return &rangeProvider{inner: randsrc.NewLocalSeeded(3, 4), failOn: map[[2]int]bool{}}
}

func (p *rangeProvider) Draw(ctx context.Context, min, max, count int) ([]int, error) {
	p.mu.Lock()
	p.ranges = append(p.ranges, [2]int{min, max})
	fail := p.failOn[[2]int{min, max}]
	p.mu.Unlock()
	if fail {
		return nil, randsrc.ErrSourceUnavailable
	}
	return p.inner.Draw(ctx, min, max, count)
}

func (p *rangeProvider) requested(r [2]int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Contains(p.ranges, r)
}

func testState(profiles ...storage.ProfileRecord) storage.State {
	return storage.State{Profiles: profiles}
}

func TestNewRegistryRejectsInvalidProfiles(t *testing.T) {
	cases := map[string]storage.ProfileRecord{
		"empty messages": {Name: "A", Interval: [2]int{1, 2}},
		"inverted":       {Name: "A", Messages: []string{"m"}, Interval: [2]int{3, 2}},
		"zero":           {Name: "A", Messages: []string{"m"}, Interval: [2]int{0, 2}},
	}
	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewRegistry(testState(rec), nil, logx.Nop()); err == nil {
				t.Fatal("expected load error")
			}
		})
	}
	dup := storage.ProfileRecord{Name: "A", Messages: []string{"m"}, Interval: [2]int{1, 1}}
	if _, err := NewRegistry(testState(dup, dup), nil, logx.Nop()); err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestProfileSettersPersistWholeState(t *testing.T) {
	store := &memStore{}
	reg, err := NewRegistry(testState(
		storage.ProfileRecord{Name: "Morning", Messages: []string{"water"}, Interval: [2]int{30, 90}},
		storage.ProfileRecord{Name: "Evening", Messages: []string{"walk"}, Interval: [2]int{5, 10}},
	), store, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	p, _ := reg.Get("Morning")

	if err := p.SetMessages(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("SetMessages: %v", err)
	}
	if err := p.SetInterval(ctx, Interval{5, 10}); err != nil {
		t.Fatalf("SetInterval: %v", err)
	}
	if err := reg.SetHideText(ctx, true); err != nil {
		t.Fatalf("SetHideText: %v", err)
	}

	if len(store.saves) != 3 {
		t.Fatalf("saves = %d, want 3", len(store.saves))
	}
	last := store.last()
	if !last.HideText || len(last.Profiles) != 2 || last.Profiles[0].Name != "Morning" {
		t.Fatalf("last state = %+v", last)
	}
	if !slices.Equal(last.Profiles[0].Messages, []string{"a", "b"}) || last.Profiles[0].Interval != [2]int{5, 10} {
		t.Fatalf("morning persisted as %+v", last.Profiles[0])
	}

	if err := p.SetMessages(ctx, nil); !errors.Is(err, ErrEmptyMessages) {
		t.Fatalf("empty messages err = %v", err)
	}
	if err := p.SetInterval(ctx, Interval{5, 3}); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("inverted interval err = %v", err)
	}
	if p.Interval() != (Interval{5, 10}) || len(store.saves) != 3 {
		t.Fatal("rejected mutation changed state or persisted")
	}
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	reg, _ := NewRegistry(testState(
		storage.ProfileRecord{Name: "A", Messages: []string{"m"}, Interval: [2]int{1, 2}},
	), store, logx.Nop())
	p, _ := reg.Get("A")
	if err := p.SetInterval(context.Background(), Interval{3, 4}); err == nil {
		t.Fatal("expected persistence error to surface")
	}
	if p.Interval() != (Interval{3, 4}) {
		t.Fatalf("interval = %+v, want in-memory change to stand", p.Interval())
	}
}

func TestRegistryApplyExternalChanges(t *testing.T) {
	store := &memStore{}
	reg, _ := NewRegistry(testState(
		storage.ProfileRecord{Name: "A", Messages: []string{"m"}, Interval: [2]int{1, 2}},
	), store, logx.Nop())

	unknown, err := reg.Apply(context.Background(), storage.State{HideText: true, Profiles: []storage.ProfileRecord{
		{Name: "A", Messages: []string{"x", "y"}, Interval: [2]int{4, 8}},
		{Name: "New", Messages: []string{"z"}, Interval: [2]int{1, 1}},
	}}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(unknown) != 1 || unknown[0] != "New" {
		t.Fatalf("unknown = %v", unknown)
	}
	p, _ := reg.Get("A")
	if !reg.HideText() || p.Interval() != (Interval{4, 8}) || len(p.Messages()) != 2 {
		t.Fatalf("apply did not take: hide=%v %+v", reg.HideText(), p.Snapshot())
	}
	if len(store.saves) != 0 {
		t.Fatal("persist=false must not write")
	}
	if _, ok := reg.Get("New"); ok {
		t.Fatal("profiles must not be created at runtime")
	}
}

func TestWorkerSingleMessageNeverDrawsIndex(t *testing.T) {
	src := newRangeProvider()
	p := NewProfile("Solo", []string{"only"}, Interval{2, 2})
	snd := newRecordSender()
	reg := &Registry{}
	reg.hideText.Store(true)
	w := NewWorker(p, src, 10, snd, reg, logx.Nop(), WithSleep(func(context.Context, time.Duration) error { return nil }))

	for range 5 {
		if err := w.cycle(context.Background()); err != nil {
			t.Fatalf("cycle: %v", err)
		}
	}
	if snd.count("only") != 5 {
		t.Fatalf("sent = %+v", snd.msgs)
	}
	if !snd.msgs[0].hide {
		t.Fatal("reminder did not honour global hide-text")
	}
	if src.requested([2]int{0, 0}) {
		t.Fatal("index range requested for a single-message profile")
	}
}

func TestMutationDuringSleepAppliesToNextDraw(t *testing.T) {
	src := newRangeProvider()
	p := NewProfile("Morning", []string{"old"}, Interval{5, 5})
	snd := newRecordSender()

	var (
		mu     sync.Mutex
		sleeps []time.Duration
	)
	entered := make(chan struct{}, 2)
	release := make(chan struct{}, 2)
	sleep := func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		sleeps = append(sleeps, d)
		mu.Unlock()
		entered <- struct{}{}
		<-release
		return nil
	}
	w := NewWorker(p, src, 10, snd, &Registry{}, logx.Nop(), WithSleep(sleep), WithUnit(time.Second))

	done := make(chan error, 1)
	go func() { done <- w.cycle(context.Background()) }()
	<-entered

	ctx := context.Background()
	if err := p.SetMessages(ctx, []string{"x", "y", "z"}); err != nil {
		t.Fatal(err)
	}
	if err := p.SetInterval(ctx, Interval{7, 7}); err != nil {
		t.Fatal(err)
	}
	release <- struct{}{}
	if err := <-done; err != nil {
		t.Fatalf("cycle: %v", err)
	}

	got := snd.msgs[0].text
	if got == "old" {
		t.Fatal("index draw used the stale message list")
	}
	if !src.requested([2]int{0, 2}) {
		t.Fatal("index sequence was not rebuilt for the new list length")
	}

	go func() { done <- w.cycle(context.Background()) }()
	<-entered
	release <- struct{}{}
	<-done

	mu.Lock()
	defer mu.Unlock()
	if sleeps[0] != 5*time.Second {
		t.Fatalf("in-flight sleep = %v, want the old 5s", sleeps[0])
	}
	if sleeps[1] != 7*time.Second {
		t.Fatalf("next sleep = %v, want the new 7s", sleeps[1])
	}
}

func TestServiceIsolatesWorkerFailure(t *testing.T) {
	src := newRangeProvider()
	src.failOn[[2]int{13, 13}] = true
	reg, _ := NewRegistry(testState(
		storage.ProfileRecord{Name: "Broken", Messages: []string{"never"}, Interval: [2]int{13, 13}},
		storage.ProfileRecord{Name: "Healthy", Messages: []string{"tick"}, Interval: [2]int{1, 1}},
	), nil, logx.Nop())
	snd := newRecordSender()

	fast := func(ctx context.Context, d time.Duration) error {
		tm := time.NewTimer(time.Millisecond)
		defer tm.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tm.C:
			return nil
		}
	}
	svc := NewService(reg, src, snd, ServiceConfig{Batch: 5, WorkerOpts: []WorkerOption{WithSleep(fast)}}, logx.Nop())
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for snd.count("tick") < 3 || len(svc.Stopped()) == 0 {
		select {
		case <-deadline:
			t.Fatalf("healthy sends = %d, stopped = %v", snd.count("tick"), svc.Stopped())
		case <-snd.c:
		case <-time.After(10 * time.Millisecond):
		}
	}

	stopped := svc.Stopped()
	if !errors.Is(stopped["Broken"], randsrc.ErrSourceUnavailable) {
		t.Fatalf("stopped = %v, want Broken with ErrSourceUnavailable", stopped)
	}
	if _, ok := stopped["Healthy"]; ok {
		t.Fatal("healthy worker was stopped")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if snd.count("never") != 0 {
		t.Fatal("broken profile sent a reminder")
	}
}

func TestServiceRetriesWhenConfigured(t *testing.T) {
	src := newRangeProvider()
	src.failOn[[2]int{2, 2}] = true
	reg, _ := NewRegistry(testState(
		storage.ProfileRecord{Name: "Flaky", Messages: []string{"m"}, Interval: [2]int{2, 2}},
	), nil, logx.Nop())
	svc := NewService(reg, src, newRecordSender(), ServiceConfig{
		Batch:        5,
		RetryMax:     2,
		RetryBackoff: time.Millisecond,
	}, logx.Nop())
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	deadline := time.After(3 * time.Second)
	for len(svc.Stopped()) == 0 {
		select {
		case <-deadline:
			t.Fatal("worker never gave up")
		case <-time.After(5 * time.Millisecond):
		}
	}
	src.mu.Lock()
	attempts := len(src.ranges)
	src.mu.Unlock()
	if attempts != 3 {
		t.Fatalf("draw attempts = %d, want 3 (initial + 2 retries)", attempts)
	}
	_ = svc.Stop(context.Background())
}

func TestFormatWait(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00:00"},
		{90 * time.Minute, "1:30:00"},
		{5*time.Minute + 7*time.Second, "0:05:07"},
		{25*time.Hour + 61*time.Second, "25:01:01"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.d); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestIntervalUpperBound(t *testing.T) {
	cases := []struct {
		iv Interval
		ok bool
	}{
		{Interval{1, MaxMinutes}, true},
		{Interval{1, MaxMinutes + 1}, false},
		{Interval{200000000, 200000000}, false},
	}
	for _, tc := range cases {
		err := tc.iv.Validate()
		if (err == nil) != tc.ok {
			t.Errorf("Validate(%+v) = %v, want ok=%v", tc.iv, err, tc.ok)
		}
	}

	p := NewProfile("Big", []string{"m"}, Interval{1, 2})
	if err := p.SetInterval(context.Background(), Interval{200000000, 200000000}); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("SetInterval err = %v", err)
	}
	if p.Interval() != (Interval{1, 2}) {
		t.Fatalf("interval changed to %+v", p.Interval())
	}
}

func TestWorkerWaitAtUpperBoundStaysPositive(t *testing.T) {
	p := NewProfile("Big", []string{"m"}, Interval{MaxMinutes, MaxMinutes})
	var got time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		got = d
		return nil
	}
	w := NewWorker(p, newRangeProvider(), 10, newRecordSender(), &Registry{}, logx.Nop(), WithSleep(sleep))
	if err := w.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if got <= 0 || got != time.Duration(MaxMinutes)*time.Minute {
		t.Fatalf("sleep = %v", got)
	}
	if s := FormatDuration(got); strings.Contains(s, "-") {
		t.Fatalf("FormatDuration = %q", s)
	}
}

func TestWorkerRejectsOverflowingDraw(t *testing.T) {
	p := NewProfile("Big", []string{"m"}, Interval{1, 1})
	slept := false
	w := NewWorker(p, fixedProvider{v: MaxMinutes + 1}, 10, newRecordSender(), &Registry{}, logx.Nop(),
		WithSleep(func(context.Context, time.Duration) error { slept = true; return nil }))
	if err := w.cycle(context.Background()); err == nil {
		t.Fatal("expected an out-of-range wait error")
	}
	if slept {
		t.Fatal("worker slept on an overflowing wait")
	}
}

type fixedProvider struct{ v int }

func (f fixedProvider) Draw(_ context.Context, _, _, count int) ([]int, error) {
	out := make([]int, count)
	for i := range out {
		out[i] = f.v
	}
	return out, nil
}

func TestRegistryApplyRejectsInvalidProfile(t *testing.T) {
	store := &memStore{}
	reg, _ := NewRegistry(testState(
		storage.ProfileRecord{Name: "A", Messages: []string{"m"}, Interval: [2]int{1, 2}},
	), store, logx.Nop())

	_, err := reg.Apply(context.Background(), storage.State{Profiles: []storage.ProfileRecord{
		{Name: "A", Messages: []string{"m"}, Interval: [2]int{1, MaxMinutes + 1}},
	}}, true)
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("Apply err = %v", err)
	}
	p, _ := reg.Get("A")
	if p.Interval() != (Interval{1, 2}) || len(store.saves) != 0 {
		t.Fatalf("rejected apply changed state: %+v saves=%d", p.Interval(), len(store.saves))
	}
}
