package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"remindbot/internal/randsrc"
	rtsup "remindbot/internal/runtime/supervisor"
	logx "remindbot/pkg/logx"
)

type ServiceConfig struct {
	Batch int
	// RetryMax > 0 restarts a failed worker up to RetryMax times; 0 lets it stop.
	RetryMax     int
	RetryBackoff time.Duration
	WorkerOpts   []WorkerOption
}

// Service runs one worker per profile. A worker failure stays with that profile.
type Service struct {
	reg    *Registry
	src    randsrc.Provider
	sender Sender
	cfg    ServiceConfig
	log    logx.Logger

	mu      sync.Mutex
	sup     *rtsup.Supervisor
	workers map[string]*Worker
	stopped map[string]error
}

func NewService(reg *Registry, src randsrc.Provider, sender Sender, cfg ServiceConfig, log logx.Logger) *Service {
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 30 * time.Second
	}
	return &Service{
		reg:     reg,
		src:     src,
		sender:  sender,
		cfg:     cfg,
		log:     log.With(logx.String("comp", "reminder")),
		workers: map[string]*Worker{},
		stopped: map[string]error{},
	}
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sup != nil {
		return nil
	}
	s.sup = rtsup.NewSupervisor(ctx,
		rtsup.WithLogger(s.log),
		rtsup.WithCancelOnError(false),
	)
	for _, p := range s.reg.Profiles() {
		w := NewWorker(p, s.src, s.cfg.Batch, s.sender, s.reg, s.log, s.cfg.WorkerOpts...)
		s.workers[p.Name()] = w
		s.launch(p.Name(), w)
	}
	s.log.Info("reminder workers started", logx.Int("count", len(s.workers)))
	return nil
}

func (s *Service) launch(name string, w *Worker) {
	task := "reminder." + name
	if s.cfg.RetryMax <= 0 {
		s.sup.Go(task, func(ctx context.Context) error {
			err := w.Run(ctx)
			s.noteStopped(ctx, name, err)
			return err
		})
		return
	}
	s.sup.GoRestart(task, w.Run,
		rtsup.WithRestartBackoff(s.cfg.RetryBackoff, s.cfg.RetryBackoff*8),
		rtsup.WithMaxRestarts(s.cfg.RetryMax),
		rtsup.WithFatalOnFinalError(true),
		rtsup.WithGiveUpHook(func(err error) { s.noteStopped(context.Background(), name, err) }),
	)
}

func (s *Service) noteStopped(ctx context.Context, name string, err error) {
	if err == nil || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return
	}
	s.log.Error("reminder worker stopped", logx.String("profile", name), logx.Err(err))
	s.mu.Lock()
	s.stopped[name] = err
	s.mu.Unlock()
}

// Stopped reports profiles whose worker gave up, with the final error.
func (s *Service) Stopped() map[string]error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]error, len(s.stopped))
	for k, v := range s.stopped {
		out[k] = v
	}
	return out
}

// Stop cancels every worker (interrupting sleeps) and waits for them.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	sup := s.sup
	s.mu.Unlock()
	if sup == nil {
		return nil
	}
	err := sup.Stop(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		s.log.Warn("reminder workers did not stop in time")
		return err
	}
	return nil
}
