package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"remindbot/internal/config"
	"remindbot/internal/menu"
	"remindbot/internal/reminder"
	rtsup "remindbot/internal/runtime/supervisor"
	"remindbot/internal/storage"
	kit "remindbot/internal/transport"
	telegram "remindbot/internal/transport/telegram/adapter"
	logx "remindbot/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *rtsup.Supervisor

	log   logx.Logger
	logs  *logx.Service
	store storage.Store

	adapter kit.Adapter
	chat    *kit.Channel

	reg       *reminder.Registry
	reminders *reminder.Service
	menu      *menu.Machine

	updates chan kit.Update
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	d, err := cfg.Durations()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogConfig(cfg))
	appLog := log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	ad, err := telegram.New(mapTelegramConfig(cfg, d), log)
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("telegram: %w", err)
	}

	src, err := newProvider(cfg, d, log.With(logx.String("comp", "randsrc")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	sc := mapStorageConfig(cfg, d)
	store, err := storage.Open(sc, cfgm, log)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	state, err := store.Load(context.Background())
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, fmt.Errorf("load state: %w", err)
	}
	appLog.Info("storage opened", logx.String("driver", sc.Driver), logx.Int("profiles", len(state.Profiles)))

	reg, err := reminder.NewRegistry(state, store, log)
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}

	chat := kit.NewChannel(ad, cfg.Telegram.ChatID)
	svc := reminder.NewService(reg, src, chat, mapReminderConfig(cfg, d), log)
	m := menu.New(chat, reg, log)

	return &App{
		cfgPath:   cfgPath,
		cfgm:      cfgm,
		log:       appLog,
		logs:      logSvc,
		store:     store,
		adapter:   ad,
		chat:      chat,
		reg:       reg,
		reminders: svc,
		menu:      m,
		updates:   make(chan kit.Update, 64),
	}, nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.NewSupervisor(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))

	// transactional config reload: validate before commit/publish
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return config.Validate(cfg)
	})

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}
	if err := a.reminders.Start(a.sup.Context()); err != nil {
		return err
	}

	// The menu is a single state machine; updates are handled one at a time.
	a.sup.GoRestart("menu.dispatch", func(c context.Context) error {
		return a.dispatchLoop(c)
	}, rtsup.WithStopOnCleanExit(true))

	a.sup.Go0("config.watch", func(c context.Context) {
		if err := a.cfgm.Watch(c); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		// Track last applied config to generate a safe diff summary for logx.
		lastApplied := a.cfgm.Get().Clone()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config in the channel.
			drain:
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						break drain
					}
				}
				if newCfg == nil {
					continue
				}
				a.applyConfig(c, lastApplied, newCfg)
				lastApplied = newCfg.Clone()
			}
		}
	})

	a.startWatchdog()
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Debug("sd_notify ready failed", logx.Err(err))
	} else if ok {
		a.log.Debug("sd_notify ready sent")
	}

	a.log.Info("started",
		logx.String("config", a.cfgPath),
		logx.Int64("chat_id", a.chat.ChatID()),
		logx.Strings("profiles", a.reg.Names()),
	)
	return nil
}

func (a *App) dispatchLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case up := <-a.updates:
			if up.Kind != kit.UpdateMessage || up.Message == nil {
				continue
			}
			if up.Message.ChatID != a.chat.ChatID() {
				a.log.Debug("update from foreign chat ignored", logx.Int64("chat_id", up.Message.ChatID))
				continue
			}
			a.menu.Handle(ctx, *up.Message)
		}
	}
}

// applyConfig takes the live-reloadable parts of an external config edit.
// Transport, provider and storage settings only apply after a restart.
func (a *App) applyConfig(ctx context.Context, oldCfg, newCfg *config.Config) {
	sections, attrs, changes := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config change summary", fields...)

	for _, s := range sections {
		switch s {
		case "telegram", "random", "storage":
			a.log.Warn("config section changed; restart required for changes to take effect", logx.String("section", s))
		case "logging":
			a.logs.Apply(mapLogConfig(newCfg))
		}
	}

	if len(changes.Added) > 0 || len(changes.Removed) > 0 {
		a.log.Warn("reminder profiles added or removed; restart required",
			logx.Strings("added", changes.Added),
			logx.Strings("removed", changes.Removed),
		)
	}

	st := storage.StateFromConfig(newCfg)
	unknown, err := a.reg.Apply(ctx, st, storeOwnsState(newCfg))
	if err != nil {
		a.log.Warn("config reminders not applied", logx.Err(err))
		return
	}
	if len(unknown) > 0 {
		a.log.Debug("profiles not running yet", logx.Strings("names", unknown))
	}
}

// startWatchdog pings systemd at half the watchdog interval when WatchdogSec is set.
func (a *App) startWatchdog() {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return
	}
	a.sup.Go0("systemd.watchdog", func(c context.Context) {
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-c.Done():
				return
			case <-t.C:
				_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
		}
	})
}

// Stop shuts down workers, transport and storage, giving up after ctx expires.
func (a *App) Stop(ctx context.Context, reason StopReason) error {
	a.log.Info("stopping", logx.String("reason", string(reason)))
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}

	var errs []error
	if a.reminders != nil {
		if err := a.reminders.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("reminders: %w", err))
		}
	}
	if a.adapter != nil {
		if err := a.adapter.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telegram: %w", err))
		}
	}
	if a.sup != nil {
		a.sup.Cancel()
		if err := a.sup.Wait(ctx); err != nil && errors.Is(err, context.DeadlineExceeded) {
			a.log.Warn("app goroutines did not stop in time")
			errs = append(errs, err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		a.log.Warn("stopped with errors", logx.Err(err))
	} else {
		a.log.Info("stopped")
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return errors.Join(errs...)
}
