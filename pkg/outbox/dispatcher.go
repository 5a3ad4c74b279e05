package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/appetiteclub/delivery/pkg"
	"github.com/aquamarinepk/aqm"
	"golang.org/x/time/rate"
)

type DispatcherConfig struct {
	Interval    time.Duration // Poll interval
	MaxAttempts int           // Attempts before a message is marked failed
	BaseBackoff time.Duration // Delay after the first failure
	MaxBackoff  time.Duration // Upper bound for the retry delay
	Lease       time.Duration // How long a claimed message stays reserved
	Rate        float64       // Publish rate limit, messages per second
	BatchSize   int           // Messages handled per tick
}

func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Interval:    time.Second,
		MaxAttempts: 10,
		BaseBackoff: time.Second,
		MaxBackoff:  5 * time.Minute,
		Lease:       30 * time.Second,
		Rate:        50,
		BatchSize:   100,
	}
}

// ConfigFrom reads the "outbox.*" keys, falling back to the defaults.
func ConfigFrom(config *aqm.Config) DispatcherConfig {
	def := DefaultDispatcherConfig()
	return DispatcherConfig{
		Interval:    pkg.DurationOrDef(config, "outbox.interval", def.Interval),
		MaxAttempts: pkg.IntOrDef(config, "outbox.max_attempts", def.MaxAttempts),
		BaseBackoff: pkg.DurationOrDef(config, "outbox.backoff.base", def.BaseBackoff),
		MaxBackoff:  pkg.DurationOrDef(config, "outbox.backoff.max", def.MaxBackoff),
		Lease:       pkg.DurationOrDef(config, "outbox.lease", def.Lease),
		Rate:        pkg.FloatOrDef(config, "outbox.rate", def.Rate),
		BatchSize:   pkg.IntOrDef(config, "outbox.batch_size", def.BatchSize),
	}
}

// Dispatcher moves pending outbox messages to the event bus. It is started and
// stopped as a service lifecycle.
type Dispatcher struct {
	store     Store
	publisher pkg.MessagePublisher
	cfg       DispatcherConfig
	limiter   *rate.Limiter
	logger    aqm.Logger
	now       func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDispatcher(store Store, publisher pkg.MessagePublisher, cfg DispatcherConfig, logger aqm.Logger) *Dispatcher {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	def := DefaultDispatcherConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}
	if cfg.MaxBackoff < cfg.BaseBackoff {
		cfg.MaxBackoff = cfg.BaseBackoff
	}
	if cfg.Lease <= 0 {
		cfg.Lease = def.Lease
	}
	if cfg.Rate <= 0 {
		cfg.Rate = def.Rate
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}

	return &Dispatcher{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		limiter:   rate.NewLimiter(rate.Limit(cfg.Rate), int(cfg.Rate)+1),
		logger:    logger.With("component", "outbox-dispatcher"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	if d.store == nil || d.publisher == nil {
		return fmt.Errorf("outbox dispatcher not configured")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.cancel = cancel
	d.done = make(chan struct{})

	go d.run(loopCtx, d.done)

	d.logger.Info("Outbox dispatcher started", "interval", d.cfg.Interval.String(), "max_attempts", d.cfg.MaxAttempts)
	return nil
}

func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	d.logger.Info("Outbox dispatcher stopped")
	return nil
}

func (d *Dispatcher) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := d.DispatchDue(ctx); err != nil && ctx.Err() == nil {
			d.logger.Error("outbox dispatch failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// DispatchDue delivers up to one batch of due messages and returns how many
// were sent.
func (d *Dispatcher) DispatchDue(ctx context.Context) (int, error) {
	sent := 0
	for i := 0; i < d.cfg.BatchSize; i++ {
		msg, err := d.store.Claim(ctx, d.now(), d.cfg.Lease)
		if err != nil {
			return sent, err
		}
		if msg == nil {
			return sent, nil
		}

		if err := d.limiter.Wait(ctx); err != nil {
			return sent, err
		}

		ok, err := d.deliver(ctx, msg)
		if err != nil {
			return sent, err
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

func (d *Dispatcher) deliver(ctx context.Context, msg *Message) (bool, error) {
	pubErr := d.publisher.PublishMessage(ctx, pkg.Message{
		ID:    msg.ID.String(),
		Topic: msg.Topic,
		Key:   msg.Key,
		Data:  msg.Payload,
	})
	if pubErr == nil {
		if err := d.store.MarkSent(ctx, msg.ID, d.now()); err != nil {
			return false, err
		}
		d.logger.Debug("outbox message sent", "id", msg.ID.String(), "topic", msg.Topic, "key", msg.Key)
		return true, nil
	}

	attempts := msg.Attempts + 1
	if attempts >= d.cfg.MaxAttempts {
		d.logger.Error("outbox message failed permanently",
			"id", msg.ID.String(), "topic", msg.Topic, "key", msg.Key, "attempts", attempts, "error", pubErr)
		return false, d.store.MarkFailed(ctx, msg.ID, attempts, pubErr.Error())
	}

	next := d.now().Add(Backoff(d.cfg.BaseBackoff, d.cfg.MaxBackoff, attempts))
	d.logger.Info("outbox publish failed, retry scheduled",
		"id", msg.ID.String(), "topic", msg.Topic, "attempts", attempts, "next_attempt_at", next, "error", pubErr)
	return false, d.store.MarkRetry(ctx, msg.ID, attempts, next, pubErr.Error())
}

// Backoff returns base doubled for every attempt after the first, capped at max.
func Backoff(base, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max || d <= 0 {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
