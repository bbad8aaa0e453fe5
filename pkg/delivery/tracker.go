package delivery

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
	"github.com/morrisonak/uta-notify-sub001/pkg/logger"
	"github.com/morrisonak/uta-notify-sub001/pkg/message"
	"github.com/morrisonak/uta-notify-sub001/pkg/telemetry"
)

const defaultSendTimeout = 30 * time.Second

// Tracker drives the delivery state machine: it creates records, claims them
// for attempts, invokes the registry under a per-call timeout and a
// per-channel rate limiter, and resolves the outcome.
type Tracker struct {
	registry  *channel.Registry
	store     Store
	policy    RetryPolicy
	timeout   time.Duration
	logger    logger.Logger
	telemetry *telemetry.Provider

	mu       sync.Mutex
	limiters map[channel.Type]*rate.Limiter
}

// TrackerOption customizes a Tracker.
type TrackerOption func(*Tracker)

// WithRetryPolicy overrides the default retry schedule.
func WithRetryPolicy(p RetryPolicy) TrackerOption {
	return func(t *Tracker) { t.policy = p }
}

// WithSendTimeout overrides the per-attempt timeout.
func WithSendTimeout(d time.Duration) TrackerOption {
	return func(t *Tracker) { t.timeout = d }
}

// WithTelemetry attaches a telemetry provider.
func WithTelemetry(p *telemetry.Provider) TrackerOption {
	return func(t *Tracker) { t.telemetry = p }
}

// NewTracker creates a tracker over a registry and a store.
func NewTracker(registry *channel.Registry, store Store, log logger.Logger, opts ...TrackerOption) *Tracker {
	if log == nil {
		log = logger.Discard
	}
	t := &Tracker{
		registry: registry,
		store:    store,
		policy:   DefaultRetryPolicy(),
		timeout:  defaultSendTimeout,
		logger:   log,
		limiters: make(map[channel.Type]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Dispatch creates a delivery for the message on the channel and runs the
// first attempt immediately. The returned record reflects the outcome; a
// non-nil error means the store failed, not the provider.
func (t *Tracker) Dispatch(ctx context.Context, channelType channel.Type, msg *message.Message, recipients []string, cfg *channel.Config) (*Delivery, error) {
	d := New(msg.ID, channelType, recipients)
	if err := t.store.Create(ctx, d); err != nil {
		return nil, err
	}
	return t.attempt(ctx, d, msg, cfg)
}

// Redeliver runs another attempt for an existing queued delivery. The
// scheduler calls this for due retries.
func (t *Tracker) Redeliver(ctx context.Context, d *Delivery, msg *message.Message, cfg *channel.Config) (*Delivery, error) {
	if d.Status != StatusQueued {
		return nil, errors.Newf(errors.CodeInternal, "delivery %s is %s, only queued deliveries can be attempted", d.ID, d.Status)
	}
	return t.attempt(ctx, d, msg, cfg)
}

// attempt claims the delivery, sends, and resolves the outcome. The
// queued -> sending swap keeps a single attempt in flight per delivery.
func (t *Tracker) attempt(ctx context.Context, d *Delivery, msg *message.Message, cfg *channel.Config) (*Delivery, error) {
	now := time.Now()
	if err := d.MarkSending(now); err != nil {
		return nil, err
	}
	if err := t.store.Update(ctx, d); err != nil {
		return nil, err
	}

	channelType := channel.Type(d.ChannelType)
	if err := t.waitForSlot(ctx, channelType, cfg); err != nil {
		return t.resolveFailure(ctx, d, err.Error(), true, now)
	}

	sendCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	started := time.Now()
	var result *channel.SendResult
	if t.telemetry != nil {
		spanCtx, sendSpan := t.telemetry.TraceSend(sendCtx, msg.ID, d.ChannelType, len(d.Recipients))
		result = t.registry.Send(spanCtx, channelType, msg, d.Recipients, cfg)
		var spanErr error
		if !result.Success {
			spanErr = errors.New(errors.CodeInternal, result.Error)
		}
		t.telemetry.EndSpan(sendSpan, spanErr)
	} else {
		result = t.registry.Send(sendCtx, channelType, msg, d.Recipients, cfg)
	}
	elapsed := time.Since(started)

	switch {
	case result.Success && result.Error == "":
		if err := d.MarkDelivered(result.MessageID, time.Now()); err != nil {
			return nil, err
		}
		if t.telemetry != nil {
			t.telemetry.RecordDelivered(ctx, d.ChannelType, elapsed)
		}
		t.logger.Info("Delivery completed",
			"deliveryID", d.ID,
			"channel", d.ChannelType,
			"recipients", result.RecipientCount)

	case result.Success:
		// Mixed outcome. Partial is terminal; a blanket retry would repeat
		// delivery to the recipients that already succeeded.
		if err := d.MarkPartial(result.MessageID, result.Error, time.Now()); err != nil {
			return nil, err
		}
		if t.telemetry != nil {
			t.telemetry.RecordDelivered(ctx, d.ChannelType, elapsed)
		}
		t.logger.Warn("Delivery partially completed",
			"deliveryID", d.ID,
			"channel", d.ChannelType,
			"detail", result.Error)

	default:
		if t.telemetry != nil {
			t.telemetry.RecordFailed(ctx, d.ChannelType, result.Error, elapsed)
		}
		return t.resolveFailure(ctx, d, result.Error, result.Retryable, time.Now())
	}

	if err := t.store.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// resolveFailure applies the failed transition and persists it.
func (t *Tracker) resolveFailure(ctx context.Context, d *Delivery, reason string, retryable bool, now time.Time) (*Delivery, error) {
	if err := d.MarkFailed(reason, retryable, t.policy, now); err != nil {
		return nil, err
	}

	if d.Status == StatusQueued {
		if t.telemetry != nil {
			t.telemetry.RecordRetry(ctx, d.ChannelType)
		}
		t.logger.Warn("Delivery failed, retry scheduled",
			"deliveryID", d.ID,
			"channel", d.ChannelType,
			"retryCount", d.RetryCount,
			"nextRetryAt", d.NextRetryAt,
			"reason", reason)
	} else {
		t.logger.Error("Delivery failed permanently",
			"deliveryID", d.ID,
			"channel", d.ChannelType,
			"retryCount", d.RetryCount,
			"reason", reason)
	}

	if err := t.store.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// waitForSlot blocks on the channel's rate limiter when the channel declares
// a per-minute limit.
func (t *Tracker) waitForSlot(ctx context.Context, channelType channel.Type, cfg *channel.Config) error {
	adapter, err := t.registry.Get(channelType, cfg != nil && cfg.TestMode)
	if err != nil {
		// Resolution failures surface through registry.Send.
		return nil
	}
	perMinute := adapter.Constraints().RateLimit
	if perMinute <= 0 {
		return nil
	}

	t.mu.Lock()
	limiter, ok := t.limiters[channelType]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
		t.limiters[channelType] = limiter
	}
	t.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, errors.CodeRateLimited, "rate limit wait aborted")
	}
	return nil
}
