package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/logger"
	"github.com/morrisonak/uta-notify-sub001/pkg/message"
)

const defaultPollInterval = 30 * time.Second

// Resolver supplies the scheduler with the message content and channel config
// a retry needs. The delivery record only carries identifiers.
type Resolver interface {
	// Message returns the message a delivery was created for.
	Message(ctx context.Context, messageID string) (*message.Message, error)

	// Config returns the live config for a channel type.
	Config(channelType channel.Type) (*channel.Config, error)
}

// Scheduler polls the store for due queued deliveries and re-dispatches them
// through the tracker.
type Scheduler struct {
	tracker  *Tracker
	store    Store
	resolver Resolver
	interval time.Duration
	logger   logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler. A non-positive interval uses the default.
func NewScheduler(tracker *Tracker, store Store, resolver Resolver, interval time.Duration, log logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if log == nil {
		log = logger.Discard
	}
	return &Scheduler{
		tracker:  tracker,
		store:    store,
		resolver: resolver,
		interval: interval,
		logger:   log,
	}
}

// Start launches the polling loop. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done

	go s.run(ctx, done)
	s.logger.Info("Retry scheduler started", "interval", s.interval)
}

// Stop halts the polling loop and waits for the in-flight sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("Retry scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep claims every due delivery and re-attempts it. Claim conflicts with a
// concurrent attempt fail the queued -> sending transition and are skipped.
func (s *Scheduler) sweep(ctx context.Context) {
	due, err := s.store.ListDue(ctx, time.Now())
	if err != nil {
		s.logger.Error("Failed to scan due deliveries", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	s.logger.Debug("Retry sweep", "due", len(due))

	for _, d := range due {
		if ctx.Err() != nil {
			return
		}

		msg, err := s.resolver.Message(ctx, d.MessageID)
		if err != nil {
			s.logger.Error("Cannot resolve message for retry",
				"deliveryID", d.ID,
				"messageID", d.MessageID,
				"error", err)
			continue
		}

		cfg, err := s.resolver.Config(channel.Type(d.ChannelType))
		if err != nil {
			s.logger.Error("Cannot resolve channel config for retry",
				"deliveryID", d.ID,
				"channel", d.ChannelType,
				"error", err)
			continue
		}

		if _, err := s.tracker.Redeliver(ctx, d, msg, cfg); err != nil {
			s.logger.Warn("Retry attempt not run", "deliveryID", d.ID, "error", err)
		}
	}
}
