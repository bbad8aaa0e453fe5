// Package simulated provides the test-mode channel adapter. It accepts any
// content, sleeps briefly to imitate provider latency, logs the attempt, and
// succeeds except for a small fixed random-failure rate so retry logic can be
// exercised without external dependencies.
package simulated

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
	"github.com/morrisonak/uta-notify-sub001/pkg/logger"
	"github.com/morrisonak/uta-notify-sub001/pkg/message"
)

// FailureRate is the fraction of simulated sends that fail with a retryable
// error.
const FailureRate = 0.02

// artificialDelay imitates a provider round trip.
const artificialDelay = 50 * time.Millisecond

// Adapter is a simulated channel adapter for one channel type.
type Adapter struct {
	channelType channel.Type
	logger      logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a simulated adapter for the given channel type.
func New(t channel.Type, log logger.Logger) *Adapter {
	if log == nil {
		log = logger.Discard
	}
	return &Adapter{
		channelType: t,
		logger:      log,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewDeterministic creates a simulated adapter with a fixed random seed, for
// tests that need reproducible failures.
func NewDeterministic(t channel.Type, log logger.Logger, seed int64) *Adapter {
	a := New(t, log)
	a.rng = rand.New(rand.NewSource(seed))
	return a
}

// Name returns the simulated channel type.
func (a *Adapter) Name() channel.Type {
	return a.channelType
}

// Constraints returns permissive limits; simulated sends accept any content.
func (a *Adapter) Constraints() channel.Constraints {
	return channel.Constraints{MaxLength: 0}
}

// Capabilities reports the simulated adapter's capability flags.
func (a *Adapter) Capabilities() channel.Capabilities {
	return channel.Capabilities{
		SupportsHealthCheck: true,
		SupportsBatch:       true,
	}
}

// ValidateContent accepts any non-empty content.
func (a *Adapter) ValidateContent(content string) channel.ValidationResult {
	return channel.DefaultValidateContent(content, a.Constraints())
}

// FormatContent passes content through unchanged.
func (a *Adapter) FormatContent(content string) string {
	return content
}

// Send logs the attempt and succeeds unless the random-failure rate fires.
func (a *Adapter) Send(ctx context.Context, msg *message.Message, recipients []string, cfg *channel.Config) *channel.SendResult {
	select {
	case <-time.After(artificialDelay):
	case <-ctx.Done():
		return channel.FailureResult(errors.Wrap(ctx.Err(), errors.CodeNetworkTimeout, "simulated send cancelled"))
	}

	a.logger.Info("Simulated send",
		"channel", a.channelType,
		"messageID", msg.ID,
		"recipients", len(recipients))

	a.mu.Lock()
	failed := a.rng.Float64() < FailureRate
	a.mu.Unlock()

	if failed {
		return channel.FailureResult(errors.Newf(errors.CodeProviderUnavailable,
			"simulated %s provider failure", a.channelType))
	}

	count := len(recipients)
	if count == 0 {
		count = 1
	}
	return channel.SuccessResult(fmt.Sprintf("sim_%s_%d", a.channelType, time.Now().UnixNano()), count)
}

// HealthCheck always reports healthy.
func (a *Adapter) HealthCheck(ctx context.Context, cfg *channel.Config) channel.HealthStatus {
	return channel.HealthStatus{Healthy: true, Message: "simulated adapter"}
}
