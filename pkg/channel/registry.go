package channel

import (
	"context"
	"sync"

	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
	"github.com/morrisonak/uta-notify-sub001/pkg/logger"
	"github.com/morrisonak/uta-notify-sub001/pkg/message"
)

// SimulatedFactory builds a simulated adapter for a channel type. The
// registry constructs one simulated adapter per known type at startup so test
// mode is always available and unconfigured channels have a fallback.
type SimulatedFactory func(t Type) Adapter

// Registry maps channel types to live adapter instances. It is constructed
// explicitly and passed to callers; there is no package-level instance.
type Registry struct {
	mu        sync.RWMutex
	adapters  map[Type]Adapter
	simulated map[Type]Adapter
	logger    logger.Logger
}

// NewRegistry creates a registry with simulated adapters pre-built for every
// known channel type.
func NewRegistry(log logger.Logger, simulated SimulatedFactory) *Registry {
	if log == nil {
		log = logger.Discard
	}

	r := &Registry{
		adapters:  make(map[Type]Adapter),
		simulated: make(map[Type]Adapter),
		logger:    log,
	}
	for _, t := range KnownTypes() {
		r.simulated[t] = simulated(t)
	}
	return r
}

// Register adds a production adapter for its channel type.
func (r *Registry) Register(adapter Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := adapter.Name()
	if _, exists := r.adapters[t]; exists {
		return errors.Newf(errors.CodeInternal, "channel %s already registered", t)
	}

	r.adapters[t] = adapter
	r.logger.Info("Channel adapter registered", "channel", t)
	return nil
}

// Unregister removes the production adapter for a channel type. The simulated
// fallback remains available.
func (r *Registry) Unregister(t Type) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.adapters, t)
	r.logger.Info("Channel adapter unregistered", "channel", t)
}

// Get resolves an adapter for a channel type. Test mode always resolves to
// the simulated adapter. Without test mode, an unregistered channel degrades
// to the simulated adapter rather than failing, so misconfigured channels
// produce harmless simulated sends instead of hard errors.
func (r *Registry) Get(t Type, testMode bool) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sim, known := r.simulated[t]
	if !known {
		return nil, errors.Newf(errors.CodeNoAdapter, "unknown channel type %q", t)
	}

	if testMode {
		return sim, nil
	}

	if adapter, ok := r.adapters[t]; ok {
		return adapter, nil
	}

	r.logger.Warn("No production adapter registered, falling back to simulated", "channel", t)
	return sim, nil
}

// Registered returns the channel types with a production adapter.
func (r *Registry) Registered() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]Type, 0, len(r.adapters))
	for t := range r.adapters {
		types = append(types, t)
	}
	return types
}

// ValidateMessage delegates content validation to the resolved adapter. This
// is a pre-send check and fails fast when no adapter resolves.
func (r *Registry) ValidateMessage(t Type, content string) (ValidationResult, error) {
	adapter, err := r.Get(t, false)
	if err != nil {
		return ValidationResult{}, err
	}
	return adapter.ValidateContent(content), nil
}

// FormatMessage delegates content formatting to the resolved adapter,
// failing fast when no adapter resolves.
func (r *Registry) FormatMessage(t Type, content string) (string, error) {
	adapter, err := r.Get(t, false)
	if err != nil {
		return "", err
	}
	return adapter.FormatContent(content), nil
}

// Send resolves the adapter and dispatches. Consistent with the adapter
// contract, it never returns a Go error: resolution failures are synthesized
// into a non-retryable failure result.
func (r *Registry) Send(ctx context.Context, t Type, msg *message.Message, recipients []string, cfg *Config) *SendResult {
	adapter, err := r.Get(t, cfg != nil && cfg.TestMode)
	if err != nil {
		return &SendResult{
			Success:   false,
			Error:     "no adapter registered for channel " + string(t),
			Retryable: false,
		}
	}
	return adapter.Send(ctx, msg, recipients, cfg)
}

// TestConnection probes the resolved adapter's connectivity. Like Send it
// never returns a Go error.
func (r *Registry) TestConnection(ctx context.Context, t Type, cfg *Config) HealthStatus {
	adapter, err := r.Get(t, cfg != nil && cfg.TestMode)
	if err != nil {
		return HealthStatus{Healthy: false, Message: "no adapter registered for channel " + string(t)}
	}
	return adapter.HealthCheck(ctx, cfg)
}

// GetStatus queries the provider-side delivery status for an external ID when
// the adapter supports it. Unsupported channels report ok=false.
func (r *Registry) GetStatus(ctx context.Context, t Type, externalID string, cfg *Config) (*StatusInfo, bool, error) {
	adapter, err := r.Get(t, cfg != nil && cfg.TestMode)
	if err != nil {
		return nil, false, err
	}
	if !adapter.Capabilities().SupportsStatusQuery {
		return nil, false, nil
	}
	querier, ok := adapter.(StatusQuerier)
	if !ok {
		return nil, false, nil
	}
	info, err := querier.GetStatus(ctx, externalID, cfg)
	return info, true, err
}
