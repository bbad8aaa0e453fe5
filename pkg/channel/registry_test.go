package channel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morrisonak/uta-notify-sub001/pkg/logger"
	"github.com/morrisonak/uta-notify-sub001/pkg/message"
)

// stubAdapter is a minimal adapter for registry tests.
type stubAdapter struct {
	channelType Type
	simulated   bool
	sendResult  *SendResult
	sendCalls   int
}

func (s *stubAdapter) Name() Type               { return s.channelType }
func (s *stubAdapter) Constraints() Constraints { return Constraints{MaxLength: 100} }

func (s *stubAdapter) Capabilities() Capabilities {
	return Capabilities{SupportsHealthCheck: true}
}

func (s *stubAdapter) ValidateContent(content string) ValidationResult {
	return DefaultValidateContent(content, s.Constraints())
}

func (s *stubAdapter) FormatContent(content string) string {
	return DefaultFormatContent(content, s.Constraints())
}

func (s *stubAdapter) Send(ctx context.Context, msg *message.Message, recipients []string, cfg *Config) *SendResult {
	s.sendCalls++
	if s.sendResult != nil {
		return s.sendResult
	}
	return SuccessResult("stub-id", len(recipients))
}

func (s *stubAdapter) HealthCheck(ctx context.Context, cfg *Config) HealthStatus {
	return HealthStatus{Healthy: true, Message: "stub"}
}

func newTestRegistry() (*Registry, map[Type]*stubAdapter) {
	sims := make(map[Type]*stubAdapter)
	r := NewRegistry(logger.Discard, func(t Type) Adapter {
		sim := &stubAdapter{channelType: t, simulated: true}
		sims[t] = sim
		return sim
	})
	return r, sims
}

func TestRegistryGet(t *testing.T) {
	t.Run("registered adapter resolves", func(t *testing.T) {
		r, _ := newTestRegistry()
		prod := &stubAdapter{channelType: TypeSMS}
		require.NoError(t, r.Register(prod))

		got, err := r.Get(TypeSMS, false)
		require.NoError(t, err)
		assert.Same(t, Adapter(prod), got)
	})

	t.Run("unregistered channel falls back to simulated", func(t *testing.T) {
		r, sims := newTestRegistry()

		got, err := r.Get(TypeEmail, false)
		require.NoError(t, err)
		assert.Same(t, Adapter(sims[TypeEmail]), got)
	})

	t.Run("test mode always resolves simulated", func(t *testing.T) {
		r, sims := newTestRegistry()
		require.NoError(t, r.Register(&stubAdapter{channelType: TypeSMS}))

		got, err := r.Get(TypeSMS, true)
		require.NoError(t, err)
		assert.Same(t, Adapter(sims[TypeSMS]), got)
	})

	t.Run("unknown type errors", func(t *testing.T) {
		r, _ := newTestRegistry()
		_, err := r.Get(Type("carrier-pigeon"), false)
		assert.Error(t, err)
	})
}

func TestRegistryRegister(t *testing.T) {
	t.Run("duplicate registration errors", func(t *testing.T) {
		r, _ := newTestRegistry()
		require.NoError(t, r.Register(&stubAdapter{channelType: TypeSMS}))
		assert.Error(t, r.Register(&stubAdapter{channelType: TypeSMS}))
	})

	t.Run("unregister restores fallback", func(t *testing.T) {
		r, sims := newTestRegistry()
		require.NoError(t, r.Register(&stubAdapter{channelType: TypePush}))
		r.Unregister(TypePush)

		got, err := r.Get(TypePush, false)
		require.NoError(t, err)
		assert.Same(t, Adapter(sims[TypePush]), got)
	})
}

func TestRegistrySend(t *testing.T) {
	msg := message.New("inc_1", 1, "Red Line delayed")

	t.Run("unknown channel synthesizes failure without error", func(t *testing.T) {
		r, _ := newTestRegistry()

		result := r.Send(context.Background(), Type("fax"), msg, []string{"x"}, nil)
		require.NotNil(t, result)
		assert.False(t, result.Success)
		assert.False(t, result.Retryable)
		assert.Contains(t, result.Error, "no adapter registered")
	})

	t.Run("dispatches to registered adapter", func(t *testing.T) {
		r, _ := newTestRegistry()
		prod := &stubAdapter{channelType: TypeSMS}
		require.NoError(t, r.Register(prod))

		result := r.Send(context.Background(), TypeSMS, msg, []string{"+18015550100"}, nil)
		assert.True(t, result.Success)
		assert.Equal(t, 1, prod.sendCalls)
	})
}

func TestRegistryValidateAndFormat(t *testing.T) {
	r, _ := newTestRegistry()

	t.Run("validate fails fast on unknown channel", func(t *testing.T) {
		_, err := r.ValidateMessage(Type("fax"), "hello")
		assert.Error(t, err)
	})

	t.Run("format delegates to adapter", func(t *testing.T) {
		formatted, err := r.FormatMessage(TypeSMS, "hello")
		require.NoError(t, err)
		assert.Equal(t, "hello", formatted)
	})
}

func TestRegistryTestConnection(t *testing.T) {
	r, _ := newTestRegistry()

	status := r.TestConnection(context.Background(), Type("fax"), nil)
	assert.False(t, status.Healthy)
	assert.Contains(t, status.Message, "no adapter registered")
}
