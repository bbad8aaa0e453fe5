package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/logger"
	"github.com/morrisonak/uta-notify-sub001/pkg/message"
)

// staticResolver serves one message and one config for every lookup.
type staticResolver struct {
	msg *message.Message
	cfg *channel.Config
}

func (r *staticResolver) Message(ctx context.Context, messageID string) (*message.Message, error) {
	return r.msg, nil
}

func (r *staticResolver) Config(channelType channel.Type) (*channel.Config, error) {
	return r.cfg, nil
}

func TestSchedulerSweep(t *testing.T) {
	ctx := context.Background()
	msg := message.New("inc_1", 1, "Red Line delayed")

	tracker, store, adapter := newTrackerWith(t,
		&channel.SendResult{Success: false, Error: "provider down", Retryable: true},
		channel.SuccessResult("SM2", 1),
	)

	d, err := tracker.Dispatch(ctx, channel.TypeSMS, msg, []string{"+18015550100"}, nil)
	require.NoError(t, err)
	require.Equal(t, StatusQueued, d.Status)

	// Pull the retry time into the past so the sweep picks it up.
	past := time.Now().Add(-time.Second)
	d.NextRetryAt = &past
	require.NoError(t, store.Update(ctx, d))

	s := NewScheduler(tracker, store, &staticResolver{msg: msg}, time.Hour, logger.Discard)
	s.sweep(ctx)

	assert.Equal(t, 2, adapter.calls)

	final, err := store.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, final.Status)
}

func TestSchedulerStartStop(t *testing.T) {
	tracker, store, _ := newTrackerWith(t, channel.SuccessResult("SM1", 1))

	s := NewScheduler(tracker, store, &staticResolver{msg: message.New("inc_1", 1, "x")}, 10*time.Millisecond, logger.Discard)

	s.Start(context.Background())
	s.Start(context.Background()) // second start is a no-op
	time.Sleep(30 * time.Millisecond)
	s.Stop()
	s.Stop() // second stop is a no-op
}
