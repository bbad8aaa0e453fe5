// Package delivery tracks the lifecycle of one message send on one channel:
// a Delivery record moves queued -> sending -> delivered/partial/failed, with
// failed records re-queued under a bounded backoff schedule when the failure
// was retryable.
package delivery

import (
	"fmt"
	"time"

	"github.com/morrisonak/uta-notify-sub001/pkg/channel"
	"github.com/morrisonak/uta-notify-sub001/pkg/idgen"
)

// Status is the lifecycle state of a delivery.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusSending   Status = "sending"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	// StatusPartial means some recipients were reached and some were not.
	// Partial is terminal; re-sending would duplicate delivery to the
	// recipients that already succeeded.
	StatusPartial Status = "partial"
)

// validTransitions encodes the state machine. Absent source states are
// terminal.
var validTransitions = map[Status][]Status{
	StatusQueued:  {StatusSending},
	StatusSending: {StatusDelivered, StatusPartial, StatusFailed},
	StatusFailed:  {StatusQueued},
}

// canOverwrite reports whether a stored record in status from may be replaced
// by one in status to. Stores apply this on every Update so that an actor
// holding a stale clone cannot resurrect a terminal record or steal a sending
// claim another actor already holds. Stored failed records are always
// terminal: retryable failures re-queue before they reach the store.
func canOverwrite(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusDelivered, StatusPartial, StatusFailed:
		return false
	}
	if to == StatusSending {
		return from == StatusQueued
	}
	return true
}

// Delivery is one attempt stream for a message on a channel.
type Delivery struct {
	ID                string     `json:"id"`
	MessageID         string     `json:"message_id"`
	ChannelType       string     `json:"channel_type"`
	Status            Status     `json:"status"`
	Recipients        []string   `json:"recipients,omitempty"`
	ProviderMessageID string     `json:"provider_message_id,omitempty"`
	FailureReason     string     `json:"failure_reason,omitempty"`
	RetryCount        int        `json:"retry_count"`
	NextRetryAt       *time.Time `json:"next_retry_at,omitempty"`
	QueuedAt          time.Time  `json:"queued_at"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
	FailedAt          *time.Time `json:"failed_at,omitempty"`
}

// New creates a queued delivery for a message on a channel.
func New(messageID string, channelType channel.Type, recipients []string) *Delivery {
	return &Delivery{
		ID:          idgen.DeliveryID(),
		MessageID:   messageID,
		ChannelType: string(channelType),
		Status:      StatusQueued,
		Recipients:  recipients,
		QueuedAt:    time.Now().UTC(),
	}
}

// Terminal reports whether the delivery will never be attempted again.
func (d *Delivery) Terminal() bool {
	switch d.Status {
	case StatusDelivered, StatusPartial:
		return true
	case StatusFailed:
		return d.NextRetryAt == nil
	}
	return false
}

// transition moves the delivery to a new status, rejecting moves the state
// machine does not allow.
func (d *Delivery) transition(to Status) error {
	for _, allowed := range validTransitions[d.Status] {
		if allowed == to {
			d.Status = to
			return nil
		}
	}
	return fmt.Errorf("invalid delivery transition %s -> %s for %s", d.Status, to, d.ID)
}

// MarkSending claims the delivery for an attempt. Only queued deliveries can
// be claimed, which keeps a single attempt in flight.
func (d *Delivery) MarkSending(now time.Time) error {
	if err := d.transition(StatusSending); err != nil {
		return err
	}
	t := now.UTC()
	d.SentAt = &t
	d.NextRetryAt = nil
	return nil
}

// MarkDelivered records full recipient coverage.
func (d *Delivery) MarkDelivered(providerID string, now time.Time) error {
	if err := d.transition(StatusDelivered); err != nil {
		return err
	}
	t := now.UTC()
	d.DeliveredAt = &t
	d.ProviderMessageID = providerID
	d.FailureReason = ""
	return nil
}

// MarkPartial records a mixed outcome. Partial is terminal.
func (d *Delivery) MarkPartial(providerID, reason string, now time.Time) error {
	if err := d.transition(StatusPartial); err != nil {
		return err
	}
	t := now.UTC()
	d.DeliveredAt = &t
	d.ProviderMessageID = providerID
	d.FailureReason = reason
	return nil
}

// MarkFailed records a failed attempt. When the failure is retryable and the
// retry budget allows, the delivery is re-queued with the next backoff delay;
// otherwise it stays failed with no NextRetryAt, which is terminal.
func (d *Delivery) MarkFailed(reason string, retryable bool, policy RetryPolicy, now time.Time) error {
	if err := d.transition(StatusFailed); err != nil {
		return err
	}
	t := now.UTC()
	d.FailedAt = &t
	d.FailureReason = reason

	if retryable && d.RetryCount < policy.MaxRetries {
		next := t.Add(policy.Backoff(d.RetryCount))
		d.RetryCount++
		d.NextRetryAt = &next
		return d.transition(StatusQueued)
	}

	d.NextRetryAt = nil
	return nil
}

// RetryPolicy bounds how often and how soon a failed delivery is retried.
type RetryPolicy struct {
	// BackoffSchedule holds the delay before each retry, indexed by the retry
	// count at failure time. Counts beyond the schedule reuse the last entry.
	BackoffSchedule []time.Duration
	MaxRetries      int
}

// DefaultRetryPolicy returns the standard schedule: three retries at 5, 15
// and 60 minutes.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BackoffSchedule: []time.Duration{5 * time.Minute, 15 * time.Minute, 60 * time.Minute},
		MaxRetries:      3,
	}
}

// Backoff returns the delay before the retry following the given retry count.
func (p RetryPolicy) Backoff(retryCount int) time.Duration {
	if len(p.BackoffSchedule) == 0 {
		return 5 * time.Minute
	}
	if retryCount >= len(p.BackoffSchedule) {
		return p.BackoffSchedule[len(p.BackoffSchedule)-1]
	}
	return p.BackoffSchedule[retryCount]
}
