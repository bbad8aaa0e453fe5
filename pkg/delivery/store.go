package delivery

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
)

// Store persists delivery records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Create persists a new delivery. The ID must be unused.
	Create(ctx context.Context, d *Delivery) error

	// Update overwrites an existing delivery.
	Update(ctx context.Context, d *Delivery) error

	// Get fetches a delivery by ID.
	Get(ctx context.Context, id string) (*Delivery, error)

	// ListDue returns queued deliveries whose NextRetryAt is at or before
	// now, plus queued deliveries with no retry time (first attempts).
	ListDue(ctx context.Context, now time.Time) ([]*Delivery, error)

	// ListByMessage returns all deliveries for a message, oldest first.
	ListByMessage(ctx context.Context, messageID string) ([]*Delivery, error)

	// Close releases store resources.
	Close() error
}

// MemoryStore is an in-process Store for tests and single-node deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Delivery
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Delivery)}
}

// Create persists a new delivery.
func (s *MemoryStore) Create(ctx context.Context, d *Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[d.ID]; exists {
		return errors.Newf(errors.CodeInternal, "delivery %s already exists", d.ID)
	}
	s.records[d.ID] = cloneDelivery(d)
	return nil
}

// Update overwrites an existing delivery. The overwrite is conditional on the
// stored status so stale clones cannot undo a resolution that already
// happened.
func (s *MemoryStore) Update(ctx context.Context, d *Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.records[d.ID]
	if !exists {
		return errors.Newf(errors.CodeInternal, "delivery %s not found", d.ID)
	}
	if !canOverwrite(stored.Status, d.Status) {
		return errors.Newf(errors.CodeInternal,
			"delivery %s is %s, refusing stale %s overwrite", d.ID, stored.Status, d.Status)
	}
	s.records[d.ID] = cloneDelivery(d)
	return nil
}

// Get fetches a delivery by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.records[id]
	if !exists {
		return nil, errors.Newf(errors.CodeInternal, "delivery %s not found", id)
	}
	return cloneDelivery(d), nil
}

// ListDue returns queued deliveries ready for an attempt.
func (s *MemoryStore) ListDue(ctx context.Context, now time.Time) ([]*Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []*Delivery
	for _, d := range s.records {
		if d.Status != StatusQueued {
			continue
		}
		if d.NextRetryAt != nil && d.NextRetryAt.After(now) {
			continue
		}
		due = append(due, cloneDelivery(d))
	}
	sort.Slice(due, func(i, j int) bool { return due[i].QueuedAt.Before(due[j].QueuedAt) })
	return due, nil
}

// ListByMessage returns all deliveries for a message, oldest first.
func (s *MemoryStore) ListByMessage(ctx context.Context, messageID string) ([]*Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Delivery
	for _, d := range s.records {
		if d.MessageID == messageID {
			out = append(out, cloneDelivery(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QueuedAt.Before(out[j].QueuedAt) })
	return out, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }

// cloneDelivery copies a record so callers cannot mutate stored state.
func cloneDelivery(d *Delivery) *Delivery {
	out := *d
	if d.Recipients != nil {
		out.Recipients = append([]string(nil), d.Recipients...)
	}
	if d.NextRetryAt != nil {
		t := *d.NextRetryAt
		out.NextRetryAt = &t
	}
	if d.SentAt != nil {
		t := *d.SentAt
		out.SentAt = &t
	}
	if d.DeliveredAt != nil {
		t := *d.DeliveredAt
		out.DeliveredAt = &t
	}
	if d.FailedAt != nil {
		t := *d.FailedAt
		out.FailedAt = &t
	}
	return &out
}
