// Package outcometest provides an in-memory outcome store for tests.
package outcometest

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ovaphlow/pitchfork/service-raas/internal/outcome/entity"
	"github.com/ovaphlow/pitchfork/service-raas/internal/outcome/repo"
)

type owner struct {
	email, name string
}

// Store mirrors the SQL repository's semantics over a map.
type Store struct {
	mu       sync.Mutex
	outcomes map[uuid.UUID]entity.Outcome
	owners   map[uuid.UUID]owner
	clock    time.Time
}

func NewStore() *Store {
	return &Store{
		outcomes: map[uuid.UUID]entity.Outcome{},
		owners:   map[uuid.UUID]owner{},
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// AddOwner registers contact details returned by the *WithOwner queries.
func (s *Store) AddOwner(userID uuid.UUID, email, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[userID] = owner{email: email, name: name}
}

// Put stores o as-is, assigning an id and a strictly increasing creation time
// when missing.
func (s *Store) Put(o entity.Outcome) entity.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(o)
}

func (s *Store) put(o entity.Outcome) entity.Outcome {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = entity.StatusPending
	}
	if o.CreatedAt.IsZero() {
		s.clock = s.clock.Add(time.Minute)
		o.CreatedAt = s.clock
	}
	o.UpdatedAt = o.CreatedAt
	s.outcomes[o.ID] = o
	return o
}

// Snapshot returns the stored outcome.
func (s *Store) Snapshot(id uuid.UUID) (entity.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outcomes[id]
	return o, ok
}

func (s *Store) Insert(_ context.Context, o *entity.Outcome) (*entity.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := s.put(*o)
	return &saved, nil
}

func (s *Store) sorted(keep func(entity.Outcome) bool) []entity.Outcome {
	out := []entity.Outcome{}
	for _, o := range s.outcomes {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) ListByOwner(_ context.Context, userID uuid.UUID) ([]entity.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(func(o entity.Outcome) bool { return o.UserID == userID }), nil
}

func (s *Store) ListAll(_ context.Context) ([]entity.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(func(entity.Outcome) bool { return true }), nil
}

func (s *Store) ListRecent(ctx context.Context) ([]entity.Outcome, error) {
	all, _ := s.ListAll(ctx)
	if len(all) > repo.RecentLimit {
		all = all[:repo.RecentLimit]
	}
	return all, nil
}

func (s *Store) withOwner(o entity.Outcome) entity.WithOwner {
	w := entity.WithOwner{Outcome: o}
	if ow, ok := s.owners[o.UserID]; ok {
		email, name := ow.email, ow.name
		w.OwnerEmail, w.OwnerName = &email, &name
	}
	return w
}

func (s *Store) ListAllWithOwner(_ context.Context) ([]entity.WithOwner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.sorted(func(entity.Outcome) bool { return true })
	out := make([]entity.WithOwner, len(rows))
	for i, o := range rows {
		out[i] = s.withOwner(o)
	}
	return out, nil
}

func (s *Store) GetWithOwner(_ context.Context, id uuid.UUID) (*entity.WithOwner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outcomes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	w := s.withOwner(o)
	return &w, nil
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*entity.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outcomes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &o, nil
}

func (s *Store) GetByIDAndOwner(_ context.Context, id, userID uuid.UUID) (*entity.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outcomes[id]
	if !ok || o.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return &o, nil
}

func (s *Store) MarkVerified(_ context.Context, id, userID uuid.UUID, at time.Time) (*entity.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outcomes[id]
	if !ok || o.UserID != userID {
		return nil, sql.ErrNoRows
	}
	o.Status = entity.StatusVerified
	o.VerifiedAt = &at
	s.outcomes[id] = o
	return &o, nil
}

func (s *Store) SetPaymentTriggered(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.outcomes[id]; ok {
		o.PaymentTriggered = true
		s.outcomes[id] = o
	}
	return nil
}

func (s *Store) UpdateStatus(_ context.Context, id uuid.UUID, ownerID *uuid.UUID, c repo.StatusChange) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outcomes[id]
	if !ok || (ownerID != nil && o.UserID != *ownerID) {
		return 0, nil
	}
	o.Status = c.Status
	if c.DeliveredAt != nil {
		o.DeliveredAt = c.DeliveredAt
	}
	if c.VerifiedAt != nil {
		o.VerifiedAt = c.VerifiedAt
	}
	s.outcomes[id] = o
	return 1, nil
}

func (s *Store) MarkPaid(_ context.Context, id uuid.UUID, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outcomes[id]
	if !ok {
		return 0, nil
	}
	o.Status = entity.StatusPaid
	o.PaymentTriggered = true
	o.StripeSessionID = &sessionID
	s.outcomes[id] = o
	return 1, nil
}

func (s *Store) BulkVerify(_ context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		o, ok := s.outcomes[id]
		if !ok {
			continue
		}
		o.Status = entity.StatusVerified
		o.VerifiedAt = &at
		s.outcomes[id] = o
		n++
	}
	return n, nil
}
