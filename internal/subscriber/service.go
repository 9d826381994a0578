// Package subscriber manages per-user transactional email preferences.
package subscriber

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/subscriber/entity"
)

// Kind selects one class of transactional email.
type Kind string

const (
	KindDelivery Kind = "delivery"
	KindPayment  Kind = "payment"
)

type Store interface {
	Ensure(ctx context.Context, userID uuid.UUID) error
	Get(ctx context.Context, userID uuid.UUID) (*entity.Subscriber, error)
	Save(ctx context.Context, s *entity.Subscriber) (*entity.Subscriber, error)
}

type Service struct {
	store  Store
	logger *zap.SugaredLogger
}

func NewService(store Store, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, logger: logger}
}

// Ensure creates the default preference row for a new user.
func (s *Service) Ensure(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Ensure(ctx, userID); err != nil {
		return fmt.Errorf("ensure notification preferences: %w", err)
	}
	return nil
}

// Get returns the stored preferences, or the defaults when none are stored.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*entity.Subscriber, error) {
	sub, err := s.store.Get(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Default(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification preferences: %w", err)
	}
	return sub, nil
}

type UpdateInput struct {
	EmailOnDelivery *bool `json:"email_on_delivery"`
	EmailOnPayment  *bool `json:"email_on_payment"`
}

// Update applies the non-nil fields of in.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, in UpdateInput) (*entity.Subscriber, error) {
	cur, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.EmailOnDelivery != nil {
		cur.EmailOnDelivery = *in.EmailOnDelivery
	}
	if in.EmailOnPayment != nil {
		cur.EmailOnPayment = *in.EmailOnPayment
	}
	saved, err := s.store.Save(ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("save notification preferences: %w", err)
	}
	return saved, nil
}

// Wants reports whether userID accepts emails of kind k. Lookup failures
// default to sending.
func (s *Service) Wants(ctx context.Context, userID uuid.UUID, k Kind) bool {
	sub, err := s.Get(ctx, userID)
	if err != nil {
		s.logger.Warnw("preference lookup failed, sending anyway", "user_id", userID, "err", err)
		return true
	}
	switch k {
	case KindDelivery:
		return sub.EmailOnDelivery
	case KindPayment:
		return sub.EmailOnPayment
	default:
		return true
	}
}
