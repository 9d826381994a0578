// Package payment opens hosted checkout sessions for verified outcomes and
// settles them from the provider's webhook.
package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
	oentity "github.com/ovaphlow/pitchfork/service-raas/internal/outcome/entity"
)

// ErrNotConfigured is returned when no payment provider is set up.
var ErrNotConfigured = errors.New("payments not configured")

// ErrSignature marks webhook payloads that fail verification.
var ErrSignature = errors.New("webhook signature verification failed")

// ErrMalformedEvent marks verified webhook payloads that cannot be decoded.
var ErrMalformedEvent = errors.New("malformed webhook event")

type OutcomeStore interface {
	GetByIDAndOwner(ctx context.Context, id, userID uuid.UUID) (*oentity.Outcome, error)
	GetWithOwner(ctx context.Context, id uuid.UUID) (*oentity.WithOwner, error)
	MarkPaid(ctx context.Context, id uuid.UUID, sessionID string) (int64, error)
}

type Notifier interface {
	PaymentConfirmed(ctx context.Context, userID uuid.UUID, to, title string, amountCents int64) error
}

type EventRecorder interface {
	Event(event, userID string, kv ...any)
}

type Settings struct {
	Currency string
	AppURL   string
}

type Service struct {
	provider Provider
	outcomes OutcomeStore
	notifier Notifier
	rec      EventRecorder
	settings Settings
	logger   *zap.SugaredLogger
}

// NewService wires the payment flow. A nil provider disables checkout and webhooks.
func NewService(provider Provider, outcomes OutcomeStore, notifier Notifier, rec EventRecorder,
	settings Settings, logger *zap.SugaredLogger) *Service {
	settings.AppURL = strings.TrimRight(settings.AppURL, "/")
	if settings.Currency == "" {
		settings.Currency = "aud"
	}
	return &Service{provider: provider, outcomes: outcomes, notifier: notifier, rec: rec, settings: settings, logger: logger}
}

type CheckoutResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CreateCheckout opens a checkout session for one of the caller's priced outcomes.
func (s *Service) CreateCheckout(ctx context.Context, p *auth.Principal, outcomeID uuid.UUID) (*CheckoutResult, error) {
	if s.provider == nil {
		return nil, ErrNotConfigured
	}
	o, err := s.outcomes.GetByIDAndOwner(ctx, outcomeID, p.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("outcome")
	}
	if err != nil {
		return nil, fmt.Errorf("load outcome: %w", err)
	}
	if o.AmountCents <= 0 {
		return nil, apperr.Validation("outcome has no amount to charge")
	}
	id := o.ID.String()
	session, err := s.provider.CreateCheckoutSession(ctx, CheckoutRequest{
		OutcomeID:     id,
		AmountCents:   o.AmountCents,
		Currency:      s.settings.Currency,
		ProductName:   "Lumina RaaS Outcome – " + id[:8],
		Description:   "Pay only for this verified, delivered result",
		SuccessURL:    s.settings.AppURL + "/dashboard?payment=success",
		CancelURL:     s.settings.AppURL + "/dashboard?payment=cancelled",
		CustomerEmail: p.Email,
	})
	if err != nil {
		return nil, err
	}
	s.rec.Event("checkout_session_created", p.AuthID, "outcome_id", id, "session_id", session.ID)
	return &CheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}

// HandleWebhook verifies and applies a provider event. Completed checkouts
// mark the outcome paid and email the owner. Redelivered events are applied
// again.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.provider == nil {
		return ErrNotConfigured
	}
	evt, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	if evt.Checkout == nil {
		s.logger.Debugw("payment event ignored", "type", evt.Type, "id", evt.ID)
		return nil
	}
	c := evt.Checkout
	if c.OutcomeID == "" {
		s.logger.Warnw("checkout completed without outcome metadata", "session_id", c.SessionID)
		return nil
	}
	outcomeID, err := uuid.Parse(c.OutcomeID)
	if err != nil {
		s.logger.Warnw("checkout completed with malformed outcome id", "session_id", c.SessionID, "outcome_id", c.OutcomeID)
		return nil
	}

	n, err := s.outcomes.MarkPaid(ctx, outcomeID, c.SessionID)
	if err != nil {
		return fmt.Errorf("mark paid: %w", err)
	}
	if n == 0 {
		s.logger.Warnw("checkout completed for unknown outcome", "outcome_id", outcomeID, "session_id", c.SessionID)
		return nil
	}

	o, err := s.outcomes.GetWithOwner(ctx, outcomeID)
	switch {
	case err != nil:
		s.logger.Warnw("payment email skipped, outcome reload failed", "outcome_id", outcomeID, "err", err)
	case o.OwnerEmail == nil || *o.OwnerEmail == "":
		s.logger.Infow("payment email skipped, owner has no email", "outcome_id", outcomeID)
	default:
		if err := s.notifier.PaymentConfirmed(ctx, o.UserID, *o.OwnerEmail, o.Title, c.AmountTotal); err != nil {
			s.logger.Warnw("payment email not sent", "outcome_id", outcomeID, "err", err)
		}
	}

	s.rec.Event("payment_completed", "", "outcome_id", outcomeID, "amount", c.AmountTotal, "session_id", c.SessionID)
	return nil
}
