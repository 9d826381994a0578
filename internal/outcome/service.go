// Package outcome implements the outcome lifecycle: creation, ownership-scoped
// reads, customer verification, status updates and exports.
package outcome

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
	"github.com/ovaphlow/pitchfork/service-raas/internal/outcome/entity"
	"github.com/ovaphlow/pitchfork/service-raas/internal/outcome/repo"
)

const minTitleLen = 3

type Store interface {
	Insert(ctx context.Context, o *entity.Outcome) (*entity.Outcome, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]entity.Outcome, error)
	ListAll(ctx context.Context) ([]entity.Outcome, error)
	GetByIDAndOwner(ctx context.Context, id, userID uuid.UUID) (*entity.Outcome, error)
	MarkVerified(ctx context.Context, id, userID uuid.UUID, at time.Time) (*entity.Outcome, error)
	SetPaymentTriggered(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, owner *uuid.UUID, c repo.StatusChange) (int64, error)
}

type EventRecorder interface {
	Event(event, userID string, kv ...any)
}

type Service struct {
	store  Store
	rec    EventRecorder
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewService(store Store, rec EventRecorder, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, rec: rec, logger: logger, now: time.Now}
}

type CreateInput struct {
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	PRDID           *string `json:"prdId"`
	SuccessCriteria *string `json:"successCriteria"`
	AmountCents     int64   `json:"amountCents"`
}

type CreateResult struct {
	OutcomeID uuid.UUID     `json:"outcomeId"`
	Status    entity.Status `json:"status"`
}

// Create stores a new pending outcome owned by p.
func (s *Service) Create(ctx context.Context, p *auth.Principal, in CreateInput) (*CreateResult, error) {
	title := strings.TrimSpace(in.Title)
	if len([]rune(title)) < minTitleLen {
		return nil, apperr.Validation("title must be at least %d characters", minTitleLen)
	}
	if in.AmountCents < 0 {
		return nil, apperr.Validation("amountCents must not be negative")
	}
	o := &entity.Outcome{
		ID:              uuid.New(),
		UserID:          p.UserID,
		Title:           title,
		Description:     blankToNil(in.Description),
		PRDID:           blankToNil(in.PRDID),
		SuccessCriteria: blankToNil(in.SuccessCriteria),
		Status:          entity.StatusPending,
		AmountCents:     in.AmountCents,
	}
	saved, err := s.store.Insert(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("insert outcome: %w", err)
	}
	s.rec.Event("outcome_created", p.AuthID, "outcome_id", saved.ID)
	return &CreateResult{OutcomeID: saved.ID, Status: saved.Status}, nil
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// List returns the caller's outcomes, newest first.
func (s *Service) List(ctx context.Context, p *auth.Principal) ([]entity.Outcome, error) {
	out, err := s.store.ListByOwner(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	return out, nil
}

// Get returns one of the caller's outcomes. Outcomes owned by someone else
// are reported as not found.
func (s *Service) Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*entity.Outcome, error) {
	o, err := s.store.GetByIDAndOwner(ctx, id, p.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("outcome")
	}
	if err != nil {
		return nil, fmt.Errorf("get outcome: %w", err)
	}
	return o, nil
}

type VerifyResult struct {
	Success         bool `json:"success"`
	PaymentRequired bool `json:"paymentRequired"`
}

// Verify records the customer's acceptance. Priced outcomes are flagged for
// payment in a second write; no charge is initiated here.
func (s *Service) Verify(ctx context.Context, p *auth.Principal, id uuid.UUID) (*VerifyResult, error) {
	o, err := s.store.MarkVerified(ctx, id, p.UserID, s.now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("outcome")
	}
	if err != nil {
		return nil, fmt.Errorf("verify outcome: %w", err)
	}
	paymentRequired := o.AmountCents > 0
	if paymentRequired {
		if err := s.store.SetPaymentTriggered(ctx, id); err != nil {
			return nil, fmt.Errorf("flag payment: %w", err)
		}
	}
	s.rec.Event("outcome_verified", p.AuthID, "outcome_id", id)
	return &VerifyResult{Success: true, PaymentRequired: paymentRequired}, nil
}

// UpdateStatus sets any valid status on an owned outcome. delivered and
// verified also stamp their timestamp. Moves that go backwards or skip a
// step are applied but logged.
func (s *Service) UpdateStatus(ctx context.Context, p *auth.Principal, id uuid.UUID, status string) error {
	next, err := entity.ParseStatus(status)
	if err != nil {
		return err
	}
	cur, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	if !cur.Status.IsForwardStep(next) {
		s.logger.Warnw("non-forward status transition", "outcome_id", id, "from", cur.Status, "to", next)
	}

	change := repo.StatusChange{Status: next}
	now := s.now().UTC()
	switch next {
	case entity.StatusDelivered:
		change.DeliveredAt = &now
	case entity.StatusVerified:
		change.VerifiedAt = &now
	}
	owner := p.UserID
	n, err := s.store.UpdateStatus(ctx, id, &owner, change)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("outcome")
	}
	s.rec.Event("outcome_status_updated", p.AuthID, "outcome_id", id, "status", next)
	return nil
}

// ExportRows returns the rows visible to p for export: every outcome for
// holders of export:all, otherwise the caller's own.
func (s *Service) ExportRows(ctx context.Context, p *auth.Principal) ([]entity.Outcome, error) {
	if p.Can(auth.CapExportAll) {
		out, err := s.store.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list outcomes: %w", err)
		}
		return out, nil
	}
	return s.List(ctx, p)
}
