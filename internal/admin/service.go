// Package admin serves the operator dashboard: platform totals, the full
// outcome list, bulk verification and the audit trail.
package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
	aentity "github.com/ovaphlow/pitchfork/service-raas/internal/audit/entity"
	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
	oentity "github.com/ovaphlow/pitchfork/service-raas/internal/outcome/entity"
)

type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

type LeadCounter interface {
	CountLeads(ctx context.Context) (int64, error)
}

type OutcomeStore interface {
	ListAll(ctx context.Context) ([]oentity.Outcome, error)
	ListAllWithOwner(ctx context.Context) ([]oentity.WithOwner, error)
	BulkVerify(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error)
}

type AuditStore interface {
	ListAudit(ctx context.Context, limit int) ([]aentity.Log, error)
}

type Auditor interface {
	Audit(ctx context.Context, action, performedBy, targetType, targetID string, details map[string]any)
}

type Service struct {
	users    UserCounter
	leads    LeadCounter
	outcomes OutcomeStore
	audit    AuditStore
	auditor  Auditor
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewService(users UserCounter, leads LeadCounter, outcomes OutcomeStore, audit AuditStore,
	auditor Auditor, logger *zap.SugaredLogger) *Service {
	return &Service{
		users:    users,
		leads:    leads,
		outcomes: outcomes,
		audit:    audit,
		auditor:  auditor,
		logger:   logger,
		now:      time.Now,
	}
}

type Stats struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalOutcomes     int   `json:"totalOutcomes"`
	VerifiedOutcomes  int   `json:"verifiedOutcomes"`
	PaidOutcomes      int   `json:"paidOutcomes"`
	TotalRevenueCents int64 `json:"totalRevenueCents"`
	TotalLeads        int64 `json:"totalLeads"`
}

// Stats computes the dashboard totals. The three source queries run
// concurrently; any failure fails the whole call.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var (
		st       Stats
		outcomes []oentity.Outcome
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.users.Count(gctx)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		st.TotalUsers = n
		return nil
	})
	g.Go(func() error {
		rows, err := s.outcomes.ListAll(gctx)
		if err != nil {
			return fmt.Errorf("list outcomes: %w", err)
		}
		outcomes = rows
		return nil
	})
	g.Go(func() error {
		n, err := s.leads.CountLeads(gctx)
		if err != nil {
			return fmt.Errorf("count leads: %w", err)
		}
		st.TotalLeads = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	st.TotalOutcomes = len(outcomes)
	for _, o := range outcomes {
		switch o.Status {
		case oentity.StatusVerified:
			st.VerifiedOutcomes++
		case oentity.StatusPaid:
			st.PaidOutcomes++
			st.TotalRevenueCents += o.AmountCents
		}
	}
	return &st, nil
}

// Outcomes lists every outcome with its owner's email and name, newest first.
func (s *Service) Outcomes(ctx context.Context) ([]oentity.WithOwner, error) {
	out, err := s.outcomes.ListAllWithOwner(ctx)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	if out == nil {
		out = []oentity.WithOwner{}
	}
	return out, nil
}

type BulkVerifyResult struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

// BulkVerify marks the listed outcomes verified regardless of their current
// status. Count echoes the number of ids requested.
func (s *Service) BulkVerify(ctx context.Context, actor *auth.Principal, rawIDs []string) (*BulkVerifyResult, error) {
	if len(rawIDs) == 0 {
		return nil, apperr.Validation("outcomeIds required")
	}
	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperr.Validation("invalid outcome id %q", raw)
		}
		ids = append(ids, id)
	}

	n, err := s.outcomes.BulkVerify(ctx, ids, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("bulk verify: %w", err)
	}
	if n != int64(len(ids)) {
		s.logger.Warnw("bulk verify matched fewer outcomes than requested", "requested", len(ids), "updated", n)
	}
	s.auditor.Audit(ctx, "bulk_verify_outcomes", actor.UserID.String(), "outcomes",
		strings.Join(rawIDs, ","), map[string]any{"count": len(ids)})
	return &BulkVerifyResult{Success: true, Count: len(ids)}, nil
}

// AuditLogs returns audit entries newest first; limit <= 0 means the store default.
func (s *Service) AuditLogs(ctx context.Context, limit int) ([]aentity.Log, error) {
	out, err := s.audit.ListAudit(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	if out == nil {
		out = []aentity.Log{}
	}
	return out, nil
}
