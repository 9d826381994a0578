// Package campaign launches outbound lead campaigns and lists their results.
// Lead sourcing and calling integrations are not wired; a launch records an
// empty metrics row.
package campaign

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-raas/internal/campaign/entity"
	"github.com/ovaphlow/pitchfork/service-raas/pkg/utilities"
)

// ErrNameRequired is returned by Start for a blank campaign name.
var ErrNameRequired = fmt.Errorf("%w: Campaign name required", apperr.ErrValidation)

type Store interface {
	InsertMetrics(ctx context.Context, m *entity.Metrics) (*entity.Metrics, error)
	ListMetrics(ctx context.Context) ([]entity.Metrics, error)
	ListLeads(ctx context.Context) ([]entity.Lead, error)
}

type EventRecorder interface {
	Event(event, userID string, kv ...any)
}

type Service struct {
	store  Store
	rec    EventRecorder
	ids    *utilities.IDGenerator
	logger *zap.SugaredLogger
}

func NewService(store Store, rec EventRecorder, ids *utilities.IDGenerator, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, rec: rec, ids: ids, logger: logger}
}

type StartInput struct {
	CampaignName   string `json:"campaignName"`
	TargetKeywords string `json:"targetKeywords"`
	DailyLimit     int    `json:"dailyLimit"`
}

type StartResult struct {
	Message  string `json:"message"`
	Campaign string `json:"campaign"`
}

func (s *Service) Start(ctx context.Context, actor string, in StartInput) (*StartResult, error) {
	name := strings.TrimSpace(in.CampaignName)
	if name == "" {
		return nil, ErrNameRequired
	}
	if in.DailyLimit < 0 {
		return nil, apperr.Validation("dailyLimit must not be negative")
	}
	_, err := s.store.InsertMetrics(ctx, &entity.Metrics{
		ID:             s.ids.KSUID(),
		Campaign:       name,
		TargetKeywords: strings.TrimSpace(in.TargetKeywords),
		DailyLimit:     in.DailyLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("insert campaign metrics: %w", err)
	}
	s.rec.Event("aether_campaign_launched", actor, "campaign", name, "keywords", in.TargetKeywords, "limit", in.DailyLimit)
	return &StartResult{
		Message:  fmt.Sprintf("✅ Aether campaign %q launched. Connect Apollo & Retell API keys in .env for live calls.", name),
		Campaign: name,
	}, nil
}

func (s *Service) Metrics(ctx context.Context) ([]entity.Metrics, error) {
	out, err := s.store.ListMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list campaign metrics: %w", err)
	}
	if out == nil {
		out = []entity.Metrics{}
	}
	return out, nil
}

func (s *Service) Leads(ctx context.Context) ([]entity.Lead, error) {
	out, err := s.store.ListLeads(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	if out == nil {
		out = []entity.Lead{}
	}
	return out, nil
}
