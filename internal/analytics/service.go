// Package analytics aggregates outcome and metric data for dashboards.
package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	aentity "github.com/ovaphlow/pitchfork/service-raas/internal/audit/entity"
	oentity "github.com/ovaphlow/pitchfork/service-raas/internal/outcome/entity"
)

const dateLayout = "2006-01-02"

type OutcomeStore interface {
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]oentity.Outcome, error)
	ListRecent(ctx context.Context) ([]oentity.Outcome, error)
}

type MetricStore interface {
	ListMetrics(ctx context.Context, limit int) ([]aentity.Metric, error)
}

type Service struct {
	outcomes OutcomeStore
	metrics  MetricStore
}

func NewService(outcomes OutcomeStore, metrics MetricStore) *Service {
	return &Service{outcomes: outcomes, metrics: metrics}
}

type MyMetrics struct {
	Total     int `json:"total"`
	Delivered int `json:"delivered"`
	Verified  int `json:"verified"`
	Paid      int `json:"paid"`
}

// MyMetrics counts the caller's outcomes by current status. Each outcome
// counts once, under the status it holds now.
func (s *Service) MyMetrics(ctx context.Context, userID uuid.UUID) (*MyMetrics, error) {
	rows, err := s.outcomes.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	m := &MyMetrics{Total: len(rows)}
	for _, o := range rows {
		switch o.Status {
		case oentity.StatusDelivered:
			m.Delivered++
		case oentity.StatusVerified:
			m.Verified++
		case oentity.StatusPaid:
			m.Paid++
		}
	}
	return m, nil
}

// AllMetrics returns the newest raas_metrics rows.
func (s *Service) AllMetrics(ctx context.Context) ([]aentity.Metric, error) {
	out, err := s.metrics.ListMetrics(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	if out == nil {
		out = []aentity.Metric{}
	}
	return out, nil
}

type DeliveryStat struct {
	ID              uuid.UUID      `json:"id"`
	Title           string         `json:"title"`
	Status          oentity.Status `json:"status"`
	DeliveryMinutes *int64         `json:"deliveryMinutes"`
	AmountCents     int64          `json:"amountCents"`
	Date            string         `json:"date"`
}

// DeliveryStats summarizes the most recent outcomes for charting.
func (s *Service) DeliveryStats(ctx context.Context) ([]DeliveryStat, error) {
	rows, err := s.outcomes.ListRecent(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recent outcomes: %w", err)
	}
	out := make([]DeliveryStat, 0, len(rows))
	for _, o := range rows {
		st := DeliveryStat{
			ID:          o.ID,
			Title:       o.Title,
			Status:      o.Status,
			AmountCents: o.AmountCents,
			Date:        o.CreatedAt.Format(dateLayout),
		}
		if o.DeliveredAt != nil {
			mins := int64(math.Round(o.DeliveredAt.Sub(o.CreatedAt).Minutes()))
			st.DeliveryMinutes = &mins
		}
		out = append(out, st)
	}
	return out, nil
}
