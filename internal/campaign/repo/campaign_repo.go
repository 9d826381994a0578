package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-raas/internal/campaign/entity"
)

type CampaignRepo struct {
	db *sqlx.DB
}

func NewCampaignRepo(db *sqlx.DB) *CampaignRepo { return &CampaignRepo{db: db} }

func (r *CampaignRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS aether_campaign_metrics (
  id VARCHAR(32) PRIMARY KEY,
  campaign TEXT NOT NULL,
  target_keywords TEXT NOT NULL DEFAULT '',
  daily_limit INTEGER NOT NULL DEFAULT 0,
  leads_contacted INTEGER NOT NULL DEFAULT 0,
  meetings_booked INTEGER NOT NULL DEFAULT 0,
  cost_cents BIGINT NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_aether_campaign_metrics_created_at ON aether_campaign_metrics(created_at DESC);

CREATE TABLE IF NOT EXISTS aether_leads (
  id VARCHAR(32) PRIMARY KEY,
  campaign TEXT NOT NULL DEFAULT '',
  name TEXT,
  company TEXT,
  email TEXT,
  phone TEXT,
  status TEXT NOT NULL DEFAULT 'new',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_aether_leads_created_at ON aether_leads(created_at DESC);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *CampaignRepo) InsertMetrics(ctx context.Context, m *entity.Metrics) (*entity.Metrics, error) {
	const q = `INSERT INTO aether_campaign_metrics (id, campaign, target_keywords, daily_limit, leads_contacted, meetings_booked, cost_cents)
		VALUES (:id, :campaign, :target_keywords, :daily_limit, :leads_contacted, :meetings_booked, :cost_cents)
		RETURNING *`
	rows, err := r.db.NamedQueryContext(ctx, q, m)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out entity.Metrics
	if rows.Next() {
		if err := rows.StructScan(&out); err != nil {
			return nil, err
		}
	}
	return &out, rows.Err()
}

func (r *CampaignRepo) ListMetrics(ctx context.Context) ([]entity.Metrics, error) {
	var out []entity.Metrics
	err := r.db.SelectContext(ctx, &out, `SELECT * FROM aether_campaign_metrics ORDER BY created_at DESC`)
	return out, err
}

func (r *CampaignRepo) ListLeads(ctx context.Context) ([]entity.Lead, error) {
	var out []entity.Lead
	err := r.db.SelectContext(ctx, &out, `SELECT * FROM aether_leads ORDER BY created_at DESC`)
	return out, err
}

func (r *CampaignRepo) CountLeads(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM aether_leads`)
	return n, err
}
