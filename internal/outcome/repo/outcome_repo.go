package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-raas/internal/outcome/entity"
)

const outcomeColumns = `id, user_id, title, description, prd_id, success_criteria, status, amount_cents,
	payment_triggered, stripe_session_id, created_at, updated_at, delivered_at, verified_at`

// RecentLimit bounds ListRecent.
const RecentLimit = 50

type OutcomeRepo struct {
	db *sqlx.DB
}

func NewOutcomeRepo(db *sqlx.DB) *OutcomeRepo { return &OutcomeRepo{db: db} }

// EnsureTable creates the outcomes table. It references users.
func (r *OutcomeRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS outcomes (
  id UUID PRIMARY KEY,
  user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  description TEXT,
  prd_id TEXT,
  success_criteria TEXT,
  status TEXT NOT NULL DEFAULT 'pending'
    CHECK (status IN ('pending', 'in_progress', 'delivered', 'verified', 'paid')),
  amount_cents BIGINT NOT NULL DEFAULT 0 CHECK (amount_cents >= 0),
  payment_triggered BOOLEAN NOT NULL DEFAULT FALSE,
  stripe_session_id TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  delivered_at TIMESTAMPTZ,
  verified_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_outcomes_user_id ON outcomes(user_id);
CREATE INDEX IF NOT EXISTS idx_outcomes_status ON outcomes(status);
CREATE INDEX IF NOT EXISTS idx_outcomes_created_at ON outcomes(created_at DESC);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Insert stores o and returns the row as persisted.
func (r *OutcomeRepo) Insert(ctx context.Context, o *entity.Outcome) (*entity.Outcome, error) {
	const q = `INSERT INTO outcomes (id, user_id, title, description, prd_id, success_criteria, status, amount_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + outcomeColumns
	var out entity.Outcome
	err := r.db.GetContext(ctx, &out, q,
		o.ID, o.UserID, o.Title, o.Description, o.PRDID, o.SuccessCriteria, string(o.Status), o.AmountCents)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByOwner returns the owner's outcomes, newest first.
func (r *OutcomeRepo) ListByOwner(ctx context.Context, userID uuid.UUID) ([]entity.Outcome, error) {
	out := []entity.Outcome{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+outcomeColumns+` FROM outcomes WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	return out, err
}

// ListAll returns every outcome, newest first.
func (r *OutcomeRepo) ListAll(ctx context.Context) ([]entity.Outcome, error) {
	out := []entity.Outcome{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+outcomeColumns+` FROM outcomes ORDER BY created_at DESC`)
	return out, err
}

// ListRecent returns the latest RecentLimit outcomes.
func (r *OutcomeRepo) ListRecent(ctx context.Context) ([]entity.Outcome, error) {
	out := []entity.Outcome{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+outcomeColumns+` FROM outcomes ORDER BY created_at DESC LIMIT $1`, RecentLimit)
	return out, err
}

const withOwnerSelect = `SELECT o.id, o.user_id, o.title, o.description, o.prd_id, o.success_criteria, o.status,
	o.amount_cents, o.payment_triggered, o.stripe_session_id, o.created_at, o.updated_at, o.delivered_at,
	o.verified_at, u.email AS owner_email, u.full_name AS owner_name
	FROM outcomes o LEFT JOIN users u ON u.id = o.user_id`

// ListAllWithOwner returns every outcome with its owner's email and name.
func (r *OutcomeRepo) ListAllWithOwner(ctx context.Context) ([]entity.WithOwner, error) {
	out := []entity.WithOwner{}
	err := r.db.SelectContext(ctx, &out, withOwnerSelect+` ORDER BY o.created_at DESC`)
	return out, err
}

// GetWithOwner returns one outcome with owner details or sql.ErrNoRows.
func (r *OutcomeRepo) GetWithOwner(ctx context.Context, id uuid.UUID) (*entity.WithOwner, error) {
	var o entity.WithOwner
	if err := r.db.GetContext(ctx, &o, withOwnerSelect+` WHERE o.id=$1`, id); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByID returns the outcome or sql.ErrNoRows.
func (r *OutcomeRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Outcome, error) {
	var o entity.Outcome
	if err := r.db.GetContext(ctx, &o, `SELECT `+outcomeColumns+` FROM outcomes WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByIDAndOwner returns the outcome when owned by userID, else sql.ErrNoRows.
func (r *OutcomeRepo) GetByIDAndOwner(ctx context.Context, id, userID uuid.UUID) (*entity.Outcome, error) {
	var o entity.Outcome
	err := r.db.GetContext(ctx, &o, `SELECT `+outcomeColumns+` FROM outcomes WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// MarkVerified sets status verified on an owned outcome and returns the
// updated row, or sql.ErrNoRows.
func (r *OutcomeRepo) MarkVerified(ctx context.Context, id, userID uuid.UUID, at time.Time) (*entity.Outcome, error) {
	var o entity.Outcome
	err := r.db.GetContext(ctx, &o, `UPDATE outcomes SET status='verified', verified_at=$3, updated_at=NOW()
		WHERE id=$1 AND user_id=$2 RETURNING `+outcomeColumns, id, userID, at)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OutcomeRepo) SetPaymentTriggered(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outcomes SET payment_triggered=TRUE, updated_at=NOW() WHERE id=$1`, id)
	return err
}

// StatusChange is one status write. Nil timestamps keep the stored value.
type StatusChange struct {
	Status      entity.Status
	DeliveredAt *time.Time
	VerifiedAt  *time.Time
}

// UpdateStatus applies c to the outcome. A non-nil owner restricts the write
// to that owner's row. Returns the number of affected rows.
func (r *OutcomeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, owner *uuid.UUID, c StatusChange) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE outcomes SET
		  status=$3,
		  delivered_at=COALESCE($4, delivered_at),
		  verified_at=COALESCE($5, verified_at),
		  updated_at=NOW()
		WHERE id=$1 AND ($2::uuid IS NULL OR user_id=$2::uuid)`,
		id, owner, string(c.Status), c.DeliveredAt, c.VerifiedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkPaid records a completed checkout session.
func (r *OutcomeRepo) MarkPaid(ctx context.Context, id uuid.UUID, sessionID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE outcomes SET status='paid', payment_triggered=TRUE,
		stripe_session_id=$2, updated_at=NOW() WHERE id=$1`, id, sessionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// BulkVerify marks every listed outcome verified.
func (r *OutcomeRepo) BulkVerify(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	res, err := r.db.ExecContext(ctx, `UPDATE outcomes SET status='verified', verified_at=$2, updated_at=NOW()
		WHERE id = ANY($1::uuid[])`, pq.Array(strs), at)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
