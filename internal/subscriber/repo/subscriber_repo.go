package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-raas/internal/subscriber/entity"
)

type SubscriberRepo struct {
	db *sqlx.DB
}

func NewSubscriberRepo(db *sqlx.DB) *SubscriberRepo {
	return &SubscriberRepo{db: db}
}

// EnsureTable creates the notification_preferences table if it does not
// already exist. It references users, which must be created first.
func (r *SubscriberRepo) EnsureTable(ctx context.Context) error {
	const tbl = `
	CREATE TABLE IF NOT EXISTS notification_preferences (
		user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		email_on_delivery BOOLEAN NOT NULL DEFAULT TRUE,
		email_on_payment BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	_, err := r.db.ExecContext(ctx, tbl)
	return err
}

// Ensure creates the default row for userID, leaving an existing row untouched.
func (r *SubscriberRepo) Ensure(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notification_preferences (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	return err
}

// Get returns the row for userID or sql.ErrNoRows.
func (r *SubscriberRepo) Get(ctx context.Context, userID uuid.UUID) (*entity.Subscriber, error) {
	var s entity.Subscriber
	err := r.db.GetContext(ctx, &s, `SELECT user_id, email_on_delivery, email_on_payment, updated_at
		FROM notification_preferences WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Save upserts the full preference set.
func (r *SubscriberRepo) Save(ctx context.Context, s *entity.Subscriber) (*entity.Subscriber, error) {
	var out entity.Subscriber
	err := r.db.GetContext(ctx, &out, `INSERT INTO notification_preferences (user_id, email_on_delivery, email_on_payment)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
		  email_on_delivery = EXCLUDED.email_on_delivery,
		  email_on_payment = EXCLUDED.email_on_payment,
		  updated_at = NOW()
		RETURNING user_id, email_on_delivery, email_on_payment, updated_at`,
		s.UserID, s.EmailOnDelivery, s.EmailOnPayment)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
