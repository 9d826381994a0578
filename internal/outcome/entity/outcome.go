package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
)

// Status is the outcome lifecycle position.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDelivered  Status = "delivered"
	StatusVerified   Status = "verified"
	StatusPaid       Status = "paid"
)

// lifecycle is the intended forward order.
var lifecycle = []Status{StatusPending, StatusInProgress, StatusDelivered, StatusVerified, StatusPaid}

func ParseStatus(s string) (Status, error) {
	for _, st := range lifecycle {
		if string(st) == s {
			return st, nil
		}
	}
	return "", apperr.Validation("unknown status %q", s)
}

// Rank is the position in the lifecycle, -1 for unknown values.
func (s Status) Rank() int {
	for i, st := range lifecycle {
		if st == s {
			return i
		}
	}
	return -1
}

// IsForwardStep reports whether moving from s to next is a single step forward
// (or a no-op).
func (s Status) IsForwardStep(next Status) bool {
	d := next.Rank() - s.Rank()
	return d == 0 || d == 1
}

// Outcome is a row in the `outcomes` table.
type Outcome struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	UserID           uuid.UUID  `db:"user_id" json:"user_id"`
	Title            string     `db:"title" json:"title"`
	Description      *string    `db:"description" json:"description"`
	PRDID            *string    `db:"prd_id" json:"prd_id"`
	SuccessCriteria  *string    `db:"success_criteria" json:"success_criteria"`
	Status           Status     `db:"status" json:"status"`
	AmountCents      int64      `db:"amount_cents" json:"amount_cents"`
	PaymentTriggered bool       `db:"payment_triggered" json:"payment_triggered"`
	StripeSessionID  *string    `db:"stripe_session_id" json:"stripe_session_id"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
	DeliveredAt      *time.Time `db:"delivered_at" json:"delivered_at"`
	VerifiedAt       *time.Time `db:"verified_at" json:"verified_at"`
}

// WithOwner is an outcome joined with its owner's contact details. The owner
// columns are empty when the user row is gone.
type WithOwner struct {
	Outcome
	OwnerEmail *string `db:"owner_email" json:"owner_email"`
	OwnerName  *string `db:"owner_name" json:"owner_name"`
}
