package entity

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber holds a user's transactional email preferences
// (`notification_preferences`). A user without a row receives everything.
type Subscriber struct {
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	EmailOnDelivery bool      `db:"email_on_delivery" json:"email_on_delivery"`
	EmailOnPayment  bool      `db:"email_on_payment" json:"email_on_payment"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Default is the preference set for users who never changed anything.
func Default(userID uuid.UUID) *Subscriber {
	return &Subscriber{UserID: userID, EmailOnDelivery: true, EmailOnPayment: true}
}
