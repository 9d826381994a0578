package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
)

// User is a row in the `users` table, synced from the identity provider.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AuthID    string    `db:"auth_id" json:"auth_id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      auth.Role `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Principal projects the user onto the request identity.
func (u *User) Principal() *auth.Principal {
	return &auth.Principal{
		UserID:   u.ID,
		AuthID:   u.AuthID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
}
