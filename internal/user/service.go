// Package user keeps the local user table in sync with the identity
// provider and serves the admin user operations.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
	"github.com/ovaphlow/pitchfork/service-raas/internal/user/entity"
)

const unknownEmail = "unknown@email.com"

type Store interface {
	Upsert(ctx context.Context, u *entity.User, overrideRole bool) (*entity.User, error)
	InsertIfMissing(ctx context.Context, u *entity.User) error
	GetByAuthID(ctx context.Context, authID string) (*entity.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	List(ctx context.Context) ([]entity.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role auth.Role) (int64, error)
	DeleteByAuthID(ctx context.Context, authID string) (int64, error)
}

// Preferences creates the default notification preference row.
type Preferences interface {
	Ensure(ctx context.Context, userID uuid.UUID) error
}

type Recorder interface {
	Event(event, userID string, kv ...any)
	Audit(ctx context.Context, action, performedBy, targetType, targetID string, details map[string]any)
}

// UserService orchestrates identity sync and user administration.
type UserService struct {
	store  Store
	prefs  Preferences
	rec    Recorder
	logger *zap.SugaredLogger
}

func NewUserService(store Store, prefs Preferences, rec Recorder, logger *zap.SugaredLogger) *UserService {
	return &UserService{store: store, prefs: prefs, rec: rec, logger: logger}
}

// HandleIdentityEvent applies one identity-provider webhook event.
// Unknown event types are ignored.
func (s *UserService) HandleIdentityEvent(ctx context.Context, evt IdentityEvent) error {
	switch evt.Type {
	case EventUserCreated, EventUserUpdated:
		if evt.Data.ID == "" {
			return apperr.Validation("user id missing")
		}
		u, overrideRole := fromIdentity(evt.Data)
		saved, err := s.store.Upsert(ctx, u, overrideRole)
		if err != nil {
			return fmt.Errorf("upsert user %s: %w", evt.Data.ID, err)
		}
		if evt.Type == EventUserCreated {
			if err := s.prefs.Ensure(ctx, saved.ID); err != nil {
				return err
			}
		}
		s.rec.Event("user_synced", saved.ID.String(), "auth_id", evt.Data.ID, "type", evt.Type)
	case EventUserDeleted:
		if evt.Data.ID == "" {
			return apperr.Validation("user id missing")
		}
		if _, err := s.store.DeleteByAuthID(ctx, evt.Data.ID); err != nil {
			return fmt.Errorf("delete user %s: %w", evt.Data.ID, err)
		}
		s.rec.Event("user_deleted", "", "auth_id", evt.Data.ID)
	default:
		s.logger.Debugw("identity event ignored", "type", evt.Type)
	}
	return nil
}

// fromIdentity maps the provider payload onto a user row. The role is only
// authoritative when the provider carries a valid one in private metadata.
func fromIdentity(d IdentityUser) (*entity.User, bool) {
	email := unknownEmail
	if len(d.EmailAddresses) > 0 && d.EmailAddresses[0].EmailAddress != "" {
		email = d.EmailAddresses[0].EmailAddress
	}
	name := strings.TrimSpace(d.FirstName + " " + d.LastName)
	if name == "" {
		name = email
	}
	role, override := auth.RoleUser, false
	if raw, ok := d.PrivateMetadata["role"].(string); ok {
		if r, err := auth.ParseRole(raw); err == nil {
			role, override = r, true
		}
	}
	return &entity.User{
		ID:       uuid.New(),
		AuthID:   d.ID,
		Email:    email,
		FullName: name,
		Role:     role,
	}, override
}

// ResolvePrincipal loads the user for a verified token. Users the webhook has
// not synced yet are created from the token claims.
func (s *UserService) ResolvePrincipal(ctx context.Context, c *auth.Claims) (*auth.Principal, error) {
	u, err := s.store.GetByAuthID(ctx, c.Subject)
	if err == nil {
		return u.Principal(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load user %s: %w", c.Subject, err)
	}

	email := c.Email
	if email == "" {
		email = unknownEmail
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = email
	}
	fresh := &entity.User{ID: uuid.New(), AuthID: c.Subject, Email: email, FullName: name, Role: auth.RoleUser}
	if err := s.store.InsertIfMissing(ctx, fresh); err != nil {
		return nil, fmt.Errorf("create user %s: %w", c.Subject, err)
	}
	u, err = s.store.GetByAuthID(ctx, c.Subject)
	if err != nil {
		return nil, fmt.Errorf("reload user %s: %w", c.Subject, err)
	}
	if err := s.prefs.Ensure(ctx, u.ID); err != nil {
		s.logger.Warnw("default preferences not created", "user_id", u.ID, "err", err)
	}
	s.rec.Event("user_auto_created", u.ID.String(), "auth_id", c.Subject)
	return u.Principal(), nil
}

// Get returns one user or apperr.ErrNotFound.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// List returns all users, newest first.
func (s *UserService) List(ctx context.Context) ([]entity.User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateRole changes a user's role and records an audit entry.
func (s *UserService) UpdateRole(ctx context.Context, actor *auth.Principal, id uuid.UUID, role string) error {
	r, err := auth.ParseRole(role)
	if err != nil {
		return err
	}
	n, err := s.store.UpdateRole(ctx, id, r)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("user")
	}
	s.rec.Audit(ctx, "update_user_role", actor.UserID.String(), "user", id.String(), map[string]any{"newRole": string(r)})
	return nil
}
