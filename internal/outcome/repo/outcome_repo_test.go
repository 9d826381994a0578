package repo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
	"github.com/ovaphlow/pitchfork/service-raas/internal/outcome/entity"
	"github.com/ovaphlow/pitchfork/service-raas/internal/outcome/repo"
	uentity "github.com/ovaphlow/pitchfork/service-raas/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-raas/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-raas/pkg/database"
)

// openTestDB connects to RAAS_TEST_DATABASE_URL and ensures the tables the
// outcome repository needs. Tests are skipped when the variable is unset.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("RAAS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("RAAS_TEST_DATABASE_URL not set")
	}
	db, err := database.Connect(database.Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	err = database.EnsureSchema(context.Background(),
		database.NamedEnsurer{Name: "users", Ensurer: userrepo.NewUserRepo(db)},
		database.NamedEnsurer{Name: "outcomes", Ensurer: repo.NewOutcomeRepo(db)},
	)
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, db *sqlx.DB) *uentity.User {
	t.Helper()
	users := userrepo.NewUserRepo(db)
	u, err := users.Upsert(context.Background(), &uentity.User{
		ID:       uuid.New(),
		AuthID:   "it_" + uuid.NewString(),
		Email:    "it@example.com",
		FullName: "Integration",
		Role:     auth.RoleUser,
	}, true)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = users.DeleteByAuthID(context.Background(), u.AuthID) })
	return u
}

func TestOutcomeRepoLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := repo.NewOutcomeRepo(db)
	owner := seedUser(t, db)

	o, err := r.Insert(ctx, &entity.Outcome{
		ID: uuid.New(), UserID: owner.ID, Title: "Landing page", Status: entity.StatusPending, AmountCents: 4950,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, o.Status)
	assert.Nil(t, o.DeliveredAt)

	stranger := uuid.New()
	n, err := r.UpdateStatus(ctx, o.ID, &stranger, repo.StatusChange{Status: entity.StatusDelivered})
	require.NoError(t, err)
	assert.Zero(t, n)

	at := time.Now().UTC().Truncate(time.Millisecond)
	n, err = r.UpdateStatus(ctx, o.ID, nil, repo.StatusChange{Status: entity.StatusDelivered, DeliveredAt: &at})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// a later status without a timestamp keeps delivered_at
	n, err = r.UpdateStatus(ctx, o.ID, &owner.ID, repo.StatusChange{Status: entity.StatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := r.GetWithOwner(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInProgress, got.Status)
	require.NotNil(t, got.DeliveredAt)
	assert.WithinDuration(t, at, *got.DeliveredAt, time.Millisecond)
	require.NotNil(t, got.OwnerEmail)
	assert.Equal(t, "it@example.com", *got.OwnerEmail)

	n, err = r.BulkVerify(ctx, []uuid.UUID{o.ID, uuid.New()}, at)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = r.MarkPaid(ctx, o.ID, "cs_test_it")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	paid, err := r.GetByIDAndOwner(ctx, o.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, paid.Status)
	assert.True(t, paid.PaymentTriggered)
	require.NotNil(t, paid.StripeSessionID)
	assert.Equal(t, "cs_test_it", *paid.StripeSessionID)
}
