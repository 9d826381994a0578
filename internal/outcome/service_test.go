package outcome

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
	"github.com/ovaphlow/pitchfork/service-raas/internal/outcome/entity"
	"github.com/ovaphlow/pitchfork/service-raas/internal/outcome/outcometest"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (e *eventLog) Event(event, _ string, _ ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

type fixture struct {
	store  *outcometest.Store
	events *eventLog
	logs   *observer.ObservedLogs
	svc    *Service
	owner  *auth.Principal
}

func newFixture() *fixture {
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		store:  outcometest.NewStore(),
		events: &eventLog{},
		logs:   logs,
		owner:  &auth.Principal{UserID: uuid.New(), AuthID: "user_owner", Role: auth.RoleUser},
	}
	f.svc = NewService(f.store, f.events, zap.New(core).Sugar())
	return f
}

func TestCreateValidatesTitle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, title := range []string{"", "ab", "  ab  ", "a  "} {
		_, err := f.svc.Create(ctx, f.owner, CreateInput{Title: title})
		assert.ErrorIs(t, err, apperr.ErrValidation, "title %q", title)
	}

	res, err := f.svc.Create(ctx, f.owner, CreateInput{Title: "abc"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, res.Status)

	stored, ok := f.store.Snapshot(res.OutcomeID)
	require.True(t, ok)
	assert.Equal(t, f.owner.UserID, stored.UserID)
	assert.Equal(t, []string{"outcome_created"}, f.events.events)
}

func TestCreateStoresTrimmedTitle(t *testing.T) {
	f := newFixture()
	res, err := f.svc.Create(context.Background(), f.owner, CreateInput{Title: "  Landing page \n"})
	require.NoError(t, err)

	stored, ok := f.store.Snapshot(res.OutcomeID)
	require.True(t, ok)
	assert.Equal(t, "Landing page", stored.Title)
}

func TestCreateRejectsNegativeAmount(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), f.owner, CreateInput{Title: "Landing page", AmountCents: -1})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGetIsOwnerScoped(t *testing.T) {
	f := newFixture()
	o := f.store.Put(entity.Outcome{UserID: uuid.New(), Title: "someone else"})

	_, err := f.svc.Get(context.Background(), f.owner, o.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name            string
		amount          int64
		paymentRequired bool
	}{
		{"free", 0, false},
		{"priced", 4900, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			o := f.store.Put(entity.Outcome{UserID: f.owner.UserID, Title: "API", Status: entity.StatusDelivered, AmountCents: tt.amount})

			res, err := f.svc.Verify(context.Background(), f.owner, o.ID)
			require.NoError(t, err)
			assert.True(t, res.Success)
			assert.Equal(t, tt.paymentRequired, res.PaymentRequired)

			got, _ := f.store.Snapshot(o.ID)
			assert.Equal(t, entity.StatusVerified, got.Status)
			assert.NotNil(t, got.VerifiedAt)
			assert.Equal(t, tt.paymentRequired, got.PaymentTriggered)
		})
	}
}

func TestVerifyNotOwned(t *testing.T) {
	f := newFixture()
	o := f.store.Put(entity.Outcome{UserID: uuid.New(), Title: "API"})

	_, err := f.svc.Verify(context.Background(), f.owner, o.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentVerifyBothSucceed(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture()
	o := f.store.Put(entity.Outcome{UserID: f.owner.UserID, Title: "API", Status: entity.StatusDelivered, AmountCents: 100})

	var wg sync.WaitGroup
	results := make([]*VerifyResult, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.Verify(context.Background(), f.owner, o.ID)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.True(t, results[i].Success)
	}
}

func TestUpdateStatusTimestamps(t *testing.T) {
	tests := []struct {
		status        entity.Status
		wantDelivered bool
		wantVerified  bool
	}{
		{entity.StatusPending, false, false},
		{entity.StatusInProgress, false, false},
		{entity.StatusDelivered, true, false},
		{entity.StatusVerified, false, true},
		{entity.StatusPaid, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			f := newFixture()
			o := f.store.Put(entity.Outcome{UserID: f.owner.UserID, Title: "API"})

			require.NoError(t, f.svc.UpdateStatus(context.Background(), f.owner, o.ID, string(tt.status)))

			got, _ := f.store.Snapshot(o.ID)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.wantDelivered, got.DeliveredAt != nil)
			assert.Equal(t, tt.wantVerified, got.VerifiedAt != nil)
		})
	}
}

func TestUpdateStatusWarnsOnBackwardMove(t *testing.T) {
	f := newFixture()
	o := f.store.Put(entity.Outcome{UserID: f.owner.UserID, Title: "API", Status: entity.StatusPaid})

	require.NoError(t, f.svc.UpdateStatus(context.Background(), f.owner, o.ID, "pending"))
	assert.Equal(t, 1, f.logs.FilterMessage("non-forward status transition").Len())

	require.NoError(t, f.svc.UpdateStatus(context.Background(), f.owner, o.ID, "in_progress"))
	assert.Equal(t, 1, f.logs.FilterMessage("non-forward status transition").Len())
}

func TestUpdateStatusRejectsUnknown(t *testing.T) {
	f := newFixture()
	o := f.store.Put(entity.Outcome{UserID: f.owner.UserID, Title: "API"})
	assert.ErrorIs(t, f.svc.UpdateStatus(context.Background(), f.owner, o.ID, "archived"), apperr.ErrValidation)
}

func TestExportRowsScope(t *testing.T) {
	f := newFixture()
	f.store.Put(entity.Outcome{UserID: f.owner.UserID, Title: "mine"})
	f.store.Put(entity.Outcome{UserID: uuid.New(), Title: "theirs"})

	own, err := f.svc.ExportRows(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	admin := &auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin}
	all, err := f.svc.ExportRows(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture()
	first := f.store.Put(entity.Outcome{UserID: f.owner.UserID, Title: "first"})
	second := f.store.Put(entity.Outcome{UserID: f.owner.UserID, Title: "second", CreatedAt: first.CreatedAt.Add(time.Hour)})

	out, err := f.svc.List(context.Background(), f.owner)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, second.ID, out[0].ID)
}
