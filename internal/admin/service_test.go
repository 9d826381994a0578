package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
	aentity "github.com/ovaphlow/pitchfork/service-raas/internal/audit/entity"
	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
	"github.com/ovaphlow/pitchfork/service-raas/internal/outcome/entity"
	"github.com/ovaphlow/pitchfork/service-raas/internal/outcome/outcometest"
)

type counter struct {
	n   int64
	err error
}

func (c counter) Count(context.Context) (int64, error)      { return c.n, c.err }
func (c counter) CountLeads(context.Context) (int64, error) { return c.n, c.err }

type auditCall struct {
	action, performedBy, targetType, targetID string
	details                                   map[string]any
}

type fakeAudit struct {
	calls []auditCall
	limit int
}

func (f *fakeAudit) Audit(_ context.Context, action, performedBy, targetType, targetID string, details map[string]any) {
	f.calls = append(f.calls, auditCall{action, performedBy, targetType, targetID, details})
}

func (f *fakeAudit) ListAudit(_ context.Context, limit int) ([]aentity.Log, error) {
	f.limit = limit
	return nil, nil
}

func newService(users, leads counter, store *outcometest.Store, audit *fakeAudit) *Service {
	return NewService(users, leads, store, audit, audit, zap.NewNop().Sugar())
}

func TestStats(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := outcometest.NewStore()
	store.Put(entity.Outcome{Title: "a", Status: entity.StatusPending, AmountCents: 100})
	store.Put(entity.Outcome{Title: "b", Status: entity.StatusVerified, AmountCents: 200})
	store.Put(entity.Outcome{Title: "c", Status: entity.StatusPaid, AmountCents: 4950})
	store.Put(entity.Outcome{Title: "d", Status: entity.StatusPaid, AmountCents: 50})

	svc := newService(counter{n: 7}, counter{n: 3}, store, &fakeAudit{})
	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{
		TotalUsers:        7,
		TotalOutcomes:     4,
		VerifiedOutcomes:  1,
		PaidOutcomes:      2,
		TotalRevenueCents: 5000,
		TotalLeads:        3,
	}, *st)
}

func TestStatsFailsWhenAnyQueryFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := newService(counter{n: 1}, counter{err: errors.New("relation does not exist")}, outcometest.NewStore(), &fakeAudit{})
	_, err := svc.Stats(context.Background())
	assert.ErrorContains(t, err, "count leads")
}

func TestBulkVerify(t *testing.T) {
	store := outcometest.NewStore()
	a := store.Put(entity.Outcome{Title: "a", Status: entity.StatusDelivered})
	b := store.Put(entity.Outcome{Title: "b", Status: entity.StatusPending})
	audit := &fakeAudit{}
	svc := newService(counter{}, counter{}, store, audit)
	actor := &auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin}

	res, err := svc.BulkVerify(context.Background(), actor, []string{a.ID.String(), b.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, BulkVerifyResult{Success: true, Count: 2}, *res)

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		o, _ := store.Snapshot(id)
		assert.Equal(t, entity.StatusVerified, o.Status)
		assert.NotNil(t, o.VerifiedAt)
	}

	require.Len(t, audit.calls, 1)
	call := audit.calls[0]
	assert.Equal(t, "bulk_verify_outcomes", call.action)
	assert.Equal(t, actor.UserID.String(), call.performedBy)
	assert.Equal(t, a.ID.String()+","+b.ID.String(), call.targetID)
	assert.Equal(t, map[string]any{"count": 2}, call.details)
}

func TestBulkVerifyRejectsBadIDs(t *testing.T) {
	audit := &fakeAudit{}
	svc := newService(counter{}, counter{}, outcometest.NewStore(), audit)
	actor := &auth.Principal{UserID: uuid.New()}

	_, err := svc.BulkVerify(context.Background(), actor, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.BulkVerify(context.Background(), actor, []string{uuid.NewString(), "not-a-uuid"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, audit.calls)
}

func TestAuditLogsHandlerLimit(t *testing.T) {
	audit := &fakeAudit{}
	h := NewHandler(newService(counter{}, counter{}, outcometest.NewStore(), audit), zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	h.AuditLogs(rec, httptest.NewRequest(http.MethodGet, "/raas-api/admin/audit-logs?limit=25", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25, audit.limit)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = httptest.NewRecorder()
	h.AuditLogs(rec, httptest.NewRequest(http.MethodGet, "/raas-api/admin/audit-logs?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
