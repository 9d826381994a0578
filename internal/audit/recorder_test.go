package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ovaphlow/pitchfork/service-raas/internal/audit/entity"
)

type memStore struct {
	logs    []entity.Log
	metrics []entity.Metric
	err     error
}

func (m *memStore) InsertAudit(_ context.Context, l *entity.Log) error {
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, *l)
	return nil
}

func (m *memStore) InsertMetric(_ context.Context, mt *entity.Metric) error {
	if m.err != nil {
		return m.err
	}
	m.metrics = append(m.metrics, *mt)
	return nil
}

func observed() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core).Sugar(), logs
}

func TestEventDefaultsToSystemUser(t *testing.T) {
	logger, logs := observed()
	r := NewRecorder(nil, nil, logger)

	r.Event("outcome_created", "", "outcome_id", "abc")

	entries := logs.FilterMessage("raas event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "outcome_created", fields["event"])
	assert.Equal(t, "system", fields["user_id"])
	assert.Equal(t, "abc", fields["outcome_id"])
}

func TestAuditPersists(t *testing.T) {
	logger, _ := observed()
	store := &memStore{}
	r := NewRecorder(store, nil, logger)

	r.Audit(context.Background(), "bulk_verify_outcomes", "admin-1", "outcomes", "", map[string]any{"count": 3})

	require.Len(t, store.logs, 1)
	got := store.logs[0]
	assert.Equal(t, "bulk_verify_outcomes", got.Action)
	assert.Equal(t, "admin-1", got.PerformedBy)
	assert.NotEmpty(t, got.ID)
	var details map[string]any
	require.NoError(t, json.Unmarshal(got.Details, &details))
	assert.EqualValues(t, 3, details["count"])
}

func TestAuditInsertFailureOnlyLogged(t *testing.T) {
	logger, logs := observed()
	r := NewRecorder(&memStore{err: errors.New("db down")}, nil, logger)

	r.Audit(context.Background(), "update_user_role", "admin-1", "user", "u1", nil)

	assert.Equal(t, 1, logs.FilterMessage("audit insert failed").Len())
}

func TestMetric(t *testing.T) {
	logger, _ := observed()
	store := &memStore{}
	r := NewRecorder(store, nil, logger)
	id := uuid.New()

	require.NoError(t, r.Metric(context.Background(), id, entity.MetricDeliveryTime, 12.5))

	require.Len(t, store.metrics, 1)
	assert.Equal(t, id, *store.metrics[0].OutcomeID)
	assert.Equal(t, 12.5, store.metrics[0].MetricValue)
	assert.NotEmpty(t, store.metrics[0].ID)
}

func TestMetricWithoutStore(t *testing.T) {
	logger, _ := observed()
	r := NewRecorder(nil, nil, logger)
	assert.Error(t, r.Metric(context.Background(), uuid.New(), entity.MetricDeliveryTime, 1))
}
