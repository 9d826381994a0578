package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/subscriber"
)

type captureMailer struct{ sent []Message }

func (c *captureMailer) Send(_ context.Context, m Message) error {
	c.sent = append(c.sent, m)
	return nil
}

type prefsFunc func(uuid.UUID, subscriber.Kind) bool

func (f prefsFunc) Wants(_ context.Context, id uuid.UUID, k subscriber.Kind) bool { return f(id, k) }

func TestResendMailer(t *testing.T) {
	var got struct {
		From    string   `json:"from"`
		To      []string `json:"to"`
		Subject string   `json:"subject"`
		HTML    string   `json:"html"`
	}
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer srv.Close()

	m := newTestResendMailer(t, srv, "re_test", "Lumina RaaS <noreply@lumina.app>")

	require.NoError(t, m.Send(context.Background(), Message{To: "a@example.com", Subject: "Hi", HTML: "<p>x</p>"}))
	assert.Equal(t, "/emails", path)
	assert.Equal(t, "Bearer re_test", auth)
	assert.Equal(t, []string{"a@example.com"}, got.To)
	assert.Equal(t, "Lumina RaaS <noreply@lumina.app>", got.From)
	assert.Equal(t, "Hi", got.Subject)
	assert.Equal(t, "<p>x</p>", got.HTML)
}

func TestResendMailerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"statusCode":401,"name":"validation_error","message":"invalid key"}`))
	}))
	defer srv.Close()

	m := newTestResendMailer(t, srv, "bad", "x@y.z")
	err := m.Send(context.Background(), Message{To: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send email")
	assert.Contains(t, err.Error(), "invalid key")
}

func newTestResendMailer(t *testing.T, srv *httptest.Server, apiKey, from string) *ResendMailer {
	t.Helper()
	m := NewResendMailer(apiKey, from, srv.Client())
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	m.client.BaseURL = base
	return m
}

func TestNewMailerWithoutKeyIsNop(t *testing.T) {
	m := NewMailer("", "x@y.z", zap.NewNop().Sugar())
	_, ok := m.(*NopMailer)
	assert.True(t, ok)
	assert.NoError(t, m.Send(context.Background(), Message{To: "a@example.com"}))
}

func TestPaymentConfirmed(t *testing.T) {
	mailer := &captureMailer{}
	n := NewNotifier(mailer, nil, "https://app.example.com/", "aud", zap.NewNop().Sugar())

	require.NoError(t, n.PaymentConfirmed(context.Background(), uuid.New(), "a@example.com", "<Checkout>", 4950))

	require.Len(t, mailer.sent, 1)
	m := mailer.sent[0]
	assert.Equal(t, "Payment Confirmed – <Checkout>", m.Subject)
	assert.Contains(t, m.HTML, "$49.50 AUD")
	assert.Contains(t, m.HTML, "&lt;Checkout&gt;")
}

func TestOutcomeDeliveredLinksDashboard(t *testing.T) {
	mailer := &captureMailer{}
	n := NewNotifier(mailer, nil, "https://app.example.com/", "aud", zap.NewNop().Sugar())
	id := uuid.New()

	require.NoError(t, n.OutcomeDelivered(context.Background(), uuid.New(), "a@example.com", "API", id))

	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].HTML, "https://app.example.com/dashboard/"+id.String())
}

func TestPreferencesSuppress(t *testing.T) {
	mailer := &captureMailer{}
	prefs := prefsFunc(func(_ uuid.UUID, k subscriber.Kind) bool { return k != subscriber.KindDelivery })
	n := NewNotifier(mailer, prefs, "https://app.example.com", "aud", zap.NewNop().Sugar())

	require.NoError(t, n.OutcomeDelivered(context.Background(), uuid.New(), "a@example.com", "API", uuid.New()))
	require.NoError(t, n.PaymentConfirmed(context.Background(), uuid.New(), "a@example.com", "API", 100))

	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].Subject, "Payment Confirmed")
}
