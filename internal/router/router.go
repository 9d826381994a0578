package router

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/admin"
	"github.com/ovaphlow/pitchfork/service-raas/internal/analytics"
	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
	"github.com/ovaphlow/pitchfork/service-raas/internal/campaign"
	"github.com/ovaphlow/pitchfork/service-raas/internal/outcome"
	"github.com/ovaphlow/pitchfork/service-raas/internal/payment"
	"github.com/ovaphlow/pitchfork/service-raas/internal/pipeline"
	"github.com/ovaphlow/pitchfork/service-raas/internal/subscriber"
	"github.com/ovaphlow/pitchfork/service-raas/internal/user"
	"github.com/ovaphlow/pitchfork/service-raas/internal/web"
)

const (
	Prefix         = "/raas-api"
	ServiceName    = "lumina-raas"
	ServiceVersion = "1.0.0"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Auth        *auth.Middleware
	Users       *user.Handler
	Preferences *subscriber.Handler
	Outcomes    *outcome.Handler
	Pipeline    *pipeline.Handler
	Payments    *payment.Handler
	Campaigns   *campaign.Handler
	Admin       *admin.Handler
	Analytics   *analytics.Handler
}

// RegisterRoutes mounts the API on a ServeMux and wraps it with request id,
// logging and security header middlewares.
func RegisterRoutes(logger *zap.SugaredLogger, h Handlers) http.Handler {
	mux := http.NewServeMux()
	a := h.Auth

	mux.HandleFunc("GET "+Prefix+"/health", health)

	// signed by their senders, no bearer token
	mux.HandleFunc("POST "+Prefix+"/webhooks/identity", h.Users.IdentityWebhook)
	mux.HandleFunc("POST "+Prefix+"/webhooks/payment", h.Payments.Webhook)

	mux.Handle("POST "+Prefix+"/outcomes", a.Require(auth.CapOwnOutcomes, h.Outcomes.Create))
	mux.Handle("GET "+Prefix+"/outcomes", a.Require(auth.CapOwnOutcomes, h.Outcomes.List))
	mux.Handle("GET "+Prefix+"/outcomes/{id}", a.Require(auth.CapOwnOutcomes, h.Outcomes.Get))
	mux.Handle("POST "+Prefix+"/outcomes/{id}/verify", a.Require(auth.CapOwnOutcomes, h.Outcomes.Verify))
	mux.Handle("PUT "+Prefix+"/outcomes/{id}/status", a.Require(auth.CapOwnOutcomes, h.Outcomes.UpdateStatus))

	mux.Handle("POST "+Prefix+"/agent/execute", a.Require(auth.CapRunPipeline, h.Pipeline.Execute))
	mux.Handle("GET "+Prefix+"/agent/executions/{id}", a.Require(auth.CapRunPipeline, h.Pipeline.History))
	mux.Handle("POST "+Prefix+"/payments/checkout", a.Require(auth.CapCheckout, h.Payments.CreateCheckout))
	mux.Handle("POST "+Prefix+"/campaigns/start", a.Require(auth.CapLaunchCampaign, h.Campaigns.Start))

	mux.Handle("GET "+Prefix+"/notifications/preferences", a.RequireUser(h.Preferences.Get))
	mux.Handle("PUT "+Prefix+"/notifications/preferences", a.RequireUser(h.Preferences.Update))

	mux.Handle("GET "+Prefix+"/analytics/me", a.Require(auth.CapOwnAnalytics, h.Analytics.MyMetrics))
	mux.Handle("GET "+Prefix+"/analytics/export.csv", a.Require(auth.CapOwnAnalytics, h.Outcomes.ExportCSV))
	mux.Handle("GET "+Prefix+"/analytics/export.json", a.Require(auth.CapOwnAnalytics, h.Outcomes.ExportJSON))
	mux.Handle("GET "+Prefix+"/analytics/metrics", a.Require(auth.CapAllAnalytics, h.Analytics.AllMetrics))
	mux.Handle("GET "+Prefix+"/analytics/campaigns", a.Require(auth.CapAllAnalytics, h.Campaigns.Metrics))
	mux.Handle("GET "+Prefix+"/analytics/delivery", a.Require(auth.CapAllAnalytics, h.Analytics.DeliveryStats))

	mux.Handle("GET "+Prefix+"/admin/stats", a.Require(auth.CapAdminRead, h.Admin.Stats))
	mux.Handle("GET "+Prefix+"/admin/users", a.Require(auth.CapAdminRead, h.Users.List))
	mux.Handle("GET "+Prefix+"/admin/outcomes", a.Require(auth.CapAdminRead, h.Admin.Outcomes))
	mux.Handle("GET "+Prefix+"/admin/leads", a.Require(auth.CapAdminRead, h.Campaigns.Leads))
	mux.Handle("GET "+Prefix+"/admin/audit-logs", a.Require(auth.CapAdminRead, h.Admin.AuditLogs))
	mux.Handle("POST "+Prefix+"/admin/outcomes/verify", a.Require(auth.CapAdminWrite, h.Admin.BulkVerify))
	mux.Handle("PUT "+Prefix+"/admin/users/{id}/role", a.Require(auth.CapAdminWrite, h.Users.UpdateRole))

	return RequestIDMiddleware()(LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux)))
}

func health(w http.ResponseWriter, _ *http.Request) {
	web.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   ServiceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"version":   ServiceVersion,
	})
}
