package analytics

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
	"github.com/ovaphlow/pitchfork/service-raas/internal/web"
)

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// MyMetrics handles GET /raas-api/analytics/me.
func (h *Handler) MyMetrics(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	m, err := h.svc.MyMetrics(r.Context(), p.UserID)
	if err != nil {
		web.WriteError(w, h.logger, err, "failed to load metrics")
		return
	}
	web.WriteJSON(w, http.StatusOK, m)
}

// AllMetrics handles GET /raas-api/analytics/metrics.
func (h *Handler) AllMetrics(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.AllMetrics(r.Context())
	if err != nil {
		web.WriteError(w, h.logger, err, "failed to load metrics")
		return
	}
	web.WriteJSON(w, http.StatusOK, out)
}

// DeliveryStats handles GET /raas-api/analytics/delivery.
func (h *Handler) DeliveryStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.DeliveryStats(r.Context())
	if err != nil {
		web.WriteError(w, h.logger, err, "failed to load delivery stats")
		return
	}
	web.WriteJSON(w, http.StatusOK, out)
}
