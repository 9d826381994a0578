package campaign

import (
	"errors"
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

// Start handles POST /raas-api/campaigns/start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var in StartInput
	if err := web.DecodeJSON(r, &in); err != nil {
		web.WriteError(w, h.logger, err, "invalid payload")
		return
	}
	p, _ := auth.FromContext(r.Context())
	res, err := h.svc.Start(r.Context(), p.AuthID, in)
	if errors.Is(err, ErrNameRequired) {
		web.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Campaign name required"})
		return
	}
	if err != nil {
		web.WriteError(w, h.logger, err, "Failed to start campaign")
		return
	}
	web.WriteJSON(w, http.StatusOK, res)
}

// Metrics handles GET /raas-api/campaigns/metrics.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Metrics(r.Context())
	if err != nil {
		web.WriteError(w, h.logger, err, "failed to load campaign metrics")
		return
	}
	web.WriteJSON(w, http.StatusOK, out)
}

// Leads handles GET /raas-api/admin/leads.
func (h *Handler) Leads(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Leads(r.Context())
	if err != nil {
		web.WriteError(w, h.logger, err, "failed to load leads")
		return
	}
	web.WriteJSON(w, http.StatusOK, out)
}
