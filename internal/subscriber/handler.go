package subscriber

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

// Get handles GET /raas-api/notifications/preferences.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	sub, err := h.svc.Get(r.Context(), p.UserID)
	if err != nil {
		web.WriteError(w, h.logger, err, "failed to load preferences")
		return
	}
	web.WriteJSON(w, http.StatusOK, sub)
}

// Update handles PUT /raas-api/notifications/preferences.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	var in UpdateInput
	if err := web.DecodeJSON(r, &in); err != nil {
		h.logger.Debugw("invalid preferences payload", "err", err)
		web.WriteError(w, h.logger, err, "invalid payload")
		return
	}
	sub, err := h.svc.Update(r.Context(), p.UserID, in)
	if err != nil {
		web.WriteError(w, h.logger, err, "failed to save preferences")
		return
	}
	web.WriteJSON(w, http.StatusOK, sub)
}
