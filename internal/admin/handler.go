package admin

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
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

// Stats handles GET /raas-api/admin/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		web.WriteError(w, h.logger, err, "failed to compute stats")
		return
	}
	web.WriteJSON(w, http.StatusOK, st)
}

// Outcomes handles GET /raas-api/admin/outcomes.
func (h *Handler) Outcomes(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Outcomes(r.Context())
	if err != nil {
		web.WriteError(w, h.logger, err, "failed to list outcomes")
		return
	}
	web.WriteJSON(w, http.StatusOK, out)
}

type bulkVerifyRequest struct {
	OutcomeIDs []string `json:"outcomeIds"`
}

// BulkVerify handles POST /raas-api/admin/outcomes/verify.
func (h *Handler) BulkVerify(w http.ResponseWriter, r *http.Request) {
	var req bulkVerifyRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, h.logger, err, "invalid payload")
		return
	}
	actor, _ := auth.FromContext(r.Context())
	res, err := h.svc.BulkVerify(r.Context(), actor, req.OutcomeIDs)
	if err != nil {
		web.WriteError(w, h.logger, err, "failed to verify outcomes")
		return
	}
	web.WriteJSON(w, http.StatusOK, res)
}

// AuditLogs handles GET /raas-api/admin/audit-logs?limit=N.
func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			web.WriteError(w, h.logger, apperr.Validation("invalid limit"), "")
			return
		}
		limit = n
	}
	out, err := h.svc.AuditLogs(r.Context(), limit)
	if err != nil {
		web.WriteError(w, h.logger, err, "failed to list audit logs")
		return
	}
	web.WriteJSON(w, http.StatusOK, out)
}
