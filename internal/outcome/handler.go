package outcome

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
	"github.com/ovaphlow/pitchfork/service-raas/internal/web"
)

// Handler exposes the owner-facing outcome endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid outcome id")
	}
	return id, nil
}

// Create handles POST /raas-api/outcomes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	var in CreateInput
	if err := web.DecodeJSON(r, &in); err != nil {
		h.logger.Debugw("invalid outcome payload", "err", err)
		web.WriteError(w, h.logger, err, "invalid payload")
		return
	}
	res, err := h.svc.Create(r.Context(), p, in)
	if err != nil {
		web.WriteError(w, h.logger, err, "failed to create outcome")
		return
	}
	web.WriteJSON(w, http.StatusCreated, res)
}

// List handles GET /raas-api/outcomes.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	out, err := h.svc.List(r.Context(), p)
	if err != nil {
		web.WriteError(w, h.logger, err, "failed to list outcomes")
		return
	}
	web.WriteJSON(w, http.StatusOK, out)
}

// Get handles GET /raas-api/outcomes/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		web.WriteError(w, h.logger, err, "")
		return
	}
	o, err := h.svc.Get(r.Context(), p, id)
	if err != nil {
		web.WriteError(w, h.logger, err, "failed to load outcome")
		return
	}
	web.WriteJSON(w, http.StatusOK, o)
}

// Verify handles POST /raas-api/outcomes/{id}/verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		web.WriteError(w, h.logger, err, "")
		return
	}
	res, err := h.svc.Verify(r.Context(), p, id)
	if err != nil {
		web.WriteError(w, h.logger, err, "failed to verify outcome")
		return
	}
	web.WriteJSON(w, http.StatusOK, res)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PUT /raas-api/outcomes/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		web.WriteError(w, h.logger, err, "")
		return
	}
	var req statusRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, h.logger, err, "invalid payload")
		return
	}
	if err := h.svc.UpdateStatus(r.Context(), p, id, req.Status); err != nil {
		web.WriteError(w, h.logger, err, "failed to update status")
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ExportCSV handles GET /raas-api/analytics/export.csv.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	rows, err := h.svc.ExportRows(r.Context(), p)
	if err != nil {
		web.WriteError(w, h.logger, err, "export failed")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="raas-outcomes.csv"`)
	if err := WriteCSV(w, rows); err != nil {
		h.logger.Warnw("csv export interrupted", "err", err)
	}
}

// ExportJSON handles GET /raas-api/analytics/export.json.
func (h *Handler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	rows, err := h.svc.List(r.Context(), p)
	if err != nil {
		web.WriteError(w, h.logger, err, "export failed")
		return
	}
	web.WriteJSON(w, http.StatusOK, rows)
}
