package user

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
	"github.com/ovaphlow/pitchfork/service-raas/internal/web"
)

const maxWebhookBytes = 1 << 20

// Handler exposes the identity webhook and the admin user endpoints.
type Handler struct {
	svc      *UserService
	verifier *SignatureVerifier
	logger   *zap.SugaredLogger
}

// NewHandler builds the handler. A nil verifier accepts unsigned webhooks.
func NewHandler(svc *UserService, verifier *SignatureVerifier, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, verifier: verifier, logger: logger}
}

// IdentityWebhook handles POST /raas-api/webhooks/identity.
func (h *Handler) IdentityWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		web.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}
	if h.verifier != nil {
		if err := h.verifier.Verify(r.Header, body); err != nil {
			h.logger.Warnw("identity webhook rejected", "err", err)
			web.WriteError(w, h.logger, err, "Webhook processing failed")
			return
		}
	}
	var evt IdentityEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		h.logger.Debugw("invalid identity webhook payload", "err", err)
		web.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.svc.HandleIdentityEvent(r.Context(), evt); err != nil {
		web.WriteError(w, h.logger, err, "Webhook processing failed")
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// List handles GET /raas-api/admin/users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		web.WriteError(w, h.logger, err, "failed to list users")
		return
	}
	web.WriteJSON(w, http.StatusOK, users)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateRole handles PUT /raas-api/admin/users/{id}/role.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		web.WriteError(w, h.logger, apperr.Validation("invalid user id"), "")
		return
	}
	var req updateRoleRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, h.logger, err, "invalid payload")
		return
	}
	actor, _ := auth.FromContext(r.Context())
	if err := h.svc.UpdateRole(r.Context(), actor, id, req.Role); err != nil {
		web.WriteError(w, h.logger, err, "failed to update role")
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
