package payment

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
	"github.com/ovaphlow/pitchfork/service-raas/internal/web"
)

const maxWebhookBytes = 1 << 16

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type checkoutRequest struct {
	OutcomeID string `json:"outcomeId"`
}

// CreateCheckout handles POST /raas-api/payments/checkout.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, h.logger, err, "invalid payload")
		return
	}
	id, err := uuid.Parse(req.OutcomeID)
	if err != nil {
		web.WriteError(w, h.logger, apperr.Validation("invalid outcomeId"), "")
		return
	}
	p, _ := auth.FromContext(r.Context())
	res, err := h.svc.CreateCheckout(r.Context(), p, id)
	if err != nil {
		web.WriteError(w, h.logger, err, "Failed to create checkout session")
		return
	}
	web.WriteJSON(w, http.StatusOK, res)
}

// Webhook handles POST /raas-api/webhooks/payment.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		web.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}
	sig := r.Header.Get("Stripe-Signature")
	if sig == "" {
		web.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "No signature"})
		return
	}
	if err := h.svc.HandleWebhook(r.Context(), payload, sig); err != nil {
		if errors.Is(err, ErrSignature) {
			h.logger.Warnw("payment webhook rejected", "err", err)
			web.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Webhook Error: " + err.Error()})
			return
		}
		if errors.Is(err, ErrMalformedEvent) {
			h.logger.Warnw("payment webhook undecodable", "err", err)
			web.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Malformed event"})
			return
		}
		web.WriteError(w, h.logger, err, "Webhook processing failed")
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
