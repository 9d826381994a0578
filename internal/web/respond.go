// Package web holds the small JSON request/response helpers shared by handlers.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err as {"error": msg} with the status from apperr.Status.
// Internal errors are logged and replaced by fallback so details never leak.
func WriteError(w http.ResponseWriter, logger *zap.SugaredLogger, err error, fallback string) {
	status := apperr.Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.Errorw(fallback, "err", err)
		}
		msg = fallback
	}
	WriteJSON(w, status, map[string]string{"error": msg})
}

// DecodeJSON reads a JSON body into v; malformed input is a validation error.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("empty request body")
		}
		return fmt.Errorf("%w: invalid payload", apperr.ErrValidation)
	}
	return nil
}
