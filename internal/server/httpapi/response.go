// Package httpapi exposes the REST surface of the server: auth, uploads,
// library and profile endpoints plus the internal worker callback. Routing
// uses chi; every response is a JSON envelope with a success flag.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avolkov/paperstand/internal/common"
	"github.com/avolkov/paperstand/internal/logging"
)

// writeJSON writes payload with the given status. Payload maps are expected
// to already carry the "success" key.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// ok writes a success envelope merged with the extra fields.
func ok(w http.ResponseWriter, status int, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// fail maps a service error onto an HTTP status and writes the failure
// envelope. Internal errors get a generic message; everything else surfaces
// the error text, which the services keep user-presentable.
func fail(ctx context.Context, w http.ResponseWriter, log logging.Logger, err error) {
	status := statusFromError(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", "error", err)
		message = "internal server error"
	}
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into dst, rejecting unknown garbage
// early with a validation error.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return common.ErrValidation
	}
	return nil
}
