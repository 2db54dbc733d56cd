// Package handlers exposes the exchange over HTTP. Handlers decode a typed
// request, fill in the caller from the auth context and map apperr kinds to
// status codes.
package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/middlewares"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

var errUnauthorized = errors.New("unauthorized")

// statusFor maps an error kind to its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidRequest:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.InsufficientFunds, apperr.InsufficientTreasury, apperr.CurrencyUnavailable,
		apperr.DiscountError, apperr.Unsupported:
		return http.StatusUnprocessableEntity
	case apperr.InvalidState, apperr.DuplicateReference:
		return http.StatusConflict
	case apperr.Timeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorw("failed to encode response", "error", err)
	}
}

// writeError renders err as models.ErrorResponse. Infrastructure detail never
// reaches the body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errUnauthorized) {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	kind := apperr.KindOf(err)
	status := statusFor(kind)
	resp := models.ErrorResponse{
		Error:  apperr.PublicMessage(err),
		Reason: string(apperr.ReasonOf(err)),
	}
	if status < http.StatusInternalServerError {
		resp.Kind = string(kind)
	}

	if status >= http.StatusInternalServerError {
		logger.Log.Errorw("request failed",
			"request_id", middlewares.RequestIDFromContext(r.Context()),
			"uri", r.RequestURI,
			"kind", kind,
			"error", err,
		)
	} else {
		logger.Log.Warnw("request rejected",
			"request_id", middlewares.RequestIDFromContext(r.Context()),
			"uri", r.RequestURI,
			"kind", kind,
			"error", err,
		)
	}
	if kind == apperr.Timeout {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, resp)
}

// decode reads a JSON body into dst, reporting malformed input as InvalidRequest.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.InvalidRequest, err, "invalid request body")
	}
	return nil
}

// decodeOptional is decode for endpoints whose body may be omitted.
func decodeOptional(r *http.Request, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return apperr.Wrap(apperr.InvalidRequest, err, "invalid request body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Wrap(apperr.InvalidRequest, err, "invalid request body")
	}
	return nil
}

func currentUser(r *http.Request) (uuid.UUID, error) {
	userID, ok := middlewares.UserIDFromContext(r.Context())
	if !ok || userID == uuid.Nil {
		return uuid.Nil, errUnauthorized
	}
	return userID, nil
}

// page reads limit and offset query parameters; absent values are zero.
func page(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			return 0, 0, apperr.New(apperr.InvalidRequest, "limit must be a non-negative integer")
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, apperr.New(apperr.InvalidRequest, "offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}
