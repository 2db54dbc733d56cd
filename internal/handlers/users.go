package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

//go:generate mockgen -source=users.go -destination=users_mock.go -package=handlers

// UserStatusSetter suspends and reinstates accounts.
type UserStatusSetter interface {
	SetUserActive(ctx context.Context, userID uuid.UUID, active bool) (*models.User, error)
}

// UserStatusRequest carries the new account state.
type UserStatusRequest struct {
	IsActive *bool `json:"is_active"`
}

// NewSetUserStatusHandler suspends or reinstates an account.
// @Summary Set user status
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body UserStatusRequest true "New state"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse "Unknown user"
// @Router /admin/users/{id}/status [put]
// @Security BearerAuth
func NewSetUserStatusHandler(svc UserStatusSetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, apperr.Wrap(apperr.InvalidRequest, err, "invalid user id"))
			return
		}
		var req UserStatusRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.IsActive == nil {
			writeError(w, r, apperr.New(apperr.InvalidRequest, "is_active is required"))
			return
		}

		user, err := svc.SetUserActive(r.Context(), userID, *req.IsActive)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}
