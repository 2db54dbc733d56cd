package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/services"
)

//go:generate mockgen -source=login.go -destination=login_mock.go -package=handlers

// Loginer defines the interface for user login.
type Loginer interface {
	Login(ctx context.Context, req models.LoginRequest) (string, error)
}

// NewLoginHandler returns an HTTP handler for user login.
// @Summary Log in
// @Description Authenticates a user and returns a JWT token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "User credentials"
// @Success 200 {object} models.LoginResponse "JWT token"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 401 {object} models.ErrorResponse "Invalid username or password"
// @Router /login [post]
func NewLoginHandler(svc Loginer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		token, err := svc.Login(r.Context(), req)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidCredentials),
				errors.Is(err, services.ErrUserDoesNotExist):
				writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{
					Error: "Invalid username or password",
				})
			default:
				writeError(w, r, err)
			}
			return
		}

		writeJSON(w, http.StatusOK, models.LoginResponse{
			Token: token,
		})
	}
}
