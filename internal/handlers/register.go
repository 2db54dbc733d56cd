package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

//go:generate mockgen -source=register.go -destination=register_mock.go -package=handlers

// Registerer defines the interface for user registration.
type Registerer interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
}

// NewRegisterHandler returns an HTTP handler for user registration.
// @Summary Register a new user
// @Description Creates a user with a zero fiat balance and a wallet per active currency.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "User registration data"
// @Success 201 {object} models.RegisterResponse "User registered successfully"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 409 {object} models.ErrorResponse "Username or email already exists"
// @Router /register [post]
func NewRegisterHandler(svc Registerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		if _, err := svc.Register(r.Context(), req); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, models.RegisterResponse{
			Message: "User registered successfully",
		})
	}
}
