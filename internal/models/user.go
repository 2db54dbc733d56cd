package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
)

// Roles carried in access tokens.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account holder. FiatBalance is the user's base-fiat account.
type User struct {
	UserID       uuid.UUID   `json:"user_id" db:"user_id"`           // Primary key
	Username     string      `json:"username" db:"username"`         // Unique username
	Email        string      `json:"email" db:"email"`               // Unique email
	PasswordHash string      `json:"-" db:"password_hash"`           // bcrypt hash
	Role         string      `json:"role" db:"role"`                 // user or admin
	FiatBalance  money.Money `json:"fiat_balance" db:"fiat_balance"` // Base fiat balance, never negative
	IsActive     bool        `json:"is_active" db:"is_active"`       // Inactive users cannot trade
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`     // Creation timestamp
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`     // Last update timestamp
}
