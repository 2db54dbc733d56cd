package models

// RegisterRequest represents the JSON body for user registration
// swagger:model RegisterRequest
type RegisterRequest struct {
	// Username
	// required: true
	// example: john_doe
	Username string `json:"username" validate:"required,min=3,max=50"`

	// Password
	// required: true
	// example: secret123
	Password string `json:"password" validate:"required,min=6,max=72"`

	// Email
	// required: true
	// example: john@example.com
	Email string `json:"email" validate:"required,email,max=100"`
}

// Validate checks field constraints.
func (r RegisterRequest) Validate() error {
	return validateStruct(r)
}

// RegisterResponse represents a successful registration response
// swagger:model RegisterResponse
type RegisterResponse struct {
	// Success message
	// example: User registered successfully
	Message string `json:"message"`
}

// LoginRequest represents the JSON body for user login
// swagger:model LoginRequest
type LoginRequest struct {
	// Username
	// required: true
	// example: john_doe
	Username string `json:"username" validate:"required"`

	// Password
	// required: true
	// example: secret123
	Password string `json:"password" validate:"required"`
}

// Validate checks field constraints.
func (r LoginRequest) Validate() error {
	return validateStruct(r)
}

// LoginResponse carries the issued access token
// swagger:model LoginResponse
type LoginResponse struct {
	// JWT token
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	Token string `json:"token"`
}
