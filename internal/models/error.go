package models

// ErrorResponse is the body of every failed request
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	// example: insufficient fiat balance
	Error string `json:"error"`

	// Error kind
	// example: insufficient_funds
	Kind string `json:"kind,omitempty"`

	// Discount rejection reason
	// example: expired
	Reason string `json:"reason,omitempty"`
}
