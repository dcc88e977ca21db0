package dto

import "time"

// LoginRequest payload for operator login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest payload for new operators.
type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
	OperatorID  string    `json:"operator_id"`
	DisplayName string    `json:"display_name"`
}
