package httpapi

import (
	"encoding/json"
	"net/http"
)

// APIResult is the response envelope shared by all endpoints: an HTTP-like
// code, a short human message and an optional payload.
type APIResult struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

// writeResult writes the envelope with its code as the HTTP status.
func writeResult(w http.ResponseWriter, res APIResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.Code)
	_ = json.NewEncoder(w).Encode(res)
}

// RegisterRequest is the registration form.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginRequest carries a login identifier (email, username or id), the
// password and the remember-me flag.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberme"`
}

// LoginResponse reports login success; identity travels in the cookie.
type LoginResponse struct {
	Success bool `json:"success"`
}

// UsernameRequest carries a username to check for availability.
type UsernameRequest struct {
	Username string `json:"username"`
}

// AvailabilityResponse reports whether a username is free.
type AvailabilityResponse struct {
	Success bool `json:"success"`
}

// UsersRequest is the directory page request: the display-name cursor of the
// last user seen.
type UsersRequest struct {
	LastUser string `json:"last_user"`
}
