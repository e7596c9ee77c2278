package httpdto

// RegisterRequest is used for POST /auth/register
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name,omitempty"`
}

// RegisterResponse is returned after account creation. When the provider
// still needs the email address confirmed, VerificationRequired is true
// and no session exists yet.
type RegisterResponse struct {
	User                 UserDTO `json:"user"`
	VerificationRequired bool    `json:"verification_required"`
}

// LoginRequest is used for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned after successful login
type AuthResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token,omitempty"`
	ExpiresIn    int64   `json:"expires_in"`
	User         UserDTO `json:"user"`
}

// MeResponse is returned by GET /auth/me. User is null without a session.
type MeResponse struct {
	User *UserDTO `json:"user"`
}

// UserDTO represents a provider-managed user in API responses
type UserDTO struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Verified bool   `json:"verified"`
}
