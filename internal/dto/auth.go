package dto

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,max=100"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Role      string `json:"role" binding:"omitempty,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	Token        string `json:"token" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type RevokeTokenRequest struct {
	Token string `json:"token"` // falls back to the Authorization header
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,max=100"`
}

// AuthResponse is the uniform result of the session endpoints.
// On failure only Success and Errors are set.
type AuthResponse struct {
	Success      bool     `json:"success"`
	Errors       []string `json:"errors"`
	Token        string   `json:"token,omitempty"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	ExpiresIn    int      `json:"expires_in,omitempty"` // Access token expiry in seconds
	UserID       string   `json:"user_id,omitempty"`
	Email        string   `json:"email,omitempty"`
	FirstName    string   `json:"first_name,omitempty"`
	LastName     string   `json:"last_name,omitempty"`
	Role         string   `json:"role,omitempty"`
}

// FailedAuthResponse builds the failure shape of AuthResponse
func FailedAuthResponse(errors ...string) *AuthResponse {
	if errors == nil {
		errors = []string{}
	}
	return &AuthResponse{Success: false, Errors: errors}
}

type ForgotPasswordResponse struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
	Message string   `json:"message"`
	Token   string   `json:"token,omitempty"` // only when reset token exposure is enabled outside production
}
