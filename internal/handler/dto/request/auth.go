package request

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is optional in the body; the cookie fallback covers
// browser clients.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
