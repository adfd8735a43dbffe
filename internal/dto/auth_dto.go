package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// LoginRequest.Role optionally names the portal the client is signing into.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1"`
	Password string `json:"password" validate:"required,min=1"`
	Role     string `json:"role"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RegisterRequest is checked by the service so that the error messages match
// what the sign-up page shows.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UserDecisionRequest struct {
	Action  string `json:"action"`
	Message string `json:"message" validate:"max=1000"`
}

type UserFilter struct {
	Search         string `form:"search"`
	ApprovalStatus string `form:"approval_status"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UserResponse struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	ApprovalStatus string `json:"approval_status"`
	IsSuperuser    bool   `json:"is_superuser"`
	DateJoined     string `json:"date_joined"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // seconds
	Redirect     string       `json:"redirect"`
	User         UserResponse `json:"user"`
}

type RegisterResponse struct {
	Message        string `json:"message"`
	Role           string `json:"role"`
	ApprovalStatus string `json:"approval_status"`
}

type UserDecisionResponse struct {
	Message    string        `json:"message"`
	User       *UserResponse `json:"user,omitempty"`
	ShowDelete bool          `json:"show_delete,omitempty"`
	Deleted    bool          `json:"deleted,omitempty"`
	UserID     string        `json:"user_id"`
	Username   string        `json:"username"`
}
