// Package model provides data transfer objects and domain models for the identity module.
package model

// ExternalUser is a single entry from an external identity provider,
// such as a bug tracker's user directory.
type ExternalUser struct {
	Login           string `json:"login"            binding:"required"`
	DisplayName     string `json:"display_name"`
	CanAuthenticate bool   `json:"can_authenticate"`
}

// ResolveUsersRequest represents the request to resolve a batch of
// external identities to local users.
type ResolveUsersRequest struct {
	Users []ExternalUser `json:"users" binding:"required"`
}

// LoginRequest represents the request to create a session.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse represents the response after creating a session.
type SessionResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID          uint64 `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// NewUserResponse builds a UserResponse from a user entity.
func NewUserResponse(u *User) *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		IsActive:    u.IsActive,
	}
}
