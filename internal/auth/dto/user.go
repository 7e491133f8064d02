package dto

import (
	"time"

	"github.com/codax69/sever-main-sub001/internal/auth/domain"
)

type UserOutput struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone,omitempty"`
	Role       string     `json:"role"`
	Picture    string     `json:"picture,omitempty"`
	IsActive   bool       `json:"isActive"`
	IsApproved bool       `json:"isApproved"`
	IsVerified bool       `json:"isVerified"`
	LoginCount int        `json:"loginCount"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// NewUserOutput strips credentials and token state from a user record.
func NewUserOutput(u *domain.User) UserOutput {
	return UserOutput{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Phone:      u.Phone,
		Role:       u.Role,
		Picture:    u.Picture,
		IsActive:   u.IsActive,
		IsApproved: u.IsApproved,
		IsVerified: u.IsVerified,
		LoginCount: u.LoginCount,
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// AuthUser is the identity attached to an authenticated request.
type AuthUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	IsApproved bool   `json:"isApproved"`
	IsActive   bool   `json:"isActive"`
}

type UpdateProfileInput struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=32"`
	Phone    *string `json:"phone"`
}

type ListUsersInput struct {
	Role  string `query:"role" validate:"omitempty,oneof=user admin"`
	Page  int    `query:"page" validate:"omitempty,min=1"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

type UserListOutput struct {
	Users []UserOutput `json:"users"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

type SetApprovalInput struct {
	Approved *bool `json:"approved" validate:"required"`
}

type SetActiveInput struct {
	Active *bool `json:"active" validate:"required"`
}

type SessionOutput struct {
	Authenticated bool      `json:"authenticated"`
	User          *AuthUser `json:"user,omitempty"`
}
