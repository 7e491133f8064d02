package mongo

import (
	"strings"
	"time"

	"github.com/codax69/sever-main-sub001/internal/auth/domain"
)

// userDocument is the stored shape of a user. Token fields hold sha256
// fingerprints only, never the raw tokens.
type userDocument struct {
	ID       string `bson:"_id"`
	Username string `bson:"username"`
	Email    string `bson:"email"`
	Phone    string `bson:"phone,omitempty"`
	Password string `bson:"password"`
	Role     string `bson:"role"`

	IsActive   bool `bson:"isActive"`
	IsApproved bool `bson:"isApproved"`
	IsVerified bool `bson:"isVerified"`
	IsLoggedIn bool `bson:"isLoggedIn"`

	LoginCount int        `bson:"loginCount"`
	LastLogin  *time.Time `bson:"lastLogin,omitempty"`

	AccessToken  string `bson:"accessToken,omitempty"`
	RefreshToken string `bson:"refreshToken,omitempty"`

	ResetPasswordToken   string     `bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpires *time.Time `bson:"resetPasswordExpires,omitempty"`

	VerificationToken        string     `bson:"verificationToken,omitempty"`
	VerificationTokenExpires *time.Time `bson:"verificationTokenExpires,omitempty"`

	GoogleID string `bson:"googleId,omitempty"`
	Picture  string `bson:"picture,omitempty"`

	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func toDocument(u *domain.User) *userDocument {
	return &userDocument{
		ID:                       u.ID,
		Username:                 u.Username,
		Email:                    strings.ToLower(u.Email),
		Phone:                    u.Phone,
		Password:                 u.PasswordHash,
		Role:                     u.Role,
		IsActive:                 u.IsActive,
		IsApproved:               u.IsApproved,
		IsVerified:               u.IsVerified,
		IsLoggedIn:               u.IsLoggedIn,
		LoginCount:               u.LoginCount,
		LastLogin:                u.LastLogin,
		AccessToken:              u.AccessTokenHash,
		RefreshToken:             u.RefreshTokenHash,
		ResetPasswordToken:       u.ResetPasswordTokenHash,
		ResetPasswordExpires:     u.ResetPasswordExpires,
		VerificationToken:        u.VerificationTokenHash,
		VerificationTokenExpires: u.VerificationTokenExpires,
		GoogleID:                 u.GoogleID,
		Picture:                  u.Picture,
		CreatedAt:                u.CreatedAt,
		UpdatedAt:                u.UpdatedAt,
	}
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:                       d.ID,
		Username:                 d.Username,
		Email:                    d.Email,
		Phone:                    d.Phone,
		PasswordHash:             d.Password,
		Role:                     d.Role,
		IsActive:                 d.IsActive,
		IsApproved:               d.IsApproved,
		IsVerified:               d.IsVerified,
		IsLoggedIn:               d.IsLoggedIn,
		LoginCount:               d.LoginCount,
		LastLogin:                d.LastLogin,
		AccessTokenHash:          d.AccessToken,
		RefreshTokenHash:         d.RefreshToken,
		ResetPasswordTokenHash:   d.ResetPasswordToken,
		ResetPasswordExpires:     d.ResetPasswordExpires,
		VerificationTokenHash:    d.VerificationToken,
		VerificationTokenExpires: d.VerificationTokenExpires,
		GoogleID:                 d.GoogleID,
		Picture:                  d.Picture,
		CreatedAt:                d.CreatedAt,
		UpdatedAt:                d.UpdatedAt,
	}
}
