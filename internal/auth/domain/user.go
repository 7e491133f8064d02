package domain

import "time"

type User struct {
	ID           string
	Username     string
	Email        string
	Phone        string
	PasswordHash string
	Role         string

	IsActive   bool
	IsApproved bool
	IsVerified bool
	IsLoggedIn bool

	LoginCount int
	LastLogin  *time.Time

	// Fingerprints (sha256 hex) of the most recently issued token pair.
	AccessTokenHash  string
	RefreshTokenHash string

	ResetPasswordTokenHash string
	ResetPasswordExpires   *time.Time

	VerificationTokenHash    string
	VerificationTokenExpires *time.Time

	GoogleID string
	Picture  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionFingerprint holds the hashes persisted for an issued token pair.
type SessionFingerprint struct {
	AccessTokenHash  string
	RefreshTokenHash string
}

// ProfileUpdate lists the self-service fields a user may change. Nil fields
// are left untouched.
type ProfileUpdate struct {
	Username *string
	Phone    *string
}

type UserFilter struct {
	Role   string
	Limit  int
	Offset int
}
