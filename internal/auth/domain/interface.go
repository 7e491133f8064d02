package domain

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/codax69/sever-main-sub001/internal/auth/domain UserRepository

import (
	"context"
	"time"
)

// UserRepository is the credential store. Lookup methods return (nil, nil)
// when no record matches. Create returns errors.ErrUserAlreadyExists when a
// unique field collides.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmailAndRole(ctx context.Context, email, role string) (*User, error)
	GetByPhoneAndRole(ctx context.Context, phone, role string) (*User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*User, error)
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error)
	GetByVerificationToken(ctx context.Context, tokenHash, role string, now time.Time) (*User, error)

	// RecordLogin stores the new fingerprint, marks the user logged in, sets
	// the last-login time and increments the login counter in one update.
	RecordLogin(ctx context.Context, id string, fp SessionFingerprint, at time.Time) error
	// SaveSession stores a rotated fingerprint without touching the counter.
	SaveSession(ctx context.Context, id string, fp SessionFingerprint) error
	ClearSession(ctx context.Context, id string) error

	SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	// UpdatePassword replaces the hash and clears any pending reset token.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// ConsumeResetToken is UpdatePassword conditioned on tokenHash still being
	// the unexpired reset token. It returns errors.ErrInvalidOrExpiredToken
	// when it is not.
	ConsumeResetToken(ctx context.Context, id, tokenHash, passwordHash string, now time.Time) error

	SetVerificationToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	MarkVerified(ctx context.Context, id string) error
	LinkGoogleAccount(ctx context.Context, id, googleID, picture string) error

	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*User, error)
	SetApproval(ctx context.Context, id string, approved bool) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter UserFilter) ([]*User, int64, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}
