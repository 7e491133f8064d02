package service

//go:generate mockgen -destination=../../mocks/mock_mailer.go -package=mocks github.com/codax69/sever-main-sub001/internal/auth/service Mailer
//go:generate mockgen -destination=../../mocks/mock_identity_verifier.go -package=mocks github.com/codax69/sever-main-sub001/internal/auth/service IdentityVerifier
//go:generate mockgen -destination=../../mocks/mock_login_limiter.go -package=mocks github.com/codax69/sever-main-sub001/internal/auth/service LoginLimiter

import (
	"context"
	"time"
)

// Mailer delivers the transactional emails of the auth flows.
type Mailer interface {
	SendWelcome(ctx context.Context, to, username string) error
	SendPasswordReset(ctx context.Context, to, username, resetURL string) error
	SendVerification(ctx context.Context, to, username, verifyURL string) error
}

// ExternalIdentity is the verified content of a federated identity token.
type ExternalIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// IdentityVerifier checks an identity token issued by an external provider.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*ExternalIdentity, error)
}

// LoginLimiter counts failed logins per key inside a sliding window.
type LoginLimiter interface {
	Failures(ctx context.Context, key string) (int, error)
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
	Reset(ctx context.Context, key string) error
}
