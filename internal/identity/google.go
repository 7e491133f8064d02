// Package identity verifies Google ID tokens for federated sign-in.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/codax69/sever-main-sub001/internal/auth/service"
	"google.golang.org/api/idtoken"
)

var ErrEmailNotVerified = errors.New("google account email is not verified")

type validateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// GoogleVerifier checks ID tokens against Google's public keys with the
// OAuth client id as the expected audience.
type GoogleVerifier struct {
	clientID string
	validate validateFunc
}

func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	v, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("create id token validator: %w", err)
	}
	return &GoogleVerifier{clientID: clientID, validate: v.Validate}, nil
}

func (g *GoogleVerifier) Verify(ctx context.Context, idToken string) (*service.ExternalIdentity, error) {
	payload, err := g.validate(ctx, idToken, g.clientID)
	if err != nil {
		return nil, err
	}

	identity := fromPayload(payload)
	if !identity.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	return identity, nil
}

func fromPayload(p *idtoken.Payload) *service.ExternalIdentity {
	identity := &service.ExternalIdentity{Subject: p.Subject}
	if v, ok := p.Claims["email"].(string); ok {
		identity.Email = v
	}
	if v, ok := p.Claims["name"].(string); ok {
		identity.Name = v
	}
	if v, ok := p.Claims["picture"].(string); ok {
		identity.Picture = v
	}
	switch v := p.Claims["email_verified"].(type) {
	case bool:
		identity.EmailVerified = v
	case string:
		identity.EmailVerified = v == "true"
	}
	return identity
}
