package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func stubVerifier(payload *idtoken.Payload, err error) (*GoogleVerifier, *string) {
	var gotAudience string
	return &GoogleVerifier{
		clientID: "client-123.apps.googleusercontent.com",
		validate: func(_ context.Context, _, audience string) (*idtoken.Payload, error) {
			gotAudience = audience
			return payload, err
		},
	}, &gotAudience
}

func TestGoogleVerifier_Verify(t *testing.T) {
	t.Run("maps claims", func(t *testing.T) {
		v, audience := stubVerifier(&idtoken.Payload{
			Subject: "1099",
			Claims: map[string]interface{}{
				"email":          "shopper@gmail.com",
				"email_verified": true,
				"name":           "Asha Patel",
				"picture":        "https://lh3.googleusercontent.com/a/pic",
			},
		}, nil)

		id, err := v.Verify(context.Background(), "token")
		require.NoError(t, err)
		assert.Equal(t, "client-123.apps.googleusercontent.com", *audience)
		assert.Equal(t, "1099", id.Subject)
		assert.Equal(t, "shopper@gmail.com", id.Email)
		assert.Equal(t, "Asha Patel", id.Name)
		assert.True(t, id.EmailVerified)
	})

	t.Run("string email_verified", func(t *testing.T) {
		v, _ := stubVerifier(&idtoken.Payload{
			Subject: "1099",
			Claims:  map[string]interface{}{"email": "shopper@gmail.com", "email_verified": "true"},
		}, nil)

		id, err := v.Verify(context.Background(), "token")
		require.NoError(t, err)
		assert.True(t, id.EmailVerified)
	})

	t.Run("unverified email", func(t *testing.T) {
		v, _ := stubVerifier(&idtoken.Payload{
			Subject: "1099",
			Claims:  map[string]interface{}{"email": "shopper@gmail.com", "email_verified": false},
		}, nil)

		_, err := v.Verify(context.Background(), "token")
		assert.ErrorIs(t, err, ErrEmailNotVerified)
	})

	t.Run("invalid token", func(t *testing.T) {
		v, _ := stubVerifier(nil, errors.New("idtoken: audience provided does not match"))

		_, err := v.Verify(context.Background(), "token")
		assert.Error(t, err)
	})
}
