package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/codax69/sever-main-sub001/internal/auth/service TokenGenerator

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/codax69/sever-main-sub001/internal/auth/domain"
	autherror "github.com/codax69/sever-main-sub001/internal/errors"
	"github.com/codax69/sever-main-sub001/pkg/constant"
	"github.com/golang-jwt/jwt/v5"
)

type TokenGenerator interface {
	Generate(userID, role string) (*TokenPair, error)
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry(role string) time.Duration
	VerifyAccessToken(tokenString string) (*JWTCustomClaims, error)
	VerifyRefreshToken(tokenString string) (*JWTCustomClaims, error)
}

// TokenPair is handed to the client; only its fingerprint is stored.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
}

// Fingerprint returns the hashes persisted for the pair.
func (p *TokenPair) Fingerprint() domain.SessionFingerprint {
	return domain.SessionFingerprint{
		AccessTokenHash:  HashToken(p.AccessToken),
		RefreshTokenHash: HashToken(p.RefreshToken),
	}
}

type TokenService struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenExpiry  time.Duration
	// RefreshTokenExpiry holds the refresh lifetime per role.
	RefreshTokenExpiry map[string]time.Duration

	now func() time.Time
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
	Type string `json:"type"`
}

func NewTokenService(accessSecret, refreshSecret string, accessMinutes, userRefreshMinutes, adminRefreshMinutes int) *TokenService {
	return &TokenService{
		AccessTokenSecret:  accessSecret,
		RefreshTokenSecret: refreshSecret,
		AccessTokenExpiry:  time.Duration(accessMinutes) * time.Minute,
		RefreshTokenExpiry: map[string]time.Duration{
			constant.RoleUser:  time.Duration(userRefreshMinutes) * time.Minute,
			constant.RoleAdmin: time.Duration(adminRefreshMinutes) * time.Minute,
		},
		now: time.Now,
	}
}

func (ts *TokenService) Generate(userID, role string) (*TokenPair, error) {
	now := ts.now()
	accessTTL := ts.AccessTokenExpiry
	refreshTTL := ts.GetRefreshTokenExpiry(role)

	accessClaims := JWTCustomClaims{
		Role: role,
		Type: constant.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        randomHex(8),
		},
	}

	refreshClaims := JWTCustomClaims{
		Type: constant.TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			// jti keeps pairs issued within the same second distinct.
			ID: randomHex(8),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(ts.AccessTokenSecret))
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
		refreshClaims).SignedString([]byte(ts.RefreshTokenSecret))
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresIn:  accessTTL,
		RefreshExpiresIn: refreshTTL,
	}, nil
}

func (ts *TokenService) GetAccessTokenExpiry() time.Duration {
	return ts.AccessTokenExpiry
}

// GetRefreshTokenExpiry falls back to the user lifetime for unknown roles.
func (ts *TokenService) GetRefreshTokenExpiry(role string) time.Duration {
	if ttl, ok := ts.RefreshTokenExpiry[role]; ok {
		return ttl
	}
	return ts.RefreshTokenExpiry[constant.RoleUser]
}

// VerifyAccessToken parses and validates the given access token string.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*JWTCustomClaims, error) {
	return ts.verify(tokenString, ts.AccessTokenSecret, constant.TokenTypeAccess)
}

// VerifyRefreshToken parses and validates the given refresh token string.
func (ts *TokenService) VerifyRefreshToken(tokenString string) (*JWTCustomClaims, error) {
	return ts.verify(tokenString, ts.RefreshTokenSecret, constant.TokenTypeRefresh)
}

func (ts *TokenService) verify(tokenString, secret, tokenType string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(ts.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, autherror.ErrTokenExpired
		}
		return nil, autherror.ErrTokenInvalid
	}

	if !token.Valid || claims.Subject == "" {
		return nil, autherror.ErrTokenInvalid
	}

	if claims.Type != tokenType {
		return nil, autherror.ErrTokenTypeMismatch
	}

	return claims, nil
}

// HashToken returns the sha256 hex digest stored in place of a raw token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// NewOpaqueToken returns a random 32-byte hex token and its hash.
func NewOpaqueToken() (raw, hashed string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	raw = hex.EncodeToString(b)
	return raw, HashToken(raw), nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
