package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/codax69/sever-main-sub001/config"
	"github.com/codax69/sever-main-sub001/internal/auth/domain"
	"github.com/codax69/sever-main-sub001/internal/auth/dto"
	autherror "github.com/codax69/sever-main-sub001/internal/errors"
	"github.com/codax69/sever-main-sub001/internal/metrics"
	"github.com/codax69/sever-main-sub001/pkg/constant"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenLifetime     = 24 * time.Hour
	backgroundTimeout = 30 * time.Second
)

var (
	errMailerNotConfigured = errors.New("mailer not configured")
	errPasswordTooLong     = autherror.ErrBadRequest.WithMessage(
		fmt.Sprintf("password must be at most %d bytes", constant.MaxPasswordBytes))
)

type UserService struct {
	repo     domain.UserRepository
	tokens   TokenGenerator
	cfg      *config.Config
	mailer   Mailer
	identity IdentityVerifier
	limiter  LoginLimiter
	logger   *zap.Logger
	now      func() time.Time

	background sync.WaitGroup
}

type Option func(*UserService)

func WithMailer(m Mailer) Option {
	return func(s *UserService) { s.mailer = m }
}

func WithIdentityVerifier(v IdentityVerifier) Option {
	return func(s *UserService) { s.identity = v }
}

func WithLoginLimiter(l LoginLimiter) Option {
	return func(s *UserService) { s.limiter = l }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *UserService) { s.logger = l }
}

func NewUserService(repo domain.UserRepository, tokens TokenGenerator, cfg *config.Config, opts ...Option) *UserService {
	s := &UserService{
		repo:   repo,
		tokens: tokens,
		cfg:    cfg,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthResult is the outcome of every flow that starts a session.
type AuthResult struct {
	User   *domain.User
	Tokens *TokenPair
}

// Wait blocks until background work (welcome emails) has finished.
func (s *UserService) Wait() {
	s.background.Wait()
}

func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (res *AuthResult, err error) {
	defer func() { metrics.RecordAuthEvent(metrics.EventRegister, err) }()

	if err := dto.Validate(input); err != nil {
		return nil, err
	}

	if err := checkPasswordLength(constant.RoleUser, input.Password); err != nil {
		return nil, err
	}

	email := normalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)

	var phone string
	if strings.TrimSpace(input.Phone) != "" {
		p, ok := normalizePhone(input.Phone)
		if !ok {
			return nil, autherror.ErrInvalidPhone
		}
		phone = p
	}

	if err := s.ensureAvailable(ctx, email, username); err != nil {
		return nil, err
	}
	if phone != "" {
		existing, err := s.repo.GetByPhoneAndRole(ctx, phone, constant.RoleUser)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, autherror.ErrPhoneTaken
		}
	}

	hashedPassword, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		Phone:        phone,
		PasswordHash: hashedPassword,
		Role:         constant.RoleUser,
		IsActive:     true,
		IsApproved:   true,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	pair, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	fp := pair.Fingerprint()
	user.AccessTokenHash = fp.AccessTokenHash
	user.RefreshTokenHash = fp.RefreshTokenHash
	user.IsLoggedIn = true

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	to, name := user.Email, user.Username
	s.runBackground("welcome", func(ctx context.Context) error {
		if s.mailer == nil {
			return errMailerNotConfigured
		}
		return s.mailer.SendWelcome(ctx, to, name)
	})

	return &AuthResult{User: user, Tokens: pair}, nil
}

func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (res *AuthResult, err error) {
	defer func() { metrics.RecordAuthEvent(metrics.EventLogin, err) }()

	if err := dto.Validate(input); err != nil {
		return nil, err
	}

	kind, value, err := classifyIdentifier(input.Identifier)
	if err != nil {
		return nil, err
	}

	key := throttleKey(value, input.IPAddress)
	if err := s.checkThrottle(ctx, key); err != nil {
		return nil, err
	}

	var user *domain.User
	if kind == identifierEmail {
		user, err = s.repo.GetByEmailAndRole(ctx, value, constant.RoleUser)
	} else {
		user, err = s.repo.GetByPhoneAndRole(ctx, value, constant.RoleUser)
	}
	if err != nil {
		return nil, err
	}

	if user == nil {
		s.recordFailure(ctx, key)
		return nil, autherror.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, autherror.ErrAccountInactive
	}
	if !checkPassword(user.PasswordHash, input.Password) {
		s.recordFailure(ctx, key)
		return nil, autherror.ErrInvalidCredentials
	}

	return s.startSession(ctx, user, key)
}

func (s *UserService) AdminLogin(ctx context.Context, input dto.AdminLoginInput) (res *AuthResult, err error) {
	defer func() { metrics.RecordAuthEvent(metrics.EventAdminLogin, err) }()

	if err := dto.Validate(input); err != nil {
		return nil, err
	}

	email := normalizeEmail(input.Email)
	key := throttleKey(email, input.IPAddress)
	if err := s.checkThrottle(ctx, key); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmailAndRole(ctx, email, constant.RoleAdmin)
	if err != nil {
		return nil, err
	}

	if user == nil {
		s.recordFailure(ctx, key)
		return nil, autherror.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, autherror.ErrAccountInactive
	}
	if !checkPassword(user.PasswordHash, input.Password) {
		s.recordFailure(ctx, key)
		return nil, autherror.ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, autherror.ErrEmailNotVerified
	}

	return s.startSession(ctx, user, key)
}

// Refresh rotates the session: the presented refresh token must match the
// stored fingerprint, and a new pair overwrites it.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (res *AuthResult, err error) {
	defer func() { metrics.RecordAuthEvent(metrics.EventRefresh, err) }()

	if refreshToken == "" {
		return nil, autherror.ErrRefreshTokenMissing
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, autherror.ErrTokenExpired) {
			return nil, autherror.ErrRefreshTokenExpired
		}
		return nil, autherror.ErrRefreshTokenInvalid
	}

	user, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsLoggedIn || !hashMatches(user.RefreshTokenHash, refreshToken) {
		return nil, autherror.ErrRefreshTokenInvalid
	}
	if !user.IsActive {
		return nil, autherror.ErrAccountInactive
	}

	pair, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	fp := pair.Fingerprint()
	if err := s.repo.SaveSession(ctx, user.ID, fp); err != nil {
		return nil, err
	}
	user.AccessTokenHash = fp.AccessTokenHash
	user.RefreshTokenHash = fp.RefreshTokenHash

	return &AuthResult{User: user, Tokens: pair}, nil
}

func (s *UserService) Logout(ctx context.Context, userID string) (err error) {
	defer func() { metrics.RecordAuthEvent(metrics.EventLogout, err) }()

	return s.repo.ClearSession(ctx, userID)
}

// ResolveSession authenticates an access token: signature, expiry and type,
// then the stored fingerprint, login flag, active flag and approval.
func (s *UserService) ResolveSession(ctx context.Context, accessToken string) (*dto.AuthUser, error) {
	if accessToken == "" {
		return nil, autherror.ErrUnauthenticated
	}

	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsLoggedIn || !hashMatches(user.AccessTokenHash, accessToken) {
		return nil, autherror.ErrSessionRevoked
	}
	if !user.IsActive {
		return nil, autherror.ErrAccountInactive
	}
	if s.cfg.RequiresApproval(user.Role) && !user.IsApproved {
		return nil, autherror.ErrPendingApproval
	}

	return &dto.AuthUser{
		ID:         user.ID,
		Email:      user.Email,
		Username:   user.Username,
		Role:       user.Role,
		IsApproved: user.IsApproved,
		IsActive:   user.IsActive,
	}, nil
}

func (s *UserService) startSession(ctx context.Context, user *domain.User, throttle string) (*AuthResult, error) {
	pair, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	now := s.now()
	fp := pair.Fingerprint()
	if err := s.repo.RecordLogin(ctx, user.ID, fp, now); err != nil {
		return nil, err
	}

	user.AccessTokenHash = fp.AccessTokenHash
	user.RefreshTokenHash = fp.RefreshTokenHash
	user.IsLoggedIn = true
	user.LoginCount++
	user.LastLogin = &now

	if throttle != "" && s.limiter != nil {
		if err := s.limiter.Reset(ctx, throttle); err != nil {
			s.logger.Warn("failed to reset login attempts", zap.String("key", throttle), zap.Error(err))
		}
	}

	return &AuthResult{User: user, Tokens: pair}, nil
}

func (s *UserService) ensureAvailable(ctx context.Context, email, username string) error {
	existingUser, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existingUser != nil {
		return autherror.ErrUserAlreadyExists
	}

	taken, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if taken != nil {
		return autherror.ErrUsernameTaken
	}
	return nil
}

func (s *UserService) checkThrottle(ctx context.Context, key string) error {
	if s.limiter == nil || s.cfg.LoginMaxAttempts <= 0 {
		return nil
	}
	failures, err := s.limiter.Failures(ctx, key)
	if err != nil {
		// Fail open when the limiter is unreachable.
		s.logger.Warn("login limiter unavailable", zap.Error(err))
		return nil
	}
	if failures >= s.cfg.LoginMaxAttempts {
		return autherror.ErrTooManyLoginAttempts
	}
	return nil
}

func (s *UserService) recordFailure(ctx context.Context, key string) {
	if s.limiter == nil || s.cfg.LoginMaxAttempts <= 0 {
		return
	}
	window := time.Duration(s.cfg.LoginWindowMinutes) * time.Minute
	if _, err := s.limiter.RecordFailure(ctx, key, window); err != nil {
		s.logger.Warn("failed to record login attempt", zap.Error(err))
	}
}

func (s *UserService) runBackground(kind string, fn func(ctx context.Context) error) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()

		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			metrics.RecordEmailFailure(kind)
			s.logger.Warn("background email failed", zap.String("kind", kind), zap.Error(err))
		}
	}()
}

func (s *UserService) hashPassword(password string) (string, error) {
	cost := s.cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", errPasswordTooLong
	}
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func checkPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func hashMatches(stored, token string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(HashToken(token))) == 1
}

func throttleKey(identifier, ip string) string {
	return identifier + "|" + ip
}
