package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/codax69/sever-main-sub001/internal/auth/domain"
	"github.com/codax69/sever-main-sub001/internal/auth/dto"
	autherror "github.com/codax69/sever-main-sub001/internal/errors"
	"github.com/codax69/sever-main-sub001/internal/metrics"
	"github.com/codax69/sever-main-sub001/pkg/constant"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxUsernameAttempts = 5

// AdminRegistration reports the created admin and whether the verification
// email went out.
type AdminRegistration struct {
	User      *domain.User
	EmailSent bool
}

// AdminRegister creates an unverified admin and mails a verification link.
// The account survives a failed send; EmailSent reports the outcome.
func (s *UserService) AdminRegister(ctx context.Context, input dto.AdminRegisterInput) (res *AdminRegistration, err error) {
	defer func() { metrics.RecordAuthEvent(metrics.EventAdminRegister, err) }()

	if err := dto.Validate(input); err != nil {
		return nil, err
	}

	if err := checkPasswordLength(constant.RoleAdmin, input.Password); err != nil {
		return nil, err
	}

	email := normalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)
	if err := s.ensureAvailable(ctx, email, username); err != nil {
		return nil, err
	}

	admins, err := s.repo.CountByRole(ctx, constant.RoleAdmin)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	rawToken, tokenHash, err := NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	expires := now.Add(tokenLifetime)
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         constant.RoleAdmin,
		IsActive:     true,
		// The first admin bootstraps the console and cannot wait for approval.
		IsApproved:               admins == 0 || !s.cfg.RequiresApproval(constant.RoleAdmin),
		IsVerified:               false,
		VerificationTokenHash:    tokenHash,
		VerificationTokenExpires: &expires,
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	verifyURL := fmt.Sprintf("%s/verify-email/%s", s.cfg.ClientURL(constant.RoleAdmin), rawToken)
	if err := s.sendVerification(ctx, user, verifyURL); err != nil {
		metrics.RecordEmailFailure("verification")
		s.logger.Error("failed to send verification email", zap.String("user_id", user.ID), zap.Error(err))
		return &AdminRegistration{User: user, EmailSent: false}, nil
	}

	return &AdminRegistration{User: user, EmailSent: true}, nil
}

// GoogleLogin signs a user in with a Google ID token, linking an existing
// account by provider id or email, or creating a verified one.
func (s *UserService) GoogleLogin(ctx context.Context, input dto.GoogleLoginInput) (res *AuthResult, err error) {
	defer func() { metrics.RecordAuthEvent(metrics.EventGoogleLogin, err) }()

	if err := dto.Validate(input); err != nil {
		return nil, err
	}
	if s.identity == nil {
		return nil, autherror.ErrFederatedUnavailable
	}

	identity, err := s.identity.Verify(ctx, input.IDToken)
	if err != nil {
		return nil, autherror.ErrIdentityInvalid.WithCause(err)
	}
	if identity.Subject == "" || identity.Email == "" {
		return nil, autherror.ErrIdentityInvalid
	}
	email := normalizeEmail(identity.Email)

	user, err := s.repo.GetByGoogleID(ctx, identity.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		if user, err = s.repo.GetByEmail(ctx, email); err != nil {
			return nil, err
		}
	}

	if user != nil {
		if user.Role != constant.RoleUser {
			return nil, autherror.ErrFederatedAdminDenied
		}
		if !user.IsActive {
			return nil, autherror.ErrAccountInactive
		}
		if user.GoogleID != identity.Subject || !user.IsVerified {
			if err := s.repo.LinkGoogleAccount(ctx, user.ID, identity.Subject, identity.Picture); err != nil {
				return nil, err
			}
			user.GoogleID = identity.Subject
			user.Picture = identity.Picture
			user.IsVerified = true
		}
	} else {
		username, err := s.uniqueUsername(ctx, usernameBase(identity.Name, email))
		if err != nil {
			return nil, err
		}

		now := s.now()
		user = &domain.User{
			ID:         uuid.New().String(),
			Username:   username,
			Email:      email,
			Role:       constant.RoleUser,
			IsActive:   true,
			IsApproved: true,
			IsVerified: true,
			GoogleID:   identity.Subject,
			Picture:    identity.Picture,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return nil, err
		}
	}

	return s.startSession(ctx, user, "")
}

// ForgotPassword mails a reset link when the email belongs to an account. It
// returns nil for unknown emails so callers cannot probe for accounts.
func (s *UserService) ForgotPassword(ctx context.Context, input dto.ForgotPasswordInput) error {
	if err := dto.Validate(input); err != nil {
		return err
	}

	user, err := s.repo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	rawToken, tokenHash, err := NewOpaqueToken()
	if err != nil {
		return err
	}
	if err := s.repo.SetResetToken(ctx, user.ID, tokenHash, s.now().Add(tokenLifetime)); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", s.cfg.ClientURL(user.Role), rawToken)
	if err := s.sendPasswordReset(ctx, user, resetURL); err != nil {
		metrics.RecordEmailFailure("password_reset")
		if clearErr := s.repo.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logger.Error("failed to roll back reset token", zap.String("user_id", user.ID), zap.Error(clearErr))
		}
		return autherror.ErrEmailSendFailed.WithCause(err)
	}

	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, input dto.ResetPasswordInput) (err error) {
	defer func() { metrics.RecordAuthEvent(metrics.EventPasswordReset, err) }()

	if err := dto.Validate(input); err != nil {
		return err
	}

	tokenHash := HashToken(input.Token)
	now := s.now()
	user, err := s.repo.GetByResetToken(ctx, tokenHash, now)
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrInvalidOrExpiredToken
	}
	if err := checkPasswordLength(user.Role, input.Password); err != nil {
		return err
	}

	hashedPassword, err := s.hashPassword(input.Password)
	if err != nil {
		return err
	}
	// The write re-checks the token, so only one concurrent reset wins.
	return s.repo.ConsumeResetToken(ctx, user.ID, tokenHash, hashedPassword, now)
}

func (s *UserService) VerifyEmail(ctx context.Context, input dto.VerifyEmailInput) (err error) {
	defer func() { metrics.RecordAuthEvent(metrics.EventVerifyEmail, err) }()

	if err := dto.Validate(input); err != nil {
		return err
	}

	user, err := s.repo.GetByVerificationToken(ctx, HashToken(input.Token), constant.RoleAdmin, s.now())
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrInvalidOrExpiredToken
	}
	return s.repo.MarkVerified(ctx, user.ID)
}

// ResendVerification mails a fresh verification link to an unverified admin.
// Unknown and already verified emails get the same nil result.
func (s *UserService) ResendVerification(ctx context.Context, input dto.ResendVerificationInput) error {
	if err := dto.Validate(input); err != nil {
		return err
	}

	user, err := s.repo.GetByEmailAndRole(ctx, normalizeEmail(input.Email), constant.RoleAdmin)
	if err != nil {
		return err
	}
	if user == nil || user.IsVerified {
		return nil
	}

	rawToken, tokenHash, err := NewOpaqueToken()
	if err != nil {
		return err
	}
	if err := s.repo.SetVerificationToken(ctx, user.ID, tokenHash, s.now().Add(tokenLifetime)); err != nil {
		return err
	}

	verifyURL := fmt.Sprintf("%s/verify-email/%s", s.cfg.ClientURL(constant.RoleAdmin), rawToken)
	if err := s.sendVerification(ctx, user, verifyURL); err != nil {
		metrics.RecordEmailFailure("verification")
		return autherror.ErrVerificationSendFailed.WithCause(err)
	}
	return nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID string, input dto.ChangePasswordInput) error {
	if err := dto.Validate(input); err != nil {
		return err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrUserNotFound
	}
	if err := checkPasswordLength(user.Role, input.NewPassword); err != nil {
		return err
	}
	if !checkPassword(user.PasswordHash, input.CurrentPassword) {
		return autherror.ErrWrongPassword
	}
	if input.CurrentPassword == input.NewPassword {
		return autherror.ErrPasswordUnchanged
	}

	hashedPassword, err := s.hashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.ID, hashedPassword)
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, input dto.UpdateProfileInput) (*domain.User, error) {
	if err := dto.Validate(input); err != nil {
		return nil, err
	}
	if input.Username == nil && input.Phone == nil {
		return nil, autherror.ErrNothingToUpdate
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var update domain.ProfileUpdate
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username != user.Username {
			other, err := s.repo.GetByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != user.ID {
				return nil, autherror.ErrUsernameTaken
			}
		}
		update.Username = &username
	}

	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone != "" {
			normalized, ok := normalizePhone(phone)
			if !ok {
				return nil, autherror.ErrInvalidPhone
			}
			phone = normalized
			other, err := s.repo.GetByPhoneAndRole(ctx, phone, user.Role)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != user.ID {
				return nil, autherror.ErrPhoneTaken
			}
		}
		update.Phone = &phone
	}

	return s.repo.UpdateProfile(ctx, user.ID, update)
}

func (s *UserService) uniqueUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 0; i < maxUsernameAttempts; i++ {
		existing, err := s.repo.GetByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
		candidate = base + "_" + randomHex(2)
	}
	return base + "_" + randomHex(4), nil
}

func (s *UserService) sendVerification(ctx context.Context, user *domain.User, verifyURL string) error {
	if s.mailer == nil {
		return errMailerNotConfigured
	}
	return s.mailer.SendVerification(ctx, user.Email, user.Username, verifyURL)
}

func (s *UserService) sendPasswordReset(ctx context.Context, user *domain.User, resetURL string) error {
	if s.mailer == nil {
		return errMailerNotConfigured
	}
	return s.mailer.SendPasswordReset(ctx, user.Email, user.Username, resetURL)
}

// checkPasswordLength enforces the per-role minimum and the bcrypt limit,
// which counts bytes rather than characters.
func checkPasswordLength(role, password string) error {
	if n := constant.MinPasswordLength(role); len(password) < n {
		return autherror.ErrBadRequest.WithMessage(fmt.Sprintf("password must be at least %d characters", n))
	}
	if len(password) > constant.MaxPasswordBytes {
		return errPasswordTooLong
	}
	return nil
}
