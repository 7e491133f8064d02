package handler

import (
	"github.com/codax69/sever-main-sub001/config"
	"github.com/codax69/sever-main-sub001/internal/auth/dto"
	"github.com/codax69/sever-main-sub001/internal/auth/service"
	autherror "github.com/codax69/sever-main-sub001/internal/errors"
	"github.com/codax69/sever-main-sub001/pkg/constant"
	"github.com/codax69/sever-main-sub001/pkg/response"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	forgotPasswordMessage     = "If an account exists for that email, a password reset link has been sent."
	resendVerificationMessage = "If an unverified account exists for that email, a verification link has been sent."
)

type AuthHandler struct {
	userService *service.UserService
	cfg         *config.Config
	logger      *zap.Logger
}

func NewAuthHandler(userService *service.UserService, cfg *config.Config, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{userService: userService, cfg: cfg, logger: logger}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return h.writeError(c, autherror.ErrBadRequest)
	}

	res, err := h.userService.Register(c.UserContext(), input)
	if err != nil {
		return h.writeError(c, err)
	}

	h.setAuthCookies(c, res)
	return response.Created(c, h.authOutput(res), "User registered successfully")
}

func (h *AuthHandler) AdminRegister(c *fiber.Ctx) error {
	var input dto.AdminRegisterInput
	if err := c.BodyParser(&input); err != nil {
		return h.writeError(c, autherror.ErrBadRequest)
	}

	res, err := h.userService.AdminRegister(c.UserContext(), input)
	if err != nil {
		return h.writeError(c, err)
	}

	message := "Admin registered. Please check your email to verify your account."
	if !res.EmailSent {
		message = "Admin registered, but the verification email could not be sent. Please contact support."
	}
	return response.Created(c, dto.AdminRegisterOutput{
		User:      dto.NewUserOutput(res.User),
		EmailSent: res.EmailSent,
	}, message)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return h.writeError(c, autherror.ErrBadRequest)
	}
	input.IPAddress = c.IP()

	res, err := h.userService.Login(c.UserContext(), input)
	if err != nil {
		return h.writeError(c, err)
	}

	h.setAuthCookies(c, res)
	return response.OK(c, h.authOutput(res), "Login successful")
}

func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var input dto.AdminLoginInput
	if err := c.BodyParser(&input); err != nil {
		return h.writeError(c, autherror.ErrBadRequest)
	}
	input.IPAddress = c.IP()

	res, err := h.userService.AdminLogin(c.UserContext(), input)
	if err != nil {
		return h.writeError(c, err)
	}

	h.setAuthCookies(c, res)
	return response.OK(c, h.authOutput(res), "Admin login successful")
}

func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	var input dto.GoogleLoginInput
	if err := c.BodyParser(&input); err != nil {
		return h.writeError(c, autherror.ErrBadRequest)
	}

	res, err := h.userService.GoogleLogin(c.UserContext(), input)
	if err != nil {
		return h.writeError(c, err)
	}

	h.setAuthCookies(c, res)
	return response.OK(c, h.authOutput(res), "Login successful")
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	res, err := h.userService.Refresh(c.UserContext(), c.Cookies(constant.RefreshTokenCookie))
	if err != nil {
		return h.writeError(c, err)
	}

	h.setAuthCookies(c, res)
	return response.OK(c, h.authOutput(res), "Token refreshed")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil {
		return h.writeError(c, autherror.ErrUnauthenticated)
	}

	if err := h.userService.Logout(c.UserContext(), user.ID); err != nil {
		return h.writeError(c, err)
	}

	h.clearAuthCookies(c, user.Role)
	return response.OK(c, nil, "Logged out successfully")
}

// ForgotPassword answers identically whether or not the email is registered.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var input dto.ForgotPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return h.writeError(c, autherror.ErrBadRequest)
	}

	if err := h.userService.ForgotPassword(c.UserContext(), input); err != nil {
		return h.writeError(c, err)
	}
	return response.OK(c, nil, forgotPasswordMessage)
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var input dto.ResetPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return h.writeError(c, autherror.ErrBadRequest)
	}

	if err := h.userService.ResetPassword(c.UserContext(), input); err != nil {
		return h.writeError(c, err)
	}
	return response.OK(c, nil, "Password has been reset successfully")
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var input dto.VerifyEmailInput
	if err := c.BodyParser(&input); err != nil {
		return h.writeError(c, autherror.ErrBadRequest)
	}

	if err := h.userService.VerifyEmail(c.UserContext(), input); err != nil {
		return h.writeError(c, err)
	}
	return response.OK(c, nil, "Email verified successfully")
}

func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	var input dto.ResendVerificationInput
	if err := c.BodyParser(&input); err != nil {
		return h.writeError(c, autherror.ErrBadRequest)
	}

	if err := h.userService.ResendVerification(c.UserContext(), input); err != nil {
		return h.writeError(c, err)
	}
	return response.OK(c, nil, resendVerificationMessage)
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil {
		return h.writeError(c, autherror.ErrUnauthenticated)
	}

	var input dto.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return h.writeError(c, autherror.ErrBadRequest)
	}

	if err := h.userService.ChangePassword(c.UserContext(), user.ID, input); err != nil {
		return h.writeError(c, err)
	}
	return response.OK(c, nil, "Password changed successfully")
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil {
		return h.writeError(c, autherror.ErrUnauthenticated)
	}

	profile, err := h.userService.GetProfile(c.UserContext(), user.ID)
	if err != nil {
		return h.writeError(c, err)
	}
	return response.OK(c, dto.NewUserOutput(profile), "User fetched successfully")
}

func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil {
		return h.writeError(c, autherror.ErrUnauthenticated)
	}

	var input dto.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return h.writeError(c, autherror.ErrBadRequest)
	}

	profile, err := h.userService.UpdateProfile(c.UserContext(), user.ID, input)
	if err != nil {
		return h.writeError(c, err)
	}
	return response.OK(c, dto.NewUserOutput(profile), "Profile updated successfully")
}

// Session reports whether the caller is signed in. It runs behind OptionalAuth.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	user := CurrentUser(c)
	return response.OK(c, dto.SessionOutput{Authenticated: user != nil, User: user}, "")
}

func (h *AuthHandler) authOutput(res *service.AuthResult) dto.AuthOutput {
	return dto.AuthOutput{
		User:        dto.NewUserOutput(res.User),
		AccessToken: res.Tokens.AccessToken,
		TokenType:   constant.DefaultTokenType,
		ExpiresIn:   int(res.Tokens.AccessExpiresIn.Seconds()),
	}
}
