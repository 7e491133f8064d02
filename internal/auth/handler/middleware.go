package handler

import (
	"strings"

	"github.com/codax69/sever-main-sub001/internal/auth/dto"
	autherror "github.com/codax69/sever-main-sub001/internal/errors"
	"github.com/codax69/sever-main-sub001/pkg/constant"
	"github.com/gofiber/fiber/v2"
)

// Authenticate rejects the request unless it carries a live access token.
// Expired tokens get their own message so clients know to call /refresh.
func (h *AuthHandler) Authenticate(c *fiber.Ctx) error {
	user, err := h.userService.ResolveSession(c.UserContext(), accessTokenFrom(c))
	if err != nil {
		return h.writeError(c, err)
	}

	c.Locals(constant.LocalsUserKey, user)
	return c.Next()
}

// OptionalAuth attaches the identity when the token checks out and otherwise
// continues anonymously.
func (h *AuthHandler) OptionalAuth(c *fiber.Ctx) error {
	if token := accessTokenFrom(c); token != "" {
		if user, err := h.userService.ResolveSession(c.UserContext(), token); err == nil {
			c.Locals(constant.LocalsUserKey, user)
		}
	}
	return c.Next()
}

// RequireRole allows the request only when the authenticated role is one of roles.
func (h *AuthHandler) RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return h.writeError(c, autherror.ErrUnauthenticated)
		}
		if _, ok := allowed[user.Role]; !ok {
			return h.writeError(c, autherror.ErrForbidden)
		}
		return c.Next()
	}
}

// CurrentUser returns the identity attached by Authenticate or OptionalAuth.
func CurrentUser(c *fiber.Ctx) *dto.AuthUser {
	user, _ := c.Locals(constant.LocalsUserKey).(*dto.AuthUser)
	return user
}

// accessTokenFrom reads the access token cookie, falling back to the
// Authorization header.
func accessTokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies(constant.AccessTokenCookie); token != "" {
		return token
	}

	scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, constant.DefaultTokenType) {
		return ""
	}
	return strings.TrimSpace(token)
}
