package handler

import (
	"time"

	"github.com/codax69/sever-main-sub001/internal/auth/service"
	"github.com/codax69/sever-main-sub001/pkg/constant"
	"github.com/gofiber/fiber/v2"
)

func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, res *service.AuthResult) {
	role := res.User.Role
	c.Cookie(h.cookie(constant.AccessTokenCookie, res.Tokens.AccessToken, role, res.Tokens.AccessExpiresIn))
	c.Cookie(h.cookie(constant.RefreshTokenCookie, res.Tokens.RefreshToken, role, res.Tokens.RefreshExpiresIn))
}

func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx, role string) {
	for _, name := range []string{constant.AccessTokenCookie, constant.RefreshTokenCookie} {
		cookie := h.cookie(name, "", role, 0)
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		c.Cookie(cookie)
	}
}

// cookie builds an HTTP-only cookie. Production cookies are Secure with
// SameSite=None and scoped to the role's domain.
func (h *AuthHandler) cookie(name, value, role string, ttl time.Duration) *fiber.Cookie {
	sameSite := fiber.CookieSameSiteLaxMode
	if h.cfg.IsProduction() {
		sameSite = fiber.CookieSameSiteNoneMode
	}

	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cfg.CookieDomain(role),
		MaxAge:   int(ttl.Seconds()),
		HTTPOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: sameSite,
	}
}
