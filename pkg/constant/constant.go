package constant

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	// DefaultTokenType is the scheme expected in the Authorization header.
	DefaultTokenType = "Bearer"
)

const (
	MinUserPasswordLength  = 6
	MinAdminPasswordLength = 8
	MinPhoneDigits         = 10

	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

// LocalsUserKey is the fiber Locals key holding the authenticated identity.
const LocalsUserKey = "authUser"

// MinPasswordLength returns the minimum password length enforced for role.
func MinPasswordLength(role string) int {
	if role == RoleAdmin {
		return MinAdminPasswordLength
	}
	return MinUserPasswordLength
}
