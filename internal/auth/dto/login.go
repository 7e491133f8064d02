package dto

// LoginInput accepts either an email address or a phone number in Identifier.
type LoginInput struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
	IPAddress  string `json:"-"`
}

type AdminLoginInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"`
}

type GoogleLoginInput struct {
	IDToken string `json:"idToken" validate:"required"`
}

type AuthOutput struct {
	User        UserOutput `json:"user"`
	AccessToken string     `json:"accessToken"`
	TokenType   string     `json:"tokenType"`
	ExpiresIn   int        `json:"expiresIn"`
}
