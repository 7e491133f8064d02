package service

import (
	"strings"

	autherror "github.com/codax69/sever-main-sub001/internal/errors"
	"github.com/codax69/sever-main-sub001/pkg/constant"
)

const (
	identifierEmail = "email"
	identifierPhone = "phone"
)

// classifyIdentifier decides whether a login identifier is an email or a
// phone number and returns its normalized form.
func classifyIdentifier(raw string) (kind, value string, err error) {
	id := strings.TrimSpace(raw)
	if strings.Contains(id, "@") {
		return identifierEmail, normalizeEmail(id), nil
	}
	phone, ok := normalizePhone(id)
	if !ok {
		return "", "", autherror.ErrInvalidIdentifier
	}
	return identifierPhone, phone, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizePhone keeps digits only and reduces longer numbers (country code
// prefixes) to their last MinPhoneDigits digits.
func normalizePhone(raw string) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if len(digits) < constant.MinPhoneDigits {
		return "", false
	}
	return digits[len(digits)-constant.MinPhoneDigits:], true
}

// usernameBase derives a username candidate from a display name or email.
func usernameBase(name, email string) string {
	source := name
	if strings.TrimSpace(source) == "" {
		source = strings.SplitN(email, "@", 2)[0]
	}

	var b strings.Builder
	for _, r := range strings.ToLower(source) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteRune('_')
		}
	}

	base := strings.Trim(b.String(), "_.")
	if len(base) > 24 {
		base = base[:24]
	}
	if len(base) < 3 {
		base = "user" + base
	}
	return base
}
