package auth

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

const minPasswordLength = 6

var displayNamePattern = regexp.MustCompile(`^[\p{L}0-9 _.-]{2,40}$`)

// ValidateEmail accepts a bare address ("user@example.com").
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return models.NewValidationError("email", models.ErrInvalidEmail)
	}
	return nil
}

// ValidatePassword checks length and, when confirm is non-nil, that both entries match.
func ValidatePassword(password string, confirm *string) error {
	if confirm != nil && password != *confirm {
		return models.NewValidationError("confirm_password", models.ErrPasswordMismatch)
	}
	if len([]rune(password)) < minPasswordLength {
		return models.NewValidationError("password", models.ErrWeakPassword)
	}
	return nil
}

func ValidateDisplayName(name string) error {
	if !displayNamePattern.MatchString(name) {
		return models.NewValidationError("display_name", models.ErrInvalidDisplayName)
	}
	return nil
}
