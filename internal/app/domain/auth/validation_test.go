package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

func TestValidateEmail(t *testing.T) {
	for _, ok := range []string{"amel@example.com", "a.b+c@mail.tn"} {
		assert.NoError(t, ValidateEmail(ok), ok)
	}
	for _, bad := range []string{"", "amel", "amel@", "Amel <amel@example.com>", "amel@localhost"} {
		err := ValidateEmail(bad)
		assert.ErrorIs(t, err, models.ErrValidation, bad)
		assert.ErrorIs(t, err, models.ErrInvalidEmail, bad)
	}
}

func TestValidatePassword(t *testing.T) {
	confirm := func(s string) *string { return &s }

	tests := []struct {
		name     string
		password string
		confirm  *string
		want     error
	}{
		{"ok", "secret1", confirm("secret1"), nil},
		{"ok without confirmation", "secret1", nil, nil},
		{"exactly six", "abcdef", nil, nil},
		{"too short", "abc", confirm("abc"), models.ErrWeakPassword},
		{"mismatch wins over length", "abc", confirm("abd"), models.ErrPasswordMismatch},
		{"mismatch", "secret1", confirm("secret2"), models.ErrPasswordMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, tt.confirm)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)

			var verr *models.ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestValidateDisplayName(t *testing.T) {
	for _, ok := range []string{"Amel", "Yassine B.", "émilie_88", "محمد", "jo"} {
		assert.NoError(t, ValidateDisplayName(ok), ok)
	}
	for _, bad := range []string{"", "a", "<script>", "name!", "this-display-name-is-way-too-long-to-be-accepted"} {
		assert.ErrorIs(t, ValidateDisplayName(bad), models.ErrInvalidDisplayName, bad)
	}
}
