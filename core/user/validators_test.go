package user_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmlibermann/website/core/user"
	"github.com/fmlibermann/website/tests"
)

func TestPasswordPolicyViolation(t *testing.T) {
	tests := []struct {
		name  string
		pwd   string
		uname string
		want  string
	}{
		{"valid", "s3cure-Passw0rd", "admin", ""},
		{"too short", "s3cure", "admin", "pwdminlen"},
		{"runes not bytes", "pässwörd", "", ""},
		{"whitespace", "s3cure Passw0rd", "admin", "pwdnospace"},
		{"all numeric", "1234567890", "admin", "pwdnotallnum"},
		{"similar to username", "Mwalimu2024", "mwalimu", "pwdtoosim"},
		{"no username", "mwalimu2024", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, user.PasswordPolicyViolation(tt.pwd, tt.uname))
		})
	}
}

func TestNewUser_Validate(t *testing.T) {
	validate, translator := testutil.Validator()

	tests := []struct {
		name    string
		nu      user.NewUser
		wantErr map[string]string
	}{
		{"valid", user.NewUser{Username: " Admin ", Password: "s3cure-Passw0rd"}, nil},
		{"required", user.NewUser{}, map[string]string{
			"username": "this field is required",
			"password": "this field is required",
		}},
		{"username charset", user.NewUser{Username: "ad-min", Password: "s3cure-Passw0rd"}, map[string]string{
			"username": "only alphanumeric characters and underscores are allowed",
		}},
		{"password policy", user.NewUser{Username: "admin", Password: "12345678"}, map[string]string{
			"password": "password cannot be entirely numeric",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(validate)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, "admin", tt.nu.Username, "cleaned")
				return
			}
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			got := make(map[string]string)
			for _, fe := range vErrs {
				got[fe.Field()] = fe.Translate(translator)
			}
			assert.Equal(t, tt.wantErr, got)
		})
	}
}
