package user

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mygithubaccountn/EduPacee/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestCheckPassword(t *testing.T) {
	LoadCommonPasswords(fstest.MapFS{
		"common.txt": {Data: []byte("Password1!\nqwerty123\n")},
	}, "common.txt", nopLogger{})

	tests := []struct {
		name    string
		pwd     string
		uname   string
		email   string
		wantTag string
	}{
		{name: "too short", pwd: "Ab1!", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 123!", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "no special", pwd: "Abcdefg12", wantTag: pwdComplexityTag},
		{name: "no upper", pwd: "abcdefg1!", wantTag: pwdComplexityTag},
		{name: "similar to username", pwd: "Jdoe1234!", uname: "jdoe1234", wantTag: pwdAttrSimTag},
		{name: "common (case insensitive)", pwd: "pASSWORD1!", wantTag: pwdNoCommonTag},
		{name: "valid", pwd: "Tr0ub4dor&3x", uname: "jdoe", email: "jdoe@uni.test"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.pwd, "", tt.uname, tt.email); got != tt.wantTag {
				t.Errorf("CheckPassword() = %q, want %q", got, tt.wantTag)
			}
		})
	}
}

func TestResetUserPassword_Validate(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	err := ResetUserPassword{Token: "t", UID: "u", Password: "short", PasswordConfirm: "short"}.Validate(validate)
	require.Error(t, err)
	vErrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)
	require.Len(t, vErrs, 1)
	assert.Equal(t, "password", vErrs[0].Field())
	assert.True(t, strings.HasPrefix(vErrs[0].Translate(translator), "password must contain at least"))

	err = ResetUserPassword{Token: "t", UID: "u", Password: "Tr0ub4dor&3x", PasswordConfirm: "Tr0ub4dor&3x"}.Validate(validate)
	assert.NoError(t, err)
}
