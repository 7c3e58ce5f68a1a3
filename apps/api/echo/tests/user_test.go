package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/mygithubaccountn/EduPacee/apps/api/echo"
	"github.com/mygithubaccountn/EduPacee/core/academic"
	"github.com/mygithubaccountn/EduPacee/core/user"
	testutil "github.com/mygithubaccountn/EduPacee/tests"
)

func parseClaims(t *testing.T, secret, token string) *Claims {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) { return []byte(secret), nil })
	require.NoError(t, err)
	return claims
}

func Test_userApi_login(t *testing.T) {
	env := setup(t)
	c := newCampus(t, env)
	testutil.CreateUser(t, env.users, "Gone", "gone", "gone@test.edu", testPwd, false)
	testutil.CreateUser(t, env.users, "Nobody", "nobody", "nobody@test.edu", testPwd, true)

	tests := []httpTest{
		{
			name: "empty body", method: http.MethodPost, path: "/v1/users/login", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Username: "ghost", Password: testPwd}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Username: "teacher", Password: "nope"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Username: "gone", Password: testPwd}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	runHTTPTests(t, env.app, tests)

	roles := []struct {
		uname string
		want  academic.Role
	}{
		{"teacher", c.teacherRole},
		{"STUDENT@test.edu", c.studentRole},
		{"board", c.boardRole},
		{"nobody", academic.NoRole()},
	}
	for _, tt := range roles {
		t.Run("role of "+tt.uname, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", marchallObj(t, LoginRequest{Username: tt.uname, Password: testPwd}))
			env.app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var res LoginResponse
			unmarshal(t, rec, &res)
			claims := parseClaims(t, env.conf.SecretKey, res.Token)
			assert.Equal(t, string(tt.want.Kind), claims.RoleKind)
			assert.Equal(t, tt.want.ProfileID, claims.ProfileID)
		})
	}

	usr, err := env.users.GetUser(bgCtx, user.GetFilter{ID: c.teacher.ID})
	require.NoError(t, err)
	assert.True(t, usr.LastLogin.Valid)
}

func Test_userApi_me(t *testing.T) {
	env := setup(t)
	c := newCampus(t, env)

	req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", "")
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)

	req, rec = newAuthRequest(http.MethodGet, "/v1/users/me", c.studentToken)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		User    user.User        `json:"user"`
		Role    academic.Role    `json:"role"`
		Profile academic.Student `json:"profile"`
	}
	unmarshal(t, rec, &res)
	assert.Equal(t, c.student.ID, res.User.ID)
	assert.Equal(t, c.studentRole, res.Role)
	assert.Equal(t, "S001", res.Profile.StudentID)
}

func Test_userApi_refreshToken(t *testing.T) {
	env := setup(t)
	c := newCampus(t, env)

	expired := GetUserClaims(env.conf, c.teacher, c.teacherRole, time.Now().Add(-2*env.conf.Server.JWTRefreshExpirationDelta).Unix())
	expiredToken, err := GenerateToken(env.conf, expired)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/users/token-refresh", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "refresh expired", method: http.MethodPost, path: "/v1/users/token-refresh", token: expiredToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
	}
	runHTTPTests(t, env.app, tests)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", c.teacherToken)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res LoginResponse
	unmarshal(t, rec, &res)
	claims := parseClaims(t, env.conf.SecretKey, res.Token)
	assert.Equal(t, c.teacher.ID, claims.Subject)
	assert.Equal(t, string(academic.RoleTeacher), claims.RoleKind)
}

func Test_userApi_passwordReset(t *testing.T) {
	env := setup(t)
	c := newCampus(t, env)
	success := marchallObj(t, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})

	tests := []httpTest{
		{
			name: "invalid email", method: http.MethodPost, path: "/v1/users/password-reset",
			body: marchallObj(t, PasswordResetRequest{Email: "lol"}), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/users/password-reset",
			body: marchallObj(t, PasswordResetRequest{Email: "ghost@test.edu"}), wantCode: http.StatusOK, wantData: success,
		},
	}
	runHTTPTests(t, env.app, tests)
	assert.Empty(t, env.outbox.Messages())

	req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", marchallObj(t, PasswordResetRequest{Email: "Teacher@test.edu"}))
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: success}, rec)

	sent := env.outbox.Messages()
	require.Len(t, sent, 1)
	data, ok := sent[0].TemplateData.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, sent[0].TextContent, "/password-reset-confirm?uid="+data["UID"])

	confirm := func(token, pwd string) httpTest {
		return httpTest{
			method: http.MethodPost, path: "/v1/users/password-reset-confirm",
			body: marchallObj(t, user.ResetUserPassword{Token: token, UID: data["UID"], Password: pwd, PasswordConfirm: pwd}),
		}
	}
	newPwd := "N3w-Secr3t!"

	bad := confirm("MzQ-forged", newPwd)
	bad.name, bad.wantCode, bad.wantData = "forged token", http.StatusBadRequest, marchallObj(t, httpErr{Error: "invalid token"})
	weak := confirm(data["Token"], "password")
	weak.name, weak.wantCode = "weak password", http.StatusBadRequest
	good := confirm(data["Token"], newPwd)
	good.name, good.wantCode = "reset", http.StatusOK
	good.wantData = marchallObj(t, SuccessResponse{Success: "Password has been reset with the new password."})
	reused := confirm(data["Token"], newPwd)
	reused.name, reused.wantCode, reused.wantData = "token used", http.StatusBadRequest, marchallObj(t, httpErr{Error: "invalid token"})

	runHTTPTests(t, env.app, []httpTest{bad, weak, good, reused})

	req, rec = newRequest(http.MethodPost, "/v1/users/login", marchallObj(t, LoginRequest{Username: c.teacher.Username, Password: newPwd}))
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
