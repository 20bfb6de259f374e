package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/coursehub/apps/api/echo"
	"github.com/trezcool/coursehub/core/account"
	"github.com/trezcool/coursehub/core/user"
	"github.com/trezcool/coursehub/testutil"
)

func parseToken(t *testing.T, a *app, token string) *echoapi.Claims {
	t.Helper()
	claims := new(echoapi.Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(a.conf.SecretKey), nil
	})
	if err != nil {
		t.Fatalf("parseToken(): %v", err)
	}
	return claims
}

func Test_userApi_login(t *testing.T) {
	a := setup(t)
	usr := testutil.CreateUser(t, a.repos.user, "Ada Lovelace", "ada@coursehub.test", testPwd, account.RoleMaster, false, "4")
	authFailed := marshallObj(t, httpErr{Error: "authentication failed"})

	a.run(t, []httpTest{
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/users/login",
			body:     marshallObj(t, echoapi.LoginRequest{Email: "grace@coursehub.test", Password: testPwd}),
			wantCode: http.StatusBadRequest, wantData: authFailed,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body:     marshallObj(t, echoapi.LoginRequest{Email: usr.Email, Password: "nope"}),
			wantCode: http.StatusBadRequest, wantData: authFailed,
		},
		{
			name: "missing password", method: http.MethodPost, path: "/v1/users/login",
			body:     marshallObj(t, echoapi.LoginRequest{Email: usr.Email}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"password": "this field is required"}),
		},
	})

	t.Run("success", func(t *testing.T) {
		rec := a.do(httpTest{
			method: http.MethodPost,
			path:   "/v1/users/login",
			body:   marshallObj(t, echoapi.LoginRequest{Email: " ADA@coursehub.test ", Password: testPwd}),
		})
		if !assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String()) {
			return
		}
		var resp echoapi.LoginResponse
		unmarshall(t, rec, &resp)
		claims := parseToken(t, a, resp.Token)
		assert.Equal(t, account.Viewer{ID: usr.ID, Role: account.RoleMaster, Cohort: "4"}, claims.Viewer())

		logged, err := a.repos.user.Get(context.Background(), usr.ID)
		if assert.NoError(t, err) {
			assert.False(t, logged.LastLogin.IsZero())
		}
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	a := setup(t)
	usr := testutil.CreateUser(t, a.repos.user, "Ada Lovelace", "ada@coursehub.test", testPwd, account.RoleMember, false, "")
	gone := testutil.CreateUser(t, a.repos.user, "Gone Girl", "gone@coursehub.test", testPwd, account.RoleMember, false, "")
	goneToken := a.getToken(t, gone)
	if err := a.repos.user.Delete(context.Background(), gone.ID); err != nil {
		t.Fatalf("Delete(): %v", err)
	}

	expiredOrigIat := time.Now().Add(-a.conf.Server.JWTRefreshExpirationDelta - time.Minute).Unix()
	expiredToken, err := a.GenerateToken(echoapi.GetUserClaims(a.conf, usr, expiredOrigIat))
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	a.run(t, []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/users/token-refresh", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "refresh expired", method: http.MethodPost, path: "/v1/users/token-refresh", token: expiredToken,
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{
			name: "deleted user", method: http.MethodPost, path: "/v1/users/token-refresh", token: goneToken,
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, httpErr{Error: "user not authenticated"}),
		},
	})

	t.Run("success", func(t *testing.T) {
		origIat := time.Now().Add(-time.Hour).Unix()
		token, err := a.GenerateToken(echoapi.GetUserClaims(a.conf, usr, origIat))
		if err != nil {
			t.Fatalf("GenerateToken(): %v", err)
		}
		rec := a.do(httpTest{method: http.MethodPost, path: "/v1/users/token-refresh", token: token})
		if !assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String()) {
			return
		}
		var resp echoapi.LoginResponse
		unmarshall(t, rec, &resp)
		claims := parseToken(t, a, resp.Token)
		assert.Equal(t, origIat, claims.OrigIssuedAt)
		assert.Equal(t, usr.ID, claims.Viewer().ID)
	})
}

func Test_userApi_profile(t *testing.T) {
	a := setup(t)
	usr := testutil.CreateUser(t, a.repos.user, "Ada Lovelace", "ada@coursehub.test", testPwd, account.RoleMember, false, "")
	other := testutil.CreateUser(t, a.repos.user, "Grace Hopper", "grace@coursehub.test", testPwd, account.RoleMaster, false, "1")
	admin := testutil.CreateUser(t, a.repos.user, "Root", "root@coursehub.test", testPwd, account.RoleFree, true, "")
	token := a.getToken(t, usr)

	a.run(t, []httpTest{
		{name: "auth required", path: "/v1/profile", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "retrieve", path: "/v1/profile", token: token, wantCode: http.StatusOK, wantData: marshallObj(t, usr)},
		{
			name: "role change needs admin", method: http.MethodPut, path: "/v1/profile", token: token,
			body:     []byte(`{"role":"master"}`),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "cohort change needs admin", method: http.MethodPut, path: "/v1/profile", token: token,
			body:     []byte(`{"cohort":"3"}`),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "email taken", method: http.MethodPut, path: "/v1/profile", token: token,
			body:     marshallObj(t, user.UpdateUser{Email: other.Email}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "weak password", method: http.MethodPut, path: "/v1/profile", token: token,
			body:     marshallObj(t, user.UpdateUser{Password: "abc", PasswordConfirm: "abc"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"password": "password must contain at least 8 characters"}),
		},
	})

	t.Run("update", func(t *testing.T) {
		rec := a.do(httpTest{
			method: http.MethodPut,
			path:   "/v1/profile",
			token:  token,
			body:   marshallObj(t, user.UpdateUser{Name: " Countess Ada ", Password: "An4lytical-Engine", PasswordConfirm: "An4lytical-Engine"}),
		})
		if !assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String()) {
			return
		}
		var updated user.User
		unmarshall(t, rec, &updated)
		assert.Equal(t, "Countess Ada", updated.Name)
		assert.Equal(t, usr.Email, updated.Email)
		assert.Equal(t, account.RoleMember, updated.Role)

		rec = a.do(httpTest{
			method: http.MethodPost,
			path:   "/v1/users/login",
			body:   marshallObj(t, echoapi.LoginRequest{Email: usr.Email, Password: "An4lytical-Engine"}),
		})
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("admin changes own role", func(t *testing.T) {
		rec := a.do(httpTest{
			method: http.MethodPut,
			path:   "/v1/profile",
			token:  a.getToken(t, admin),
			body:   []byte(`{"role":"both","cohort":"7"}`),
		})
		if !assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String()) {
			return
		}
		var updated user.User
		unmarshall(t, rec, &updated)
		assert.Equal(t, account.RoleBoth, updated.Role)
		assert.Equal(t, "7", updated.Cohort)
		assert.True(t, updated.IsAdmin)
	})
}
