// AngelaMos | 2026
// user_test.go

package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/component-store/internal/auth"
	"github.com/carterperez-dev/component-store/internal/config"
	"github.com/carterperez-dev/component-store/internal/middleware"
	"github.com/carterperez-dev/component-store/internal/testutil"
	"github.com/carterperez-dev/component-store/internal/user"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type fixture struct {
	router http.Handler
	users  *user.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	keyPath := filepath.Join(dir, "private.pem")
	if err := auth.GenerateKeyPair(keyPath, filepath.Join(dir, "public.pem")); err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	jwtManager, err := auth.NewJWTManager(config.JWTConfig{
		PrivateKeyPath:    keyPath,
		AccessTokenExpire: time.Hour,
		Issuer:            "component-store",
		Audience:          "component-store-api",
	})
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	db := testutil.NewSQLiteDB(t)
	userService := user.NewService(user.NewRepository(db))
	authService := auth.NewService(jwtManager, userService)

	authenticator := middleware.Authenticator(
		middleware.WithTokenVersion(jwtManager, userService),
	)

	r := chi.NewRouter()
	auth.NewHandler(authService).RegisterRoutes(r, authenticator)
	userHandler := user.NewHandler(userService)
	userHandler.RegisterRoutes(r, authenticator)
	userHandler.RegisterAdminRoutes(r, authenticator, middleware.RequireAdmin)

	return &fixture{router: r, users: userService}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func (f *fixture) register(t *testing.T, email string) (string, string) {
	t.Helper()

	rec, env := f.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    email,
		"password": "correct horse battery",
		"name":     "Test User",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp auth.AuthResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode auth response: %v", err)
	}
	return resp.User.ID, resp.Tokens.AccessToken
}

func TestRegisterLoginMe(t *testing.T) {
	f := newFixture(t)

	id, token := f.register(t, "Dev@Example.com")

	rec, env := f.do(t, http.MethodGet, "/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /auth/me, got %d", rec.Code)
	}
	var me auth.MeResponse
	if err := json.Unmarshal(env.Data, &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.User.ID != id || me.User.Email != "dev@example.com" || me.User.Role != user.RoleUser {
		t.Errorf("Unexpected me %+v", me.User)
	}
	if me.TokenRole != user.RoleUser || me.TokenVersion != 0 {
		t.Errorf("Unexpected token claims %q v%d", me.TokenRole, me.TokenVersion)
	}

	rec, _ = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "dev@example.com",
		"password": "correct horse battery",
	})
	if rec.Code != http.StatusOK {
		t.Errorf("Expected login 200, got %d", rec.Code)
	}

	rec, env = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "dev@example.com",
		"password": "wrong password here",
	})
	if rec.Code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
		t.Errorf("Expected 401 UNAUTHORIZED for wrong password, got %d %+v", rec.Code, env.Error)
	}

	rec, _ = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "correct horse battery",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for unknown email, got %d", rec.Code)
	}
}

func TestRegister_Rejections(t *testing.T) {
	f := newFixture(t)
	f.register(t, "dup@example.com")

	rec, env := f.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "DUP@example.com",
		"password": "correct horse battery",
		"name":     "Again",
	})
	if rec.Code != http.StatusConflict || env.Error == nil || env.Error.Code != "DUPLICATE" {
		t.Errorf("Expected 409 DUPLICATE, got %d %+v", rec.Code, env.Error)
	}

	rec, _ = f.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "not-an-email",
		"password": "short",
		"name":     "",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid body, got %d", rec.Code)
	}
}

func TestUsersMe(t *testing.T) {
	f := newFixture(t)
	_, token := f.register(t, "me@example.com")

	rec, _ := f.do(t, http.MethodGet, "/users/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}

	rec, env := f.do(t, http.MethodPut, "/users/me", token, map[string]string{"name": "Renamed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp user.UserResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if resp.Name != "Renamed" {
		t.Errorf("Expected renamed user, got %q", resp.Name)
	}
}

func TestAdminUsers(t *testing.T) {
	f := newFixture(t)
	adminID, staleToken := f.register(t, "admin@example.com")
	memberID, memberToken := f.register(t, "member@example.com")

	rec, _ := f.do(t, http.MethodGet, "/admin/users", memberToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-admin, got %d", rec.Code)
	}

	promoted, err := f.users.UpdateUserRole(context.Background(), adminID, user.RoleAdmin)
	if err != nil {
		t.Fatalf("UpdateUserRole failed: %v", err)
	}
	if promoted.TokenVersion != 1 {
		t.Errorf("Expected token version bump, got %d", promoted.TokenVersion)
	}

	rec, env := f.do(t, http.MethodGet, "/users/me", staleToken, nil)
	if rec.Code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "TOKEN_REVOKED" {
		t.Errorf("Expected stale token to be revoked, got %d %+v", rec.Code, env.Error)
	}

	rec, env = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "correct horse battery",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected admin login 200, got %d", rec.Code)
	}
	var login auth.AuthResponse
	if err := json.Unmarshal(env.Data, &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	adminToken := login.Tokens.AccessToken

	rec, _ = f.do(t, http.MethodGet, "/admin/users?search=MEMBER", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 listing users, got %d", rec.Code)
	}
	var listed struct {
		Data []user.UserResponse `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if listed.Meta.Total != 1 || len(listed.Data) != 1 || listed.Data[0].ID != memberID {
		t.Errorf("Expected only the member to match, got %+v", listed)
	}

	rec, _ = f.do(t, http.MethodPut, "/admin/users/"+memberID+"/role", adminToken,
		map[string]string{"role": "owner"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown role, got %d", rec.Code)
	}
}

func (f *fixture) admin(t *testing.T, email string) (string, string) {
	t.Helper()

	id, _ := f.register(t, email)
	if _, err := f.users.UpdateUserRole(context.Background(), id, user.RoleAdmin); err != nil {
		t.Fatalf("promote: %v", err)
	}

	rec, env := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": "correct horse battery",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected admin login 200, got %d", rec.Code)
	}
	var login auth.AuthResponse
	if err := json.Unmarshal(env.Data, &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return id, login.Tokens.AccessToken
}

func TestAdminTokenControls(t *testing.T) {
	f := newFixture(t)
	adminID, adminToken := f.admin(t, "ops@example.com")
	memberID, memberToken := f.register(t, "member@example.com")

	rec, env := f.do(t, http.MethodPut, "/admin/users/"+adminID+"/role", adminToken,
		map[string]string{"role": "user"})
	if rec.Code != http.StatusConflict || env.Error == nil || env.Error.Code != "CONFLICT" {
		t.Errorf("Expected 409 for self demotion, got %d %+v", rec.Code, env.Error)
	}

	rec, env = f.do(t, http.MethodPut, "/admin/users/"+memberID+"/role", adminToken,
		map[string]string{"role": "user"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for unchanged role, got %d", rec.Code)
	}
	var state user.TokenStateResponse
	if err := json.Unmarshal(env.Data, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.TokensRevoked || state.TokenVersion != 0 {
		t.Errorf("Unchanged role must keep tokens, got %+v", state)
	}

	rec, _ = f.do(t, http.MethodGet, "/users/me", memberToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected member token to stay valid, got %d", rec.Code)
	}

	rec, env = f.do(t, http.MethodPost, "/admin/users/"+memberID+"/revoke-tokens", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from revoke, got %d", rec.Code)
	}
	state = user.TokenStateResponse{}
	if err := json.Unmarshal(env.Data, &state); err != nil {
		t.Fatalf("decode revoke: %v", err)
	}
	if !state.TokensRevoked || state.TokenVersion != 1 || state.User.ID != memberID {
		t.Errorf("Unexpected revoke result %+v", state)
	}

	rec, env = f.do(t, http.MethodGet, "/users/me", memberToken, nil)
	if rec.Code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "TOKEN_REVOKED" {
		t.Errorf("Expected revoked member token, got %d %+v", rec.Code, env.Error)
	}

	rec, _ = f.do(t, http.MethodPost, "/admin/users/missing/revoke-tokens", adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 revoking unknown user, got %d", rec.Code)
	}

	rec, _ = f.do(t, http.MethodGet, "/admin/users?role=owner", adminToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown role filter, got %d", rec.Code)
	}
}
