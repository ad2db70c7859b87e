package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mparreirinha/expensetrackerapp/internal/dtos"
	"github.com/mparreirinha/expensetrackerapp/internal/seeding"
	"github.com/mparreirinha/expensetrackerapp/internal/services"
	"github.com/mparreirinha/expensetrackerapp/internal/testhelpers"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t      *testing.T
	app    *App
	router http.Handler
	mr     *miniredis.Miniredis
	clock  *testhelpers.FakeClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mr, client := testhelpers.NewMiniRedis(t)
	clock := testhelpers.NewFakeClock(testhelpers.Epoch)
	a := New(testhelpers.TestConfig(), testhelpers.NewSQLiteUserRepo(t), client, clock)
	return &testServer{t: t, app: a, router: a.Router(), mr: mr, clock: clock}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(username, email, password string) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/auth/register", "", dtos.RegisterUserRequest{
		Username: username, Email: email, Password: password,
	})
}

func (s *testServer) login(username, password string) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/auth/login", "", dtos.LoginUserRequest{Username: username, Password: password})
}

// bearer logs in and returns a ready Authorization header value.
func (s *testServer) bearer(username, password string) string {
	s.t.Helper()
	rec := s.login(username, password)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp dtos.LoginUserResponse
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(s.t, resp.Token)
	return "Bearer " + resp.Token
}

func (s *testServer) seedAdmin() string {
	s.t.Helper()
	_, err := seeding.SeedDefaultAdmin(context.Background(), s.app.UserRepo, s.app.Hasher, seeding.AdminSeed{
		Username: "admin", Email: "admin@email.com", Password: "admin-pass",
	})
	require.NoError(s.t, err)
	return s.bearer("admin", "admin-pass")
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRouter_RegisterAndConflicts(t *testing.T) {
	s := newTestServer(t)

	rec := s.register("alice", "alice@example.com", "s3cret")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.register("alice", "other@example.com", "s3cret")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, utils.ErrCodeUsernameTaken, decodeError(t, rec).Code)

	rec = s.register("alice2", "alice@example.com", "s3cret")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, utils.ErrCodeEmailTaken, decodeError(t, rec).Code)

	rec = s.register("al", "bad-email", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.ErrCodeValidation, decodeError(t, rec).Code)
}

func TestRouter_LoginMeLogout(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.register("alice", "alice@example.com", "s3cret").Code)

	rec := s.login("alice", "s3cret")
	require.Equal(t, http.StatusOK, rec.Code)
	var login dtos.LoginUserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.Equal(t, time.Hour.Milliseconds(), login.ExpiresIn)
	token := "Bearer " + login.Token

	rec = s.login("alice", "wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, utils.ErrCodeInvalidCredentials, decodeError(t, rec).Code)

	rec = s.login("nobody", "s3cret")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me dtos.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "alice@example.com", me.Email)

	rec = s.do(http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logging out again is harmless.
	rec = s.do(http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_LogoutMalformed(t *testing.T) {
	s := newTestServer(t)

	for _, header := range []string{"", "garbage", "Bearer ", "Bearer not-a-jwt", "Basic dXNlcjpwYXNz"} {
		rec := s.do(http.MethodPost, "/auth/logout", header, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, header)
		assert.Equal(t, utils.ErrCodeMalformedToken, decodeError(t, rec).Code, header)
	}
}

func TestRouter_LogoutWithForeignSignature(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.register("alice", "alice@example.com", "s3cret").Code)
	token := s.bearer("alice", "s3cret")

	foreign := services.NewJWTService([]byte("ffffffffffffffffffffffffffffffff"), s.clock)
	forged, _, err := foreign.Issue("alice", "some-jti", time.Hour)
	require.NoError(t, err)

	rec := s.do(http.MethodPost, "/auth/logout", "Bearer "+forged, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, utils.ErrCodeUnauthorized, decodeError(t, rec).Code)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/me", token, nil).Code)
}

func TestRouter_PasswordByteLimit(t *testing.T) {
	s := newTestServer(t)

	// 25 runes, 100 bytes.
	long := strings.Repeat("😀", 25)
	rec := s.register("alice", "alice@example.com", long)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.ErrCodeValidation, decodeError(t, rec).Code)

	require.Equal(t, http.StatusCreated, s.register("alice", "alice@example.com", "s3cret").Code)
	token := s.bearer("alice", "s3cret")

	rec = s.do(http.MethodPost, "/me/change-password", token, dtos.ChangePasswordRequest{
		OldPassword: "s3cret", NewPassword: long,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.ErrCodeValidation, decodeError(t, rec).Code)

	// The session and the old password survive a rejected change.
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/me", token, nil).Code)
	s.bearer("alice", "s3cret")
}

func TestRouter_UsernameTrimmedBeforeValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.register(" ab ", "ab@example.com", "s3cret")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.ErrCodeValidation, decodeError(t, rec).Code)

	require.Equal(t, http.StatusCreated, s.register("  alice ", " alice@example.com ", "s3cret").Code)
	s.bearer("alice", "s3cret")
	s.bearer(" alice ", "s3cret")

	rec = s.register("alice", "other@example.com", "s3cret")
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_MeRequiresValidToken(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.register("alice", "alice@example.com", "s3cret").Code)
	token := s.bearer("alice", "s3cret")

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/me", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/me", "Token abc", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/me", "Bearer garbage", nil).Code)

	s.clock.Advance(time.Hour)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/me", token, nil).Code)
}

func TestRouter_RegistryOutageFailsClosed(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.register("alice", "alice@example.com", "s3cret").Code)
	token := s.bearer("alice", "s3cret")

	s.mr.SetError("ERR simulated outage")

	rec := s.do(http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = s.login("alice", "s3cret")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "token\":\"ey")

	rec = s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, utils.ErrCodeUnavailable, decodeError(t, rec).Code)

	s.mr.SetError("")
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/me", token, nil).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil).Code)
}

func TestRouter_ChangePasswordRevokesCurrentSession(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.register("alice", "alice@example.com", "old-pass").Code)
	token := s.bearer("alice", "old-pass")

	rec := s.do(http.MethodPost, "/me/change-password", token, dtos.ChangePasswordRequest{
		OldPassword: "wrong", NewPassword: "new-pass",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/me/change-password", token, dtos.ChangePasswordRequest{
		OldPassword: "old-pass", NewPassword: "new-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/me", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.login("alice", "old-pass").Code)
	s.bearer("alice", "new-pass")
}

func TestRouter_DeleteMe(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.register("alice", "alice@example.com", "s3cret").Code)
	first := s.bearer("alice", "s3cret")
	second := s.bearer("alice", "s3cret")

	require.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/me", first, nil).Code)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/me", second, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.login("alice", "s3cret").Code)

	// The username is free again.
	assert.Equal(t, http.StatusCreated, s.register("alice", "alice@example.com", "s3cret").Code)
}

func TestRouter_Admin(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.seedAdmin()
	require.Equal(t, http.StatusCreated, s.register("alice", "alice@example.com", "s3cret").Code)
	aliceToken := s.bearer("alice", "s3cret")

	rec := s.do(http.MethodGet, "/admin/users", aliceToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, utils.ErrCodeForbidden, decodeError(t, rec).Code)

	rec = s.do(http.MethodGet, "/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []dtos.UserAdminResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 2)
	ids := map[string]dtos.UserAdminResponse{}
	for _, u := range users {
		ids[u.Username] = u
	}
	alice, admin := ids["alice"], ids["admin"]
	assert.Equal(t, "USER", string(alice.Role))
	assert.Equal(t, "ADMIN", string(admin.Role))

	rec = s.do(http.MethodGet, "/admin/users/"+alice.ID.String(), adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/admin/users/not-a-uuid", adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound,
		s.do(http.MethodGet, "/admin/users/00000000-0000-0000-0000-000000000001", adminToken, nil).Code)

	rec = s.do(http.MethodDelete, "/admin/users/"+admin.ID.String(), adminToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodDelete, "/admin/users/"+alice.ID.String(), aliceToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodDelete, "/admin/users/"+alice.ID.String(), adminToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/me", aliceToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/admin/users/"+alice.ID.String(), adminToken, nil).Code)
}

func TestRouter_CORS(t *testing.T) {
	s := newTestServer(t)

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, "http://localhost:8080", preflight("http://localhost:8080").Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "http://localhost:3000", preflight("http://localhost:3000").Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, preflight("https://evil.example").Header().Get("Access-Control-Allow-Origin"))

	s.app.Config.LDFlag_CORSHighSecurity = true
	s.router = s.app.Router()
	assert.Empty(t, preflight("http://localhost:3000").Header().Get("Access-Control-Allow-Origin"))
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "postgres://***@db:5432/app", redactURL("postgres://user:pw@db:5432/app"))
	assert.Equal(t, "sqlite://data/users.db", redactURL("sqlite://data/users.db"))
}

func TestOpenUserStoreRejectsUnknownScheme(t *testing.T) {
	_, _, err := openUserStore("mysql://user:pw@db/app")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "pw")
}
