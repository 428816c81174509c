package controller_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/controller"
	"github.com/vibast-solutions/ms-go-jobtracker/app/hasher"
	"github.com/vibast-solutions/ms-go-jobtracker/app/repository"
	"github.com/vibast-solutions/ms-go-jobtracker/app/service"
	"github.com/vibast-solutions/ms-go-jobtracker/app/token"
	"github.com/vibast-solutions/ms-go-jobtracker/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	insertUserQuery           = `(?s)INSERT INTO users \(username, email, display_name, password_hash, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?\)`
	findUserByEmailQuery      = `(?s)SELECT id, username, email, display_name, password_hash, created_at, updated_at\s+FROM users WHERE email = \?`
	findUserByIDQuery         = `(?s)SELECT id, username, email, display_name, password_hash, created_at, updated_at\s+FROM users WHERE id = \?`
	insertRefreshTokenQuery   = `(?s)INSERT INTO refresh_tokens \(user_id, token_hash, jti, created_at\)\s+VALUES \(\?, \?, \?, \?\)`
	upsertRefreshTokenQuery   = `(?s)INSERT INTO refresh_tokens .+ ON DUPLICATE KEY UPDATE`
	findSessionForUpdateQuery = `(?s)SELECT id, user_id, token_hash, jti, created_at\s+FROM refresh_tokens WHERE user_id = \? FOR UPDATE`
	rotateRefreshTokenQuery   = `UPDATE refresh_tokens SET token_hash = \?, jti = \? WHERE id = \? AND jti = \?`
	deleteByUserIDQuery       = `DELETE FROM refresh_tokens WHERE user_id = \?`
)

var userColumns = []string{
	"id",
	"username",
	"email",
	"display_name",
	"password_hash",
	"created_at",
	"updated_at",
}

var refreshTokenColumns = []string{
	"id",
	"user_id",
	"token_hash",
	"jti",
	"created_at",
}

var testJWTConfig = config.JWTConfig{
	AccessSecret:  "access-secret",
	RefreshSecret: "refresh-secret",
}

type authFixture struct {
	controller *controller.AuthController
	mock       sqlmock.Sqlmock
	signer     *token.Signer
	passwords  *hasher.Bcrypt
}

func newAuthFixture(t *testing.T, jwtCfg config.JWTConfig) *authFixture {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	signer := token.NewSigner(jwtCfg)
	passwords := hasher.NewBcrypt(bcrypt.MinCost)
	sessionService := service.NewSessionService(
		repository.NewUserRepository(db),
		repository.NewRefreshTokenRepository(db),
		signer,
		passwords,
	)

	return &authFixture{
		controller: controller.NewAuthController(sessionService, config.CookieConfig{
			Name: config.RefreshCookieName,
			Path: "/auth",
		}),
		mock:      mock,
		signer:    signer,
		passwords: passwords,
	}
}

func (f *authFixture) verifyExpectations(t *testing.T) {
	t.Helper()
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func newJSONRequest(t *testing.T, method, path string, body any) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func newCookieRequest(method, path, value string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, nil)
	if value != "" {
		req.AddCookie(&http.Cookie{Name: config.RefreshCookieName, Value: value})
	}
	return req, httptest.NewRecorder()
}

func refreshCookieOf(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == config.RefreshCookieName {
			return cookie
		}
	}
	t.Fatalf("expected %s cookie to be set", config.RefreshCookieName)
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}
	return body
}

func TestRegister_Success(t *testing.T) {
	f := newAuthFixture(t, testJWTConfig)

	f.mock.ExpectExec(insertUserQuery).
		WithArgs("alice", "alice@example.com", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectExec(insertRefreshTokenQuery).
		WithArgs(uint64(1), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	req, rec := newJSONRequest(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "pw123",
	})
	ctx := echo.New().NewContext(req, rec)

	if err := f.controller.Register(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	access, _ := body["accessToken"].(string)
	if _, err := f.signer.VerifyAccessToken(access); err != nil {
		t.Fatalf("expected a valid access token, got %q", access)
	}
	if _, ok := body["refreshToken"]; ok {
		t.Fatal("refresh token must only travel in the cookie on register")
	}

	cookie := refreshCookieOf(t, rec)
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode || cookie.Path != "/auth" {
		t.Fatalf("unexpected cookie attributes: %+v", cookie)
	}
	if cookie.MaxAge != int((7 * 24 * time.Hour).Seconds()) {
		t.Fatalf("expected max-age of 7 days, got %d", cookie.MaxAge)
	}
	if _, err := f.signer.VerifyRefreshToken(cookie.Value); err != nil {
		t.Fatalf("expected a valid refresh token in the cookie: %v", err)
	}
	f.verifyExpectations(t)
}

func TestRegister_InvalidBody(t *testing.T) {
	f := newAuthFixture(t, testJWTConfig)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`["alice"]`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)

	if err := f.controller.Register(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	f.verifyExpectations(t)
}

func TestRegister_ValidationFailure(t *testing.T) {
	f := newAuthFixture(t, testJWTConfig)

	cases := []map[string]string{
		{"email": "alice@example.com", "password": "pw123"},
		{"username": "al", "email": "alice@example.com", "password": "pw123"},
		{"username": "alice", "email": "not-an-email", "password": "pw123"},
		{"username": "alice", "email": "alice@example.com", "password": strings.Repeat("x", 73)},
	}
	for _, body := range cases {
		req, rec := newJSONRequest(t, http.MethodPost, "/auth/register", body)
		ctx := echo.New().NewContext(req, rec)

		if err := f.controller.Register(ctx); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %v: expected status 400, got %d", body, rec.Code)
		}
	}
	f.verifyExpectations(t)
}

func TestRegister_DuplicateUser(t *testing.T) {
	f := newAuthFixture(t, testJWTConfig)

	f.mock.ExpectExec(insertUserQuery).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	req, rec := newJSONRequest(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "pw123",
	})
	ctx := echo.New().NewContext(req, rec)

	if err := f.controller.Register(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "user already exists" {
		t.Fatalf("unexpected error message: %v", got)
	}
	f.verifyExpectations(t)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newAuthFixture(t, testJWTConfig)

	f.mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	req, rec := newJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "bad-password",
	})
	ctx := echo.New().NewContext(req, rec)

	if err := f.controller.Login(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "invalid credentials" {
		t.Fatalf("unexpected error message: %v", got)
	}
	f.verifyExpectations(t)
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t, testJWTConfig)

	hash, err := f.passwords.Hash("pw123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now()
	f.mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "alice", "alice@example.com", nil, hash, now, now))
	f.mock.ExpectExec(upsertRefreshTokenQuery).
		WithArgs(uint64(1), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	req, rec := newJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "pw123",
	})
	ctx := echo.New().NewContext(req, rec)

	if err := f.controller.Login(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["accessToken"] == "" {
		t.Fatal("expected accessToken in body")
	}
	refreshCookieOf(t, rec)
	f.verifyExpectations(t)
}

func TestLogin_CookieLifetimeFollowsRefreshTTL(t *testing.T) {
	jwtCfg := testJWTConfig
	jwtCfg.RefreshTokenTTL = 90 * time.Minute
	f := newAuthFixture(t, jwtCfg)

	hash, err := f.passwords.Hash("pw123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now()
	f.mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "alice", "alice@example.com", nil, hash, now, now))
	f.mock.ExpectExec(upsertRefreshTokenQuery).
		WithArgs(uint64(1), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	req, rec := newJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "pw123",
	})
	ctx := echo.New().NewContext(req, rec)

	if err := f.controller.Login(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if cookie := refreshCookieOf(t, rec); cookie.MaxAge != 90*60 {
		t.Fatalf("expected max-age of 5400 seconds, got %d", cookie.MaxAge)
	}
	f.verifyExpectations(t)
}

func TestLogin_InvalidBodyMissingFields(t *testing.T) {
	f := newAuthFixture(t, testJWTConfig)

	req, rec := newJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{"email": "alice@example.com"})
	ctx := echo.New().NewContext(req, rec)

	if err := f.controller.Login(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestRefresh_MissingCookie(t *testing.T) {
	f := newAuthFixture(t, testJWTConfig)

	req, rec := newCookieRequest(http.MethodPost, "/auth/refresh", "")
	ctx := echo.New().NewContext(req, rec)

	if err := f.controller.Refresh(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRefresh_IgnoresBodyToken(t *testing.T) {
	f := newAuthFixture(t, testJWTConfig)

	refresh, err := f.signer.IssueRefreshToken(1, "jti")
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}
	req, rec := newJSONRequest(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": refresh})
	ctx := echo.New().NewContext(req, rec)

	if err := f.controller.Refresh(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	f.verifyExpectations(t)
}

func TestRefresh_ForeignSignature(t *testing.T) {
	f := newAuthFixture(t, testJWTConfig)

	forged, err := token.Issue(1, "jti", []byte("someone-else"), time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req, rec := newCookieRequest(http.MethodPost, "/auth/refresh", forged)
	ctx := echo.New().NewContext(req, rec)

	if err := f.controller.Refresh(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	f.verifyExpectations(t)
}

func TestRefresh_UserNeverLoggedIn(t *testing.T) {
	f := newAuthFixture(t, testJWTConfig)

	refresh, err := f.signer.IssueRefreshToken(99, "jti")
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(findSessionForUpdateQuery).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(refreshTokenColumns))
	f.mock.ExpectRollback()

	req, rec := newCookieRequest(http.MethodPost, "/auth/refresh", refresh)
	ctx := echo.New().NewContext(req, rec)

	if err := f.controller.Refresh(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
	f.verifyExpectations(t)
}

func TestRefresh_Success(t *testing.T) {
	f := newAuthFixture(t, testJWTConfig)

	refresh, err := f.signer.IssueRefreshToken(1, "jti-1")
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}
	tokenHash, err := hasher.NewTokenHasher(f.passwords).Hash(refresh)
	if err != nil {
		t.Fatalf("hash refresh token: %v", err)
	}

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(findSessionForUpdateQuery).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(refreshTokenColumns).AddRow(5, 1, tokenHash, "jti-1", time.Now()))
	f.mock.ExpectExec(rotateRefreshTokenQuery).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), uint64(5), "jti-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	req, rec := newCookieRequest(http.MethodPost, "/auth/refresh", refresh)
	ctx := echo.New().NewContext(req, rec)

	if err := f.controller.Refresh(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	rotated, _ := body["refreshToken"].(string)
	if rotated == "" || rotated == refresh {
		t.Fatalf("expected a rotated refresh token, got %q", rotated)
	}
	if body["accessToken"] == "" {
		t.Fatal("expected accessToken in body")
	}
	if cookie := refreshCookieOf(t, rec); cookie.Value != rotated {
		t.Fatal("cookie must carry the rotated refresh token")
	}
	f.verifyExpectations(t)
}

func TestRefresh_MissingSecret(t *testing.T) {
	f := newAuthFixture(t, config.JWTConfig{})

	req, rec := newCookieRequest(http.MethodPost, "/auth/refresh", "anything")
	ctx := echo.New().NewContext(req, rec)

	if err := f.controller.Refresh(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "server misconfigured" {
		t.Fatalf("unexpected error message: %v", got)
	}
}

func TestLogout_MissingCookie(t *testing.T) {
	f := newAuthFixture(t, testJWTConfig)

	req, rec := newCookieRequest(http.MethodPost, "/auth/logout", "")
	ctx := echo.New().NewContext(req, rec)

	if err := f.controller.Logout(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestLogout_Success(t *testing.T) {
	f := newAuthFixture(t, testJWTConfig)

	refresh, err := f.signer.IssueRefreshToken(1, "jti")
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}
	f.mock.ExpectExec(deleteByUserIDQuery).
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req, rec := newCookieRequest(http.MethodPost, "/auth/logout", refresh)
	ctx := echo.New().NewContext(req, rec)

	if err := f.controller.Logout(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if cookie := refreshCookieOf(t, rec); cookie.MaxAge >= 0 || cookie.Value != "" {
		t.Fatalf("expected cookie to be cleared, got %+v", cookie)
	}
	f.verifyExpectations(t)
}

func TestLogout_NoSession(t *testing.T) {
	f := newAuthFixture(t, testJWTConfig)

	refresh, err := f.signer.IssueRefreshToken(1, "jti")
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}
	f.mock.ExpectExec(deleteByUserIDQuery).
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	req, rec := newCookieRequest(http.MethodPost, "/auth/logout", refresh)
	ctx := echo.New().NewContext(req, rec)

	if err := f.controller.Logout(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	refreshCookieOf(t, rec)
	f.verifyExpectations(t)
}

func TestLogout_InvalidToken(t *testing.T) {
	f := newAuthFixture(t, testJWTConfig)

	req, rec := newCookieRequest(http.MethodPost, "/auth/logout", "garbage")
	ctx := echo.New().NewContext(req, rec)

	if err := f.controller.Logout(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	f.verifyExpectations(t)
}
