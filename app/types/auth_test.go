package types_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vibast-solutions/ms-go-jobtracker/app/types"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONContext(method, target, body string) echo.Context {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestRegisterRequestValidate(t *testing.T) {
	valid := types.RegisterRequest{Username: "jane.doe", Email: "jane@example.com", Password: "secret"}

	tests := []struct {
		name    string
		mutate  func(r *types.RegisterRequest)
		wantErr string
	}{
		{name: "valid", mutate: func(*types.RegisterRequest) {}},
		{name: "missing password", mutate: func(r *types.RegisterRequest) { r.Password = "" }, wantErr: "required"},
		{name: "short username", mutate: func(r *types.RegisterRequest) { r.Username = "jd" }, wantErr: "between 3 and 32"},
		{name: "username charset", mutate: func(r *types.RegisterRequest) { r.Username = "jane doe" }, wantErr: "may only contain"},
		{name: "email without at", mutate: func(r *types.RegisterRequest) { r.Email = "jane.example.com" }, wantErr: "email is invalid"},
		{name: "email with two ats", mutate: func(r *types.RegisterRequest) { r.Email = "a@b@c" }, wantErr: "email is invalid"},
		{name: "password over bcrypt limit", mutate: func(r *types.RegisterRequest) { r.Password = strings.Repeat("x", 73) }, wantErr: "72 bytes"},
		{name: "long display name", mutate: func(r *types.RegisterRequest) { r.DisplayName = strings.Repeat("x", 256) }, wantErr: "displayName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRegisterRequestFromContext(t *testing.T) {
	ctx := newJSONContext(http.MethodPost, "/auth/register",
		`{"username":"jane","email":"jane@example.com","password":"secret","displayName":"  Jane  "}`)

	req, err := types.NewRegisterRequestFromContext(ctx)
	require.NoError(t, err)
	require.NoError(t, req.Validate())

	cmd := req.Command()
	assert.Equal(t, "jane", cmd.Username)
	assert.Equal(t, "jane@example.com", cmd.Email)
	assert.Equal(t, "Jane", cmd.DisplayName)
}

func TestLoginRequestValidate(t *testing.T) {
	assert.Error(t, (&types.LoginRequest{Email: " ", Password: "secret"}).Validate())
	assert.Error(t, (&types.LoginRequest{Email: "jane@example.com"}).Validate())
	assert.NoError(t, (&types.LoginRequest{Email: "jane@example.com", Password: "secret"}).Validate())
}

func TestUpdateProfileRequest(t *testing.T) {
	ctx := newJSONContext(http.MethodPatch, "/users/me", `{}`)
	req, err := types.NewUpdateProfileRequestFromContext(ctx)
	require.NoError(t, err)
	assert.Error(t, req.Validate())

	ctx = newJSONContext(http.MethodPatch, "/users/me", `{"displayName":"  Jane  "}`)
	req, err = types.NewUpdateProfileRequestFromContext(ctx)
	require.NoError(t, err)
	require.NoError(t, req.Validate())

	update := req.Command()
	assert.Nil(t, update.Username)
	assert.Nil(t, update.Email)
	require.NotNil(t, update.DisplayName)
	assert.Equal(t, "Jane", *update.DisplayName)

	badUsername := "x"
	assert.Error(t, (&types.UpdateProfileRequest{Username: &badUsername}).Validate())
}
