package middlewarectx_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulsirensomatics/portal/internal/http/middlewarectx"
	appjwt "github.com/soulsirensomatics/portal/internal/lib/jwt"
	"github.com/soulsirensomatics/portal/internal/models"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

type stubUsers struct {
	user *models.User
	err  error
}

func (s *stubUsers) GetUserByID(_ context.Context, _ int) (*models.User, error) {
	return s.user, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func okHandler(t *testing.T, wantUserID int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := middlewarectx.UserFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantUserID, user.ID)
		w.WriteHeader(http.StatusOK)
	})
}

func errorMessage(t *testing.T, body []byte) string {
	var resp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Error.Message
}

func TestJWTMiddleware(t *testing.T) {
	maker := appjwt.NewJWTMaker("test-secret", time.Hour)
	expiredMaker := appjwt.NewJWTMaker("test-secret", -time.Hour)

	validToken, err := maker.GenerateToken(42, "client@example.com")
	require.NoError(t, err)
	expiredToken, err := expiredMaker.GenerateToken(42, "client@example.com")
	require.NoError(t, err)
	resetToken, err := maker.GenerateResetToken(42)
	require.NoError(t, err)

	user := &models.User{ID: 42, Email: "client@example.com", Role: models.RoleClient}

	tests := []struct {
		name        string
		authHeader  string
		users       *stubUsers
		wantStatus  int
		wantMessage string
	}{
		{
			name:       "valid token",
			authHeader: "Bearer " + validToken,
			users:      &stubUsers{user: user},
			wantStatus: http.StatusOK,
		},
		{
			name:        "missing header",
			authHeader:  "",
			users:       &stubUsers{user: user},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "No token provided",
		},
		{
			name:        "wrong scheme",
			authHeader:  "Basic abc",
			users:       &stubUsers{user: user},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Token format invalid",
		},
		{
			name:        "expired token",
			authHeader:  "Bearer " + expiredToken,
			users:       &stubUsers{user: user},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Token expired",
		},
		{
			name:        "garbage token",
			authHeader:  "Bearer not-a-jwt",
			users:       &stubUsers{user: user},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid token",
		},
		{
			name:        "reset token is not an access token",
			authHeader:  "Bearer " + resetToken,
			users:       &stubUsers{user: user},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid token",
		},
		{
			name:        "user deleted after token issued",
			authHeader:  "Bearer " + validToken,
			users:       &stubUsers{err: repository.ErrNotFound},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "User not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middlewarectx.JWTMiddleware(maker, tt.users, discardLogger())(okHandler(t, 42))

			req := httptest.NewRequest(http.MethodGet, "/api/bookings/my-bookings", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, errorMessage(t, rr.Body.Bytes()))
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		user        *models.User
		wantStatus  int
		wantMessage string
	}{
		{
			name:       "admin passes",
			user:       &models.User{ID: 1, Role: models.RoleAdmin},
			wantStatus: http.StatusOK,
		},
		{
			name:        "client rejected",
			user:        &models.User{ID: 2, Role: models.RoleClient},
			wantStatus:  http.StatusForbidden,
			wantMessage: "Admin access required",
		},
		{
			name:        "no user in context",
			user:        nil,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "No token provided",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middlewarectx.AdminOnly(discardLogger())(next)

			req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
			if tt.user != nil {
				ctx := context.WithValue(req.Context(), middlewarectx.UserKey, tt.user)
				req = req.WithContext(ctx)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, errorMessage(t, rr.Body.Bytes()))
			}
		})
	}
}
