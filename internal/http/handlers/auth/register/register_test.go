package register

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/soulsirensomatics/portal/internal/models"
	authservice "github.com/soulsirensomatics/portal/internal/services/auth"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Register(ctx context.Context, in authservice.RegisterInput) (*models.User, string, error) {
	args := m.Called(ctx, in)
	user, _ := args.Get(0).(*models.User)
	return user, args.String(1), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	serviceMock := new(AuthServiceMock)
	handler := New(newNoopLogger(), serviceMock)

	user := &models.User{ID: 3, Email: "anna@example.com", FirstName: "Anna", LastName: "Reed", Role: models.RoleClient}

	tests := []struct {
		name           string
		requestBody    interface{}
		mockUser       *models.User
		mockErr        error
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "valid registration",
			requestBody:    Request{Email: "anna@example.com", Password: "password123", FirstName: "Anna", LastName: "Reed"},
			mockUser:       user,
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "email already taken",
			requestBody:    Request{Email: "anna@example.com", Password: "password123", FirstName: "Anna", LastName: "Reed"},
			mockErr:        repository.ErrEmailTaken,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "User with this email already exists",
		},
		{
			name:           "password too short",
			requestBody:    Request{Email: "anna@example.com", Password: "short", FirstName: "Anna", LastName: "Reed"},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Password is too short",
		},
		{
			name:           "invalid json body",
			requestBody:    "{broken",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock.ExpectedCalls = nil
			serviceMock.Calls = nil

			if tt.mockUser != nil || tt.mockErr != nil {
				serviceMock.On("Register", mock.Anything, mock.AnythingOfType("services.RegisterInput")).
					Return(tt.mockUser, "tok", tt.mockErr).Once()
			}

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

			if tt.wantError != "" {
				errObj, ok := got["error"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, tt.wantError, errObj["message"])
			} else {
				assert.Equal(t, "User created successfully", got["message"])
				assert.Equal(t, "tok", got["token"])
				gotUser, ok := got["user"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, user.Email, gotUser["email"])
			}

			serviceMock.AssertExpectations(t)
		})
	}
}
