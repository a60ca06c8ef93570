package update

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/soulsirensomatics/portal/internal/models"
	clientservice "github.com/soulsirensomatics/portal/internal/services/client"
)

// MockService реализует интерфейс update.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Update(ctx context.Context, id int, upd clientservice.UpdateInput) (*models.User, error) {
	args := m.Called(ctx, id, upd)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func strPtr(s string) *string { return &s }

func TestUpdateHandler(t *testing.T) {
	updated := &models.User{ID: 5, Email: "anna@example.com", Role: models.RoleClient}

	tests := []struct {
		name           string
		body           string
		wantInput      *clientservice.UpdateInput
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "tier set to value",
			body: `{"membership_tier":"siren"}`,
			wantInput: &clientservice.UpdateInput{
				MembershipTier:    strPtr("siren"),
				MembershipTierSet: true,
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `Client updated successfully`,
		},
		{
			name: "tier explicit null clears it",
			body: `{"membership_tier":null}`,
			wantInput: &clientservice.UpdateInput{
				MembershipTierSet: true,
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `Client updated successfully`,
		},
		{
			name: "tier absent stays untouched",
			body: `{"first_name":"Anna"}`,
			wantInput: &clientservice.UpdateInput{
				FirstName: strPtr("Anna"),
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `Client updated successfully`,
		},
		{
			name:           "unknown tier rejected",
			body:           `{"membership_tier":"platinum"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `Invalid membership_tier. Must be one of: free, seeker, siren, or null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			if tt.wantInput != nil {
				mockService.On("Update", mock.Anything, 5, *tt.wantInput).Return(updated, nil).Once()
			}

			handler := New(newNoopLogger(), mockService)

			req := httptest.NewRequest(http.MethodPut, "/api/clients/5", bytes.NewReader([]byte(tt.body)))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "5")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
