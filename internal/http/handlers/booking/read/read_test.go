package read

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/soulsirensomatics/portal/internal/http/middlewarectx"
	"github.com/soulsirensomatics/portal/internal/models"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

// MockService реализует интерфейс read.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Read(ctx context.Context, id int) (*models.BookingWithOwner, error) {
	args := m.Called(ctx, id)
	if res := args.Get(0); res != nil {
		return res.(*models.BookingWithOwner), args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestReadHandler(t *testing.T) {
	owner := &models.User{ID: 5, Role: models.RoleClient}
	stranger := &models.User{ID: 9, Role: models.RoleClient}
	admin := &models.User{ID: 1, Role: models.RoleAdmin}

	booking := &models.BookingWithOwner{
		Booking: models.Booking{ID: 123, UserID: 5, ServiceType: "discovery-call", Status: "confirmed"},
	}

	tests := []struct {
		name           string
		urlID          string
		user           *models.User
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "owner reads own booking",
			urlID: "123",
			user:  owner,
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, 123).Return(booking, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"service_type":"discovery-call"`,
		},
		{
			name:  "admin reads any booking",
			urlID: "123",
			user:  admin,
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, 123).Return(booking, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"service_type":"discovery-call"`,
		},
		{
			name:  "stranger denied",
			urlID: "123",
			user:  stranger,
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, 123).Return(booking, nil)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `Not authorized to view this booking`,
		},
		{
			name:  "booking not found",
			urlID: "777",
			user:  owner,
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, 777).Return(nil, repository.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `Booking not found`,
		},
		{
			name:           "bad id in url",
			urlID:          "abc",
			user:           owner,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `Invalid booking id`,
		},
		{
			name:  "storage failure",
			urlID: "123",
			user:  owner,
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, 123).Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `Internal server error`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService)

			req := httptest.NewRequest(http.MethodGet, "/api/bookings/"+tt.urlID, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.urlID)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middlewarectx.UserKey, tt.user)
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
