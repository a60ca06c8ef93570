package create

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

	"github.com/soulsirensomatics/portal/internal/http/middlewarectx"
	"github.com/soulsirensomatics/portal/internal/models"
	bookingservice "github.com/soulsirensomatics/portal/internal/services/booking"
)

type BookingServiceMock struct {
	mock.Mock
}

func (m *BookingServiceMock) Create(ctx context.Context, in bookingservice.CreateInput) (*models.Booking, error) {
	args := m.Called(ctx, in)
	booking, _ := args.Get(0).(*models.Booking)
	return booking, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestCreateHandler_ServeHTTP(t *testing.T) {
	serviceMock := new(BookingServiceMock)
	handler := New(newNoopLogger(), serviceMock)

	user := &models.User{ID: 5, Email: "client@example.com", Role: models.RoleClient}

	tests := []struct {
		name           string
		requestBody    interface{}
		withUser       bool
		mockBooking    *models.Booking
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "valid booking",
			requestBody:    Request{ServiceType: "discovery-call", Date: "2026-09-15", Time: "14:30"},
			withUser:       true,
			mockBooking:    &models.Booking{ID: 1, UserID: 5, ServiceType: "discovery-call", Status: models.BookingStatusPending},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "missing fields",
			requestBody:    Request{ServiceType: "discovery-call"},
			withUser:       true,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Missing required fields: service_type, date, and time are required",
		},
		{
			name:           "unknown service type",
			requestBody:    Request{ServiceType: "tarot-reading", Date: "2026-09-15", Time: "14:30"},
			withUser:       true,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Invalid service_type. Must be one of: discovery-call, support-session, energetic-scan",
		},
		{
			name:           "no user in context",
			requestBody:    Request{ServiceType: "discovery-call", Date: "2026-09-15", Time: "14:30"},
			withUser:       false,
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "No token provided",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock.ExpectedCalls = nil
			serviceMock.Calls = nil

			if tt.mockBooking != nil {
				serviceMock.On("Create", mock.Anything, mock.AnythingOfType("services.CreateInput")).
					Return(tt.mockBooking, nil).Once()
			}

			bodyBytes, err := json.Marshal(tt.requestBody)
			if err != nil {
				t.Fatal(err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader(bodyBytes))
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			if tt.withUser {
				ctx = context.WithValue(ctx, middlewarectx.UserKey, user)
			}
			req = req.WithContext(ctx)
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
				assert.Equal(t, "Booking created successfully", got["message"])
				gotBooking, ok := got["booking"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, models.BookingStatusPending, gotBooking["status"])
			}

			serviceMock.AssertExpectations(t)
		})
	}
}
