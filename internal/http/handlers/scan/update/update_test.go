package update

import (
	"bytes"
	"context"
	"encoding/json"
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
	scanservice "github.com/soulsirensomatics/portal/internal/services/scan"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

// MockService реализует интерфейс update.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Update(ctx context.Context, id int, upd scanservice.UpdateInput) (*models.Scan, bool, error) {
	args := m.Called(ctx, id, upd)
	scan, _ := args.Get(0).(*models.Scan)
	return scan, args.Bool(1), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func strPtr(s string) *string { return &s }

func TestUpdateHandler(t *testing.T) {
	tests := []struct {
		name           string
		urlID          string
		requestBody    Request
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "completion queues notification",
			urlID:       "42",
			requestBody: Request{Status: strPtr(models.ScanStatusCompleted)},
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, 42, mock.AnythingOfType("services.UpdateInput")).
					Return(&models.Scan{ID: 42, Status: models.ScanStatusCompleted}, true, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"notification_queued":true`,
		},
		{
			name:        "plain update does not queue",
			urlID:       "42",
			requestBody: Request{Findings: strPtr("blocked root chakra")},
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, 42, mock.AnythingOfType("services.UpdateInput")).
					Return(&models.Scan{ID: 42, Status: models.ScanStatusPending}, false, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"notification_queued":false`,
		},
		{
			name:           "unknown status",
			urlID:          "42",
			requestBody:    Request{Status: strPtr("done")},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `Invalid status. Must be one of:`,
		},
		{
			name:        "scan not found",
			urlID:       "77",
			requestBody: Request{Status: strPtr(models.ScanStatusCompleted)},
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, 77, mock.AnythingOfType("services.UpdateInput")).
					Return(nil, false, repository.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `Scan not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService)

			bodyBytes, err := json.Marshal(tt.requestBody)
			if err != nil {
				t.Fatal(err)
			}

			req := httptest.NewRequest(http.MethodPut, "/api/scans/"+tt.urlID, bytes.NewReader(bodyBytes))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.urlID)
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
