package services

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/soulsirensomatics/portal/internal/lib/smtp"
	"github.com/soulsirensomatics/portal/internal/models"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

type MockSMTPWriter struct {
	mock.Mock
}

func (m *MockSMTPWriter) Write(p []byte) (n int, err error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func scanReadyBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(models.ScanReadyEvent{
		ScanID:    3,
		Email:     "client@example.com",
		FirstName: "Ann",
		ScanDate:  time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return body
}

func TestSendScanReady(t *testing.T) {
	writer := new(MockSMTPWriter)
	writer.On("Write", mock.MatchedBy(func(p []byte) bool {
		msg := string(p)
		return strings.Contains(msg, "To: client@example.com") &&
			strings.Contains(msg, "Your Energetic Scan Results Are Ready") &&
			strings.Contains(msg, "Dear Ann") &&
			strings.Contains(msg, "Monday, June 2, 2025") &&
			strings.Contains(msg, "https://soulsirensomatics.com/portal/scans")
	})).Return(100, nil).Once()
	writer.On("Close").Return(nil).Once()

	client := new(MockSMTPClient)
	client.On("Mail", "portal@soulsirensomatics.com").Return(nil).Once()
	client.On("Rcpt", "client@example.com").Return(nil).Once()
	client.On("Data").Return(writer, nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()

	transport := new(MockTransport)
	transport.On("Connect").Return(client, nil).Once()
	transport.On("GetSMTPUser").Return("portal@soulsirensomatics.com")

	svc := NewSenderService(transport, "https://soulsirensomatics.com", slog.New(slog.DiscardHandler))

	err := svc.SendScanReady(scanReadyBody(t))
	require.NoError(t, err)
	writer.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestSendScanReady_ConnectError(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Connect").Return(nil, errors.New("dial failed")).Once()
	transport.On("GetSMTPUser").Return("portal@soulsirensomatics.com")

	svc := NewSenderService(transport, "https://soulsirensomatics.com", slog.New(slog.DiscardHandler))

	err := svc.SendScanReady(scanReadyBody(t))
	assert.Error(t, err)
}

func TestSendScanReady_BadPayload(t *testing.T) {
	transport := new(MockTransport)
	svc := NewSenderService(transport, "https://soulsirensomatics.com", slog.New(slog.DiscardHandler))

	err := svc.SendScanReady([]byte("not-json"))
	assert.Error(t, err)
}
