package portalclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulsirensomatics/portal/internal/models"
)

func TestSessionRemoteLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"user":  &models.User{ID: 5, Email: "anna@example.com"},
			"token": "jwt-token",
		})
	}))
	defer srv.Close()

	session := NewSession(NewRemote(srv.URL), newTestLocal(t))

	user, err := session.Login(context.Background(), "anna@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, 5, user.ID)
	assert.False(t, session.Demo())
	assert.Equal(t, 5, session.CurrentUser().ID)
}

func TestSessionServerRejectionIsFinal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "Invalid email or password"},
		})
	}))
	defer srv.Close()

	session := NewSession(NewRemote(srv.URL), newTestLocal(t))

	// Отказ сервера не переключает в демо-режим, даже если локальные
	// учетные данные подошли бы.
	_, err := session.Login(context.Background(), demoEmail, demoPassword)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.False(t, session.Demo())
	assert.Nil(t, session.CurrentUser())
}

func TestSessionFallsBackToDemoOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // сервер недоступен

	session := NewSession(NewRemote(srv.URL), newTestLocal(t))

	user, err := session.Login(context.Background(), demoEmail, demoPassword)
	require.NoError(t, err)
	assert.True(t, session.Demo())
	assert.Equal(t, "Sarah", user.FirstName)

	// Активная реализация теперь локальная, мутации не ходят в сеть.
	booking, err := session.Client().CreateBooking(context.Background(), BookingInput{
		ServiceType: "discovery-call",
		Date:        "2026-09-10",
		Time:        "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", booking.Status)
}

func TestSessionFallbackRequiresDemoCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	session := NewSession(NewRemote(srv.URL), newTestLocal(t))

	_, err := session.Login(context.Background(), "stranger@example.com", "whatever")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.False(t, session.Demo())
}

func TestSessionRefreshLogsOutOnUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/login" {
			json.NewEncoder(w).Encode(map[string]any{
				"user":  &models.User{ID: 5, Email: "anna@example.com"},
				"token": "jwt-token",
			})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "Token expired"},
		})
	}))
	defer srv.Close()

	remote := NewRemote(srv.URL)
	session := NewSession(remote, nil)

	_, err := session.Login(context.Background(), "anna@example.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, "jwt-token", remote.Token())

	_, err = session.Refresh(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Nil(t, session.CurrentUser())
	assert.Empty(t, remote.Token())
}

func TestSessionLogoutClearsState(t *testing.T) {
	local, err := NewLocal(filepath.Join(t.TempDir(), "demo.json"))
	require.NoError(t, err)

	remote := NewRemote("http://127.0.0.1:0")
	remote.SetToken("jwt-token")

	session := NewSession(remote, local)
	session.Logout()

	assert.Empty(t, remote.Token())
	assert.Nil(t, session.CurrentUser())
	assert.False(t, session.Demo())
}
