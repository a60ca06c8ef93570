package portalclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulsirensomatics/portal/internal/models"
)

func TestRemoteLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body["password"] != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"message": "Invalid email or password"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"user":  &models.User{ID: 5, Email: body["email"], Role: models.RoleClient},
			"token": "jwt-token",
		})
	}))
	defer srv.Close()

	client := NewRemote(srv.URL)

	user, token, err := client.Login(context.Background(), "anna@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, 5, user.ID)
	assert.Equal(t, "jwt-token", token)
	assert.Equal(t, "jwt-token", client.Token())

	_, _, err = client.Login(context.Background(), "anna@example.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid email or password", apiErr.Message)
}

func TestRemoteSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"user": &models.User{ID: 5, Email: "anna@example.com"},
		})
	}))
	defer srv.Close()

	client := NewRemote(srv.URL)
	client.SetToken("jwt-token")

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer jwt-token", gotAuth)
	assert.Equal(t, 5, user.ID)
}

func TestRemoteCancelBooking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/bookings/12", r.URL.Path)

		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "Booking not found"},
		})
	}))
	defer srv.Close()

	client := NewRemote(srv.URL)

	err := client.CancelBooking(context.Background(), 12)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Booking not found", apiErr.Message)
}

func TestRemoteMyMembershipNull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/memberships/my", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"membership": nil})
	}))
	defer srv.Close()

	client := NewRemote(srv.URL)

	membership, err := client.MyMembership(context.Background())
	require.NoError(t, err)
	assert.Nil(t, membership)
}

func TestRemoteJoinMembership(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/memberships", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "siren", body["tier"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"membership": &models.Membership{ID: 3, UserID: 5, Tier: "siren", Status: models.MembershipStatusActive},
			"message":    "Membership created successfully",
		})
	}))
	defer srv.Close()

	client := NewRemote(srv.URL)

	membership, err := client.JoinMembership(context.Background(), "siren")
	require.NoError(t, err)
	assert.Equal(t, "siren", membership.Tier)
	assert.Equal(t, models.MembershipStatusActive, membership.Status)
}
