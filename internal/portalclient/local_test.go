package portalclient

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()

	local, err := NewLocal(filepath.Join(t.TempDir(), "portal-demo.json"))
	require.NoError(t, err)
	return local
}

func TestLocalDemoLogin(t *testing.T) {
	local := newTestLocal(t)

	user, token, err := local.Login(context.Background(), demoEmail, demoPassword)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Equal(t, "Sarah", user.FirstName)
	require.NotNil(t, user.MembershipTier)
	assert.Equal(t, "seeker", *user.MembershipTier)

	_, _, err = local.Login(context.Background(), demoEmail, "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid email or password", apiErr.Message)
}

func TestLocalRegister(t *testing.T) {
	local := newTestLocal(t)

	user, _, err := local.Register(context.Background(), RegisterInput{
		Email:     "Anna@Example.com",
		Password:  "secret123",
		FirstName: "Anna",
		LastName:  "Petrova",
	})
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", user.Email)

	// Регистрация сразу открывает сессию.
	me, err := local.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)

	_, _, err = local.Register(context.Background(), RegisterInput{
		Email:    "anna@example.com",
		Password: "another",
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "User with this email already exists", apiErr.Message)
}

func TestLocalBookingLifecycle(t *testing.T) {
	local := newTestLocal(t)

	_, _, err := local.Login(context.Background(), demoEmail, demoPassword)
	require.NoError(t, err)

	booking, err := local.CreateBooking(context.Background(), BookingInput{
		ServiceType: "energetic-scan",
		Date:        "2026-09-10",
		Time:        "14:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", booking.Status)
	assert.Equal(t, 60, booking.Duration)

	bookings, err := local.MyBookings(context.Background())
	require.NoError(t, err)
	require.Len(t, bookings, 1)

	require.NoError(t, local.CancelBooking(context.Background(), booking.ID))

	bookings, err = local.MyBookings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, bookings)

	err = local.CancelBooking(context.Background(), booking.ID)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestLocalJoinMembershipRejectsActive(t *testing.T) {
	local := newTestLocal(t)

	_, _, err := local.Login(context.Background(), demoEmail, demoPassword)
	require.NoError(t, err)

	// У демо-аккаунта уже есть активное членство.
	_, err = local.JoinMembership(context.Background(), "siren")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "User already has an active membership. Update or cancel the existing one first.", apiErr.Message)
}

func TestLocalRequiresSession(t *testing.T) {
	local := newTestLocal(t)

	_, err := local.Me(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	_, _, err = local.Login(context.Background(), demoEmail, demoPassword)
	require.NoError(t, err)

	local.Logout()

	_, err = local.MyBookings(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLocalStatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal-demo.json")

	local, err := NewLocal(path)
	require.NoError(t, err)

	_, _, err = local.Register(context.Background(), RegisterInput{
		Email:     "anna@example.com",
		Password:  "secret123",
		FirstName: "Anna",
	})
	require.NoError(t, err)

	reopened, err := NewLocal(path)
	require.NoError(t, err)

	user, _, err := reopened.Login(context.Background(), "anna@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "Anna", user.FirstName)
}
