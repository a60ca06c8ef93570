package portalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/soulsirensomatics/portal/internal/models"
)

// Remote реализует Client поверх HTTP API портала.
type Remote struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewRemote создает новый HTTP-клиент портала.
func NewRemote(baseURL string) *Remote {
	return &Remote{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken подменяет bearer-токен последующих запросов.
func (c *Remote) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token возвращает текущий bearer-токен, пустая строка без сессии.
func (c *Remote) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Remote) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do выполняет запрос и раскладывает ответ: серверный конверт ошибки
// превращается в *APIError, успешное тело декодируется в out.
func (c *Remote) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return &APIError{Status: resp.StatusCode, Message: resp.Status}
		}
		return &APIError{Status: resp.StatusCode, Message: envelope.Error.Message}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Login выполняет вход и сохраняет полученный токен.
func (c *Remote) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, "", err
	}

	var resp struct {
		User  *models.User `json:"user"`
		Token string       `json:"token"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, "", err
	}
	c.SetToken(resp.Token)
	return resp.User, resp.Token, nil
}

// Register создает аккаунт и сохраняет полученный токен.
func (c *Remote) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/register", in)
	if err != nil {
		return nil, "", err
	}

	var resp struct {
		User  *models.User `json:"user"`
		Token string       `json:"token"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, "", err
	}
	c.SetToken(resp.Token)
	return resp.User, resp.Token, nil
}

// Me возвращает текущего пользователя.
func (c *Remote) Me(ctx context.Context) (*models.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		User *models.User `json:"user"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// UpdateProfile частично обновляет профиль.
func (c *Remote) UpdateProfile(ctx context.Context, in ProfileInput) (*models.User, error) {
	req, err := c.newRequest(ctx, http.MethodPut, "/api/auth/profile", in)
	if err != nil {
		return nil, err
	}
	var resp struct {
		User *models.User `json:"user"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// MyBookings возвращает записи текущего пользователя.
func (c *Remote) MyBookings(ctx context.Context) ([]*models.Booking, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/bookings/my", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Bookings []*models.Booking `json:"bookings"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Bookings, nil
}

// CreateBooking создает запись на сессию.
func (c *Remote) CreateBooking(ctx context.Context, in BookingInput) (*models.Booking, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/bookings", in)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Booking *models.Booking `json:"booking"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Booking, nil
}

// CancelBooking отменяет запись.
func (c *Remote) CancelBooking(ctx context.Context, id int) error {
	req, err := c.newRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/bookings/%d", id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// MyScans возвращает сканы текущего пользователя.
func (c *Remote) MyScans(ctx context.Context) ([]*models.Scan, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/scans/my", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Scans []*models.Scan `json:"scans"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Scans, nil
}

// MyMembership возвращает членство текущего пользователя либо nil.
func (c *Remote) MyMembership(ctx context.Context) (*models.Membership, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/memberships/my", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Membership *models.Membership `json:"membership"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Membership, nil
}

// JoinMembership оформляет членство на текущего пользователя.
func (c *Remote) JoinMembership(ctx context.Context, tier string) (*models.Membership, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/memberships", map[string]string{"tier": tier})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Membership *models.Membership `json:"membership"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Membership, nil
}
