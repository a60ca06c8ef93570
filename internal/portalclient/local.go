package portalclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/soulsirensomatics/portal/internal/models"
)

// Демо-аккаунт, доступный без регистрации.
const (
	demoEmail    = "client@test.com"
	demoPassword = "test123"
)

type localUser struct {
	User     models.User `json:"user"`
	Password string      `json:"password"`
}

type localState struct {
	NextID      int                        `json:"next_id"`
	Users       []localUser                `json:"users"`
	Bookings    map[int][]*models.Booking  `json:"bookings"`
	Memberships map[int]*models.Membership `json:"memberships"`
	Scans       map[int][]*models.Scan     `json:"scans"`
}

// Local реализует Client поверх JSON-файла на диске. Сетевых вызовов
// не делает и не может считаться источником истины при живом токене.
type Local struct {
	path string

	mu      sync.Mutex
	state   localState
	current *models.User
}

// NewLocal загружает демо-состояние из файла либо создает его заново
// с предустановленным демо-аккаунтом.
func NewLocal(path string) (*Local, error) {
	l := &Local{path: path}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Local) load() error {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		l.state = seedState()
		return l.save()
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &l.state); err != nil {
		// Битый файл переписывается начальным состоянием.
		l.state = seedState()
		return l.save()
	}
	return nil
}

func (l *Local) save() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(l.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0o600)
}

func seedState() localState {
	phone := "(555) 123-4567"
	tier := "seeker"
	demo := models.User{
		ID:             1,
		Email:          demoEmail,
		FirstName:      "Sarah",
		LastName:       "Mitchell",
		Phone:          &phone,
		Role:           models.RoleClient,
		MembershipTier: &tier,
		CreatedAt:      time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC),
	}
	return localState{
		NextID:   2,
		Users:    []localUser{{User: demo, Password: demoPassword}},
		Bookings: map[int][]*models.Booking{},
		Memberships: map[int]*models.Membership{
			demo.ID: {
				ID:        1,
				UserID:    demo.ID,
				Tier:      tier,
				Status:    models.MembershipStatusActive,
				StartDate: demo.CreatedAt,
			},
		},
		Scans: map[int][]*models.Scan{},
	}
}

func (l *Local) findUser(email string) *localUser {
	email = strings.ToLower(strings.TrimSpace(email))
	for i := range l.state.Users {
		if l.state.Users[i].User.Email == email {
			return &l.state.Users[i]
		}
	}
	return nil
}

func (l *Local) requireSession() (*models.User, error) {
	if l.current == nil {
		return nil, ErrNoSession
	}
	return l.current, nil
}

// Login проверяет учетные данные по локальному состоянию. Токен всегда
// пустой: демо-режим не выдает настоящих сессий.
func (l *Local) Login(_ context.Context, email, password string) (*models.User, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u := l.findUser(email)
	if u == nil || u.Password != password {
		return nil, "", &APIError{Status: http.StatusUnauthorized, Message: "Invalid email or password"}
	}
	user := u.User
	l.current = &user
	return &user, "", nil
}

// Register добавляет пользователя в локальное состояние и сразу
// открывает сессию.
func (l *Local) Register(_ context.Context, in RegisterInput) (*models.User, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if l.findUser(email) != nil {
		return nil, "", &APIError{Status: http.StatusBadRequest, Message: "User with this email already exists"}
	}

	user := models.User{
		ID:        l.state.NextID,
		Email:     email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Role:      models.RoleClient,
		CreatedAt: time.Now().UTC(),
	}
	l.state.NextID++
	l.state.Users = append(l.state.Users, localUser{User: user, Password: in.Password})
	if err := l.save(); err != nil {
		return nil, "", err
	}

	l.current = &user
	return &user, "", nil
}

// Me возвращает пользователя текущей локальной сессии.
func (l *Local) Me(_ context.Context) (*models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.requireSession()
}

// UpdateProfile меняет имя и телефон в локальном состоянии.
func (l *Local) UpdateProfile(_ context.Context, in ProfileInput) (*models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.requireSession()
	if err != nil {
		return nil, err
	}
	u := l.findUser(current.Email)
	if u == nil {
		return nil, ErrNoSession
	}

	if in.FirstName != nil {
		u.User.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.User.LastName = *in.LastName
	}
	if in.Phone != nil {
		u.User.Phone = in.Phone
	}
	u.User.UpdatedAt = time.Now().UTC()
	if err := l.save(); err != nil {
		return nil, err
	}

	user := u.User
	l.current = &user
	return &user, nil
}

// MyBookings возвращает локальные записи текущего пользователя.
func (l *Local) MyBookings(_ context.Context) ([]*models.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.requireSession()
	if err != nil {
		return nil, err
	}
	return l.state.Bookings[current.ID], nil
}

// CreateBooking добавляет запись в локальное состояние.
func (l *Local) CreateBooking(_ context.Context, in BookingInput) (*models.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.requireSession()
	if err != nil {
		return nil, err
	}

	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return nil, &APIError{Status: http.StatusBadRequest, Message: "Invalid date"}
	}

	booking := &models.Booking{
		ID:          l.state.NextID,
		UserID:      current.ID,
		ServiceType: in.ServiceType,
		Date:        date,
		Time:        in.Time,
		Duration:    60,
		Status:      models.BookingStatusPending,
		Notes:       in.Notes,
		CreatedAt:   time.Now().UTC(),
	}
	if in.Duration != nil {
		booking.Duration = *in.Duration
	}
	if in.Price != nil {
		booking.Price = *in.Price
	}
	l.state.NextID++
	l.state.Bookings[current.ID] = append(l.state.Bookings[current.ID], booking)
	if err := l.save(); err != nil {
		return nil, err
	}
	return booking, nil
}

// CancelBooking удаляет запись из локального состояния.
func (l *Local) CancelBooking(_ context.Context, id int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.requireSession()
	if err != nil {
		return err
	}

	bookings := l.state.Bookings[current.ID]
	for i, b := range bookings {
		if b.ID == id {
			l.state.Bookings[current.ID] = append(bookings[:i], bookings[i+1:]...)
			return l.save()
		}
	}
	return &APIError{Status: http.StatusNotFound, Message: "Booking not found"}
}

// MyScans возвращает локальные сканы текущего пользователя.
func (l *Local) MyScans(_ context.Context) ([]*models.Scan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.requireSession()
	if err != nil {
		return nil, err
	}
	return l.state.Scans[current.ID], nil
}

// MyMembership возвращает локальное членство текущего пользователя.
func (l *Local) MyMembership(_ context.Context) (*models.Membership, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.requireSession()
	if err != nil {
		return nil, err
	}
	return l.state.Memberships[current.ID], nil
}

// JoinMembership оформляет членство в локальном состоянии.
func (l *Local) JoinMembership(_ context.Context, tier string) (*models.Membership, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.requireSession()
	if err != nil {
		return nil, err
	}
	if existing := l.state.Memberships[current.ID]; existing != nil && existing.Status == models.MembershipStatusActive {
		return nil, &APIError{
			Status:  http.StatusBadRequest,
			Message: "User already has an active membership. Update or cancel the existing one first.",
		}
	}

	membership := &models.Membership{
		ID:        l.state.NextID,
		UserID:    current.ID,
		Tier:      tier,
		Status:    models.MembershipStatusActive,
		StartDate: time.Now().UTC(),
	}
	l.state.NextID++
	l.state.Memberships[current.ID] = membership

	if u := l.findUser(current.Email); u != nil {
		u.User.MembershipTier = &membership.Tier
	}
	if err := l.save(); err != nil {
		return nil, err
	}
	return membership, nil
}

// Logout закрывает локальную сессию.
func (l *Local) Logout() {
	l.mu.Lock()
	l.current = nil
	l.mu.Unlock()
}
