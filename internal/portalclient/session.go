package portalclient

import (
	"context"
	"errors"
	"sync"

	"github.com/soulsirensomatics/portal/internal/models"
)

// Session держит состояние авторизации и выбирает активную реализацию
// Client: Remote при живом токене, Local в демо-режиме. Локальное
// состояние никогда не перекрывает живой токен.
type Session struct {
	remote *Remote
	local  *Local

	mu   sync.RWMutex
	user *models.User
	demo bool
}

// NewSession собирает сессию поверх готовых реализаций. Local может быть
// nil, тогда запасного демо-режима нет.
func NewSession(remote *Remote, local *Local) *Session {
	return &Session{remote: remote, local: local}
}

// Client возвращает активную реализацию.
func (s *Session) Client() Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeLocked()
}

func (s *Session) activeLocked() Client {
	if s.demo && s.local != nil {
		return s.local
	}
	return s.remote
}

// Demo сообщает, работает ли сессия в демо-режиме.
func (s *Session) Demo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.demo
}

// CurrentUser возвращает пользователя текущей сессии либо nil.
func (s *Session) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Login сначала идет на сервер. Ответ сервера, включая отказ в доступе,
// считается окончательным. Падение транспорта переключает сессию в
// демо-режим, если он настроен.
func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, _, err := s.remote.Login(ctx, email, password)
	if err == nil {
		s.mu.Lock()
		s.user = user
		s.demo = false
		s.mu.Unlock()
		return user, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) || s.local == nil {
		return nil, err
	}

	user, _, lerr := s.local.Login(ctx, email, password)
	if lerr != nil {
		return nil, lerr
	}
	s.mu.Lock()
	s.user = user
	s.demo = true
	s.mu.Unlock()
	return user, nil
}

// Logout сбрасывает токен и локальную сессию.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remote.SetToken("")
	if s.local != nil {
		s.local.Logout()
	}
	s.user = nil
	s.demo = false
}

// Refresh перечитывает профиль через активную реализацию. Ответ
// ErrUnauthorized или 401 завершает сессию.
func (s *Session) Refresh(ctx context.Context) (*models.User, error) {
	s.mu.RLock()
	client := s.activeLocked()
	s.mu.RUnlock()

	user, err := client.Me(ctx)
	if err != nil {
		var apiErr *APIError
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNoSession) ||
			(errors.As(err, &apiErr) && apiErr.Status == 401) {
			s.Logout()
		}
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return user, nil
}
