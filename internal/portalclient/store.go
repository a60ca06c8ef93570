package portalclient

import (
	"context"
	"sync"
)

// StoreState состояние контейнера списка.
type StoreState int

const (
	StoreIdle StoreState = iota
	StoreLoading
	StoreReady
	StoreError
)

// Store держит список ресурсов одной страницы и повторяет контракт
// клиентского слоя: загрузка со статусами loading/error/retry,
// оптимистичные мутации с откатом при отказе сервера и сверка с
// сервером повторной загрузкой. Отмены запросов нет: побеждает
// последний пришедший ответ, независимо от порядка отправки.
type Store[T any] struct {
	fetch func(ctx context.Context) ([]T, error)

	mu    sync.Mutex
	state StoreState
	items []T
	err   error
}

// NewStore создает контейнер вокруг функции чтения списка.
func NewStore[T any](fetch func(ctx context.Context) ([]T, error)) *Store[T] {
	return &Store[T]{fetch: fetch}
}

// Snapshot возвращает текущие элементы, состояние и последнюю ошибку.
func (s *Store[T]) Snapshot() ([]T, StoreState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]T, len(s.items))
	copy(items, s.items)
	return items, s.state, s.err
}

// Load читает список заново. Повторный вызов после ошибки и есть retry.
func (s *Store[T]) Load(ctx context.Context) error {
	s.mu.Lock()
	s.state = StoreLoading
	s.mu.Unlock()

	items, err := s.fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StoreError
		s.err = err
		return err
	}
	s.state = StoreReady
	s.items = items
	s.err = nil
	return nil
}

// Mutate применяет оптимистичную правку: сначала список меняется
// локально, затем вызывается commit. Отказ сервера откатывает список
// к снимку до правки.
func (s *Store[T]) Mutate(ctx context.Context, patch func([]T) []T, commit func(ctx context.Context) error) error {
	s.mu.Lock()
	before := make([]T, len(s.items))
	copy(before, s.items)
	s.items = patch(s.items)
	s.mu.Unlock()

	if err := commit(ctx); err != nil {
		s.mu.Lock()
		s.items = before
		s.mu.Unlock()
		return err
	}
	return nil
}

// Reconcile сверяет локальный список с сервером после мутации.
func (s *Store[T]) Reconcile(ctx context.Context) error {
	return s.Load(ctx)
}
