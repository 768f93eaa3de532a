package inmemory

import (
	"log/slog"
	"sync"

	"github.com/bookmyseva/darshan/internal/repository/live"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// repo keeps the live overlay sessions of this process by session id.
type repo[T any] struct {
	sessions map[string]T
	mu       sync.RWMutex
}

func NewRepo[T any]() *repo[T] {
	return &repo[T]{
		sessions: make(map[string]T),
	}
}

func (r *repo[T]) Add(sessionID string, session T) error {
	funcName := "live.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "sessionID", sessionID)
	if _, ok := r.sessions[sessionID]; ok {
		slog.Info(funcName, "error", live.ErrAlreadyExists)
		return live.ErrAlreadyExists
	}

	r.sessions[sessionID] = session

	slog.Debug(funcName, "result", "OK")
	return nil
}

func (r *repo[T]) Remove(sessionID string) (T, error) {
	funcName := "live.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "sessionID", sessionID)
	session, ok := r.sessions[sessionID]
	if !ok {
		slog.Info(funcName, "error", live.ErrNotFound)
		return session, live.ErrNotFound
	}

	delete(r.sessions, sessionID)

	slog.Debug(funcName, "result", "OK")
	return session, nil
}

func (r *repo[T]) Get(sessionID string) (T, error) {
	funcName := "live.inmemory.Get"
	r.mu.RLock()
	defer r.mu.RUnlock()

	slog.Debug(funcName, "sessionID", sessionID)
	session, ok := r.sessions[sessionID]
	if !ok {
		slog.Info(funcName, "error", live.ErrNotFound)
		return session, live.ErrNotFound
	}

	return session, nil
}

// IDs returns the live session ids in sorted order.
func (r *repo[T]) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := maps.Keys(r.sessions)
	slices.Sort(ids)
	return ids
}

// Drain removes and returns every live session.
func (r *repo[T]) Drain() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := maps.Values(r.sessions)
	maps.Clear(r.sessions)
	return sessions
}
