// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryRepository is an in-process [Repository] used by tests and local tooling.
type MemoryRepository struct {
	mu       sync.RWMutex
	users    map[string]User
	sessions map[string]Session

	// FailWith, when set, is returned by every read.
	FailWith error
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: map[string]User{}, sessions: map[string]Session{}}
}

// PutUser stores or replaces a user.
func (repository *MemoryRepository) PutUser(user User) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.users[user.ID] = user
}

// PutSession stores or replaces a session.
func (repository *MemoryRepository) PutSession(session Session) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.sessions[session.ID] = session
}

// Session returns the stored session by id.
func (repository *MemoryRepository) Session(sessionID string) (Session, bool) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()
	session, ok := repository.sessions[sessionID]
	return session, ok
}

// Sessions returns every stored session in no particular order.
func (repository *MemoryRepository) Sessions() []Session {
	repository.mu.RLock()
	defer repository.mu.RUnlock()
	return slices.Collect(maps.Values(repository.sessions))
}

func (repository *MemoryRepository) FindUserByEmail(_ context.Context, email string) (*User, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	if repository.FailWith != nil {
		return nil, repository.FailWith
	}
	for _, user := range repository.users {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (repository *MemoryRepository) FindSession(_ context.Context, sessionID string) (*SessionRecord, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	if repository.FailWith != nil {
		return nil, repository.FailWith
	}
	session, ok := repository.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	user, ok := repository.users[session.UserID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &SessionRecord{Session: session, User: user}, nil
}

func (repository *MemoryRepository) TouchActivity(_ context.Context, sessionID string, at time.Time) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	session, ok := repository.sessions[sessionID]
	if !ok || session.Status != SessionActive {
		return nil
	}
	session.LastActivityAt = at
	repository.sessions[sessionID] = session
	return nil
}

func (repository *MemoryRepository) CreateSession(_ context.Context, session *Session) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, exists := repository.sessions[session.ID]; exists {
		return errors.New("memory_account_repo_duplicate_session")
	}
	repository.sessions[session.ID] = *session
	return nil
}

func (repository *MemoryRepository) RevokeSession(_ context.Context, sessionID string, _ time.Time) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	session, ok := repository.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	session.Status = SessionRevoked
	repository.sessions[sessionID] = session
	return nil
}
