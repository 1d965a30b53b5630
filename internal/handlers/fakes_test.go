package handlers

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"accounthub/api/internal/models"
	"accounthub/api/internal/repository"
)

// In-memory stores implementing the service contracts, so handler tests
// run the real router without Postgres.

type fakeUserStore struct {
	mu         sync.Mutex
	users      map[string]models.User
	failDelete bool
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) UpdateProfile(_ context.Context, user models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	for id, existing := range f.users {
		if id != user.ID && existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	user.Avatar = stored.Avatar
	user.CreatedAt = stored.CreatedAt
	user.UpdatedAt = time.Now()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete {
		return errors.New("delete rejected")
	}
	if _, ok := f.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserStore) SetAvatar(_ context.Context, id string, avatar []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Avatar = avatar
	f.users[id] = user
	return nil
}

func (f *fakeUserStore) ClearAvatar(ctx context.Context, id string) error {
	return f.SetAvatar(ctx, id, nil)
}

func (f *fakeUserStore) GetAvatar(_ context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user.Avatar, nil
}

type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string][]models.SessionToken
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string][]models.SessionToken)}
}

func (f *fakeTokenStore) Append(_ context.Context, token models.SessionToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token.UserID] = append(f.tokens[token.UserID], token)
	return nil
}

func (f *fakeTokenStore) Exists(_ context.Context, userID string, tokenHash []byte) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, token := range f.tokens[userID] {
		if bytes.Equal(token.TokenHash, tokenHash) && token.ExpiresAt.After(time.Now()) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTokenStore) Remove(_ context.Context, userID string, tokenHash []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.tokens[userID][:0]
	removed := false
	for _, token := range f.tokens[userID] {
		if bytes.Equal(token.TokenHash, tokenHash) {
			removed = true
			continue
		}
		kept = append(kept, token)
	}
	f.tokens[userID] = kept
	if !removed {
		return repository.ErrTokenNotFound
	}
	return nil
}

func (f *fakeTokenStore) Clear(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, userID)
	return nil
}

func (f *fakeTokenStore) count(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens[userID])
}
