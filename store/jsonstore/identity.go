package jsonstore

import (
	"context"
	"strconv"
	"strings"
	"time"

	"pulse/models"
)

// Register allocates the next user id and persists the record under
// the same lock acquisition, enforcing case-sensitive uniqueness.
func (s *Store) Register(_ context.Context, username, passwordHash string) (*models.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, models.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	for _, u := range doc.Users {
		if u.Username == username {
			return nil, models.ErrDuplicateUsername
		}
	}

	rec := &userRecord{
		ID:           doc.nextID(idKeyUser),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	doc.Users[strconv.FormatUint(uint64(rec.ID), 10)] = rec

	if err := s.save(doc); err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

// FindByUsername looks a user up by exact username.
func (s *Store) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	for _, u := range doc.Users {
		if u.Username == username {
			return u.toModel(), nil
		}
	}
	return nil, models.ErrNotFound
}

// FindByID looks a user up by id.
func (s *Store) FindByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	if u, ok := doc.Users[strconv.FormatUint(uint64(id), 10)]; ok {
		return u.toModel(), nil
	}
	return nil, models.ErrNotFound
}

func (u *userRecord) toModel() *models.User {
	return &models.User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}
