package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"ballotbox/contexts/identity-access/account-service/domain/entities"
	domainerrors "ballotbox/contexts/identity-access/account-service/domain/errors"

	"github.com/google/uuid"
)

type Store struct {
	mu      sync.RWMutex
	users   map[string]entities.User
	byEmail map[string]string
}

func NewStore(seed []entities.User) *Store {
	store := &Store{
		users:   make(map[string]entities.User, len(seed)),
		byEmail: make(map[string]string, len(seed)),
	}
	for _, user := range seed {
		user.Email = entities.NormalizeEmail(user.Email)
		store.users[user.UserID] = user
		store.byEmail[user.Email] = user.UserID
	}
	return store
}

func (s *Store) CreateUser(_ context.Context, user entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := entities.NormalizeEmail(user.Email)
	if _, exists := s.byEmail[email]; exists {
		return domainerrors.ErrEmailTaken
	}
	user.Email = email
	s.users[user.UserID] = user
	s.byEmail[email] = user.UserID
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[strings.TrimSpace(userID)]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[entities.NormalizeEmail(email)]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return s.users[userID], nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
