package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"musiccatalog/m/domain"
	"musiccatalog/m/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Service verifies login credentials against stored bcrypt hashes.
type Service struct {
	users repository.UserRepository

	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(users repository.UserRepository) *Service {
	return &Service{users: users}
}

// Authenticate returns the user for a matching username and password. Unknown
// users and wrong passwords both yield ErrInvalidCredentials, and both pay
// for one bcrypt comparison.
func (s *Service) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("authenticate: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	return s.dummyHash
}

// HashPassword returns a salted bcrypt hash suitable for domain.User.PasswordHash.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}
