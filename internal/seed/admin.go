package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"musiccatalog/m/domain"
	"musiccatalog/m/internal/auth"
	"musiccatalog/m/internal/repository"
)

// EnsureAdmin creates the administrator account when no user with username
// exists. This is a demo convenience, not a provisioning mechanism: the
// credentials come from configuration and should be changed from their
// defaults outside local development.
func EnsureAdmin(ctx context.Context, users repository.UserRepository, username, password string, logger *slog.Logger) (bool, error) {
	if username == "" || password == "" {
		return false, fmt.Errorf("seed admin: username and password are required")
	}

	_, err := users.FindByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("seed admin: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	if err := users.Create(ctx, &domain.User{Username: username, PasswordHash: hash}); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("seed admin: %w", err)
	}

	logger.Warn("created seed admin account from configured credentials", "username", username)
	return true, nil
}
