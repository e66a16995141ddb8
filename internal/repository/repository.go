// Package repository persists users and albums.
//
// Callers depend on the AlbumRepository and UserRepository interfaces; the
// sqlx-backed implementations run against SQLite or PostgreSQL and the
// in-memory ones back unit tests.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"musiccatalog/m/domain"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

type AlbumRepository interface {
	FindAll(ctx context.Context) ([]domain.Album, error)
	FindByID(ctx context.Context, id int64) (domain.Album, error)
	// Save inserts the album when ID is zero and assigns the new ID,
	// otherwise it overwrites every column of the existing row.
	Save(ctx context.Context, album *domain.Album) error
	Delete(ctx context.Context, id int64) error
}

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (domain.User, error)
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}

// isUniqueViolation reports whether err is a unique constraint failure from
// either supported driver.
func isUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
