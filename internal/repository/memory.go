package repository

import (
	"context"
	"fmt"
	"sync"

	"musiccatalog/m/domain"
)

// MemoryAlbumRepository is an AlbumRepository kept in a map, for tests.
type MemoryAlbumRepository struct {
	mu     sync.Mutex
	nextID int64
	albums map[int64]domain.Album
}

func NewMemoryAlbumRepository() *MemoryAlbumRepository {
	return &MemoryAlbumRepository{albums: make(map[int64]domain.Album)}
}

func (r *MemoryAlbumRepository) FindAll(ctx context.Context) ([]domain.Album, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Album, 0, len(r.albums))
	for id := int64(1); id <= r.nextID; id++ {
		if a, ok := r.albums[id]; ok {
			out = append(out, cloneAlbum(a))
		}
	}
	return out, nil
}

func (r *MemoryAlbumRepository) FindByID(ctx context.Context, id int64) (domain.Album, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.albums[id]
	if !ok {
		return domain.Album{}, ErrNotFound
	}
	return cloneAlbum(a), nil
}

func (r *MemoryAlbumRepository) Save(ctx context.Context, album *domain.Album) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if album.ID == 0 {
		r.nextID++
		album.ID = r.nextID
	} else if _, ok := r.albums[album.ID]; !ok {
		return ErrNotFound
	}
	r.albums[album.ID] = cloneAlbum(*album)
	return nil
}

func (r *MemoryAlbumRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.albums[id]; !ok {
		return ErrNotFound
	}
	delete(r.albums, id)
	return nil
}

func cloneAlbum(a domain.Album) domain.Album {
	if a.ImageURL != nil {
		url := *a.ImageURL
		a.ImageURL = &url
	}
	return a
}

// MemoryUserRepository is a UserRepository kept in a map, for tests.
type MemoryUserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]domain.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[int64]domain.User)}
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id int64) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, ErrNotFound
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return fmt.Errorf("create user %q: %w", user.Username, ErrDuplicate)
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = *user
	return nil
}
