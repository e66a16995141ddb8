// Package catalog implements the album catalog operations: public reads and
// write operations reserved for a signed-in administrator.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"musiccatalog/m/domain"
	"musiccatalog/m/internal/auth"
	"musiccatalog/m/internal/repository"
)

var (
	ErrNotFound        = repository.ErrNotFound
	ErrInvalidYear     = errors.New("year must be a whole number")
	ErrUnauthenticated = errors.New("authentication required")
)

// Fields are the caller-supplied album values. Year is kept as submitted and
// parsed on write. A nil ImageURL is stored as NULL.
type Fields struct {
	Title       string
	Year        string
	Description string
	Tracklist   string
	ImageURL    *string
}

// FieldsFromForm reads the album form. Missing text fields become "", a
// missing image_url stays nil.
func FieldsFromForm(form url.Values) Fields {
	f := Fields{
		Title:       form.Get("title"),
		Year:        form.Get("year"),
		Description: form.Get("description"),
		Tracklist:   form.Get("tracklist"),
	}
	if form.Has("image_url") {
		v := form.Get("image_url")
		f.ImageURL = &v
	}
	return f
}

// FieldsFromAlbum is used to prefill the edit form.
func FieldsFromAlbum(a domain.Album) Fields {
	return Fields{
		Title:       a.Title,
		Year:        strconv.Itoa(a.Year),
		Description: a.Description,
		Tracklist:   a.Tracklist,
		ImageURL:    a.ImageURL,
	}
}

// Image returns the submitted image URL or "".
func (f Fields) Image() string {
	if f.ImageURL == nil {
		return ""
	}
	return *f.ImageURL
}

func (f Fields) album(id int64) (domain.Album, error) {
	year, err := strconv.Atoi(strings.TrimSpace(f.Year))
	if err != nil {
		return domain.Album{}, ErrInvalidYear
	}
	return domain.Album{
		ID:          id,
		Title:       f.Title,
		Year:        year,
		Description: f.Description,
		Tracklist:   f.Tracklist,
		ImageURL:    f.ImageURL,
	}, nil
}

// AlbumDetail is an album together with its tracklist split into rows.
type AlbumDetail struct {
	Album  domain.Album
	Tracks []string
}

type Service struct {
	albums repository.AlbumRepository
}

func NewService(albums repository.AlbumRepository) *Service {
	return &Service{albums: albums}
}

func (s *Service) ListAlbums(ctx context.Context) ([]domain.Album, error) {
	return s.albums.FindAll(ctx)
}

func (s *Service) GetAlbum(ctx context.Context, id int64) (AlbumDetail, error) {
	album, err := s.albums.FindByID(ctx, id)
	if err != nil {
		return AlbumDetail{}, err
	}
	return AlbumDetail{Album: album, Tracks: album.Tracks()}, nil
}

func (s *Service) CreateAlbum(ctx context.Context, f Fields) (int64, error) {
	if err := requireUser(ctx); err != nil {
		return 0, err
	}
	album, err := f.album(0)
	if err != nil {
		return 0, err
	}
	if err := s.albums.Save(ctx, &album); err != nil {
		return 0, err
	}
	return album.ID, nil
}

// UpdateAlbum overwrites all fields of album id. There is no merge with the
// stored values and no concurrency check: the last writer wins.
func (s *Service) UpdateAlbum(ctx context.Context, id int64, f Fields) error {
	if err := requireUser(ctx); err != nil {
		return err
	}
	if _, err := s.albums.FindByID(ctx, id); err != nil {
		return err
	}
	album, err := f.album(id)
	if err != nil {
		return err
	}
	return s.albums.Save(ctx, &album)
}

func (s *Service) DeleteAlbum(ctx context.Context, id int64) error {
	if err := requireUser(ctx); err != nil {
		return err
	}
	return s.albums.Delete(ctx, id)
}

func requireUser(ctx context.Context) error {
	if _, ok := auth.UserFromContext(ctx); !ok {
		return fmt.Errorf("modify catalog: %w", ErrUnauthenticated)
	}
	return nil
}
