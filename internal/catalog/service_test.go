package catalog

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musiccatalog/m/domain"
	"musiccatalog/m/internal/auth"
	"musiccatalog/m/internal/repository"
)

func adminCtx() context.Context {
	return auth.WithUser(context.Background(), domain.User{ID: 1, Username: "admin"})
}

func strPtr(s string) *string { return &s }

func TestCreateAndGet(t *testing.T) {
	svc := NewService(repository.NewMemoryAlbumRepository())
	ctx := adminCtx()

	id, err := svc.CreateAlbum(ctx, Fields{Title: "X", Year: "1999", Description: "d", Tracklist: "a\nb", ImageURL: strPtr("")})
	require.NoError(t, err)
	require.NotZero(t, id)

	all, err := svc.ListAlbums(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.Album{ID: id, Title: "X", Year: 1999, Description: "d", Tracklist: "a\nb", ImageURL: strPtr("")}, all[0])

	detail, err := svc.GetAlbum(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, detail.Tracks)
}

func TestGetAlbum_LiteralSplit(t *testing.T) {
	svc := NewService(repository.NewMemoryAlbumRepository())
	id, err := svc.CreateAlbum(adminCtx(), Fields{Title: "t", Year: "2000", Tracklist: "a\n\nb"})
	require.NoError(t, err)

	detail, err := svc.GetAlbum(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "", "b"}, detail.Tracks)
}

func TestUpdate_FullOverwrite(t *testing.T) {
	svc := NewService(repository.NewMemoryAlbumRepository())
	ctx := adminCtx()
	id, err := svc.CreateAlbum(ctx, Fields{Title: "old", Year: "1990", Description: "old d", Tracklist: "x", ImageURL: strPtr("http://img")})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateAlbum(ctx, id, Fields{Title: "new", Year: "2020"}))

	detail, err := svc.GetAlbum(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.Album{ID: id, Title: "new", Year: 2020}, detail.Album, "omitted fields are cleared, not merged")
}

func TestDelete(t *testing.T) {
	svc := NewService(repository.NewMemoryAlbumRepository())
	ctx := adminCtx()
	keep, err := svc.CreateAlbum(ctx, Fields{Title: "keep", Year: "1"})
	require.NoError(t, err)
	gone, err := svc.CreateAlbum(ctx, Fields{Title: "gone", Year: "2"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAlbum(ctx, gone))

	_, err = svc.GetAlbum(ctx, gone)
	assert.ErrorIs(t, err, ErrNotFound)
	all, err := svc.ListAlbums(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep, all[0].ID)
}

func TestMissingIDs(t *testing.T) {
	svc := NewService(repository.NewMemoryAlbumRepository())
	ctx := adminCtx()

	for _, id := range []int64{0, 1, 99} {
		_, err := svc.GetAlbum(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, svc.UpdateAlbum(ctx, id, Fields{Title: "t", Year: "1"}), ErrNotFound)
		assert.ErrorIs(t, svc.DeleteAlbum(ctx, id), ErrNotFound)
	}
}

func TestUpdate_NotFoundBeforeValidation(t *testing.T) {
	svc := NewService(repository.NewMemoryAlbumRepository())

	err := svc.UpdateAlbum(adminCtx(), 5, Fields{Year: "abc"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvalidYear(t *testing.T) {
	svc := NewService(repository.NewMemoryAlbumRepository())
	ctx := adminCtx()

	for _, year := range []string{"", "abc", "19.5", "1999a"} {
		_, err := svc.CreateAlbum(ctx, Fields{Title: "t", Year: year})
		assert.ErrorIs(t, err, ErrInvalidYear, "year %q", year)
	}

	all, err := svc.ListAlbums(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestYearHasNoRangeCheck(t *testing.T) {
	svc := NewService(repository.NewMemoryAlbumRepository())
	ctx := adminCtx()

	for _, year := range []string{"-5", "0", " 99999 "} {
		_, err := svc.CreateAlbum(ctx, Fields{Title: "t", Year: year})
		assert.NoError(t, err, "year %q", year)
	}
}

func TestWritesRequireUser(t *testing.T) {
	repo := repository.NewMemoryAlbumRepository()
	svc := NewService(repo)
	anon := context.Background()

	_, err := svc.CreateAlbum(anon, Fields{Title: "t", Year: "1"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	id, err := svc.CreateAlbum(adminCtx(), Fields{Title: "t", Year: "1"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UpdateAlbum(anon, id, Fields{Title: "x", Year: "2"}), ErrUnauthenticated)
	assert.ErrorIs(t, svc.DeleteAlbum(anon, id), ErrUnauthenticated)

	all, err := svc.ListAlbums(anon)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "t", all[0].Title)
}

func TestFieldsFromForm(t *testing.T) {
	f := FieldsFromForm(url.Values{"title": {"T"}, "year": {"1999"}})
	assert.Equal(t, Fields{Title: "T", Year: "1999"}, f)
	assert.Nil(t, f.ImageURL)

	f = FieldsFromForm(url.Values{"image_url": {""}})
	require.NotNil(t, f.ImageURL)
	assert.Equal(t, "", *f.ImageURL)
}

func TestFieldsFromAlbum(t *testing.T) {
	f := FieldsFromAlbum(domain.Album{Title: "T", Year: 1999, Description: "d", Tracklist: "a"})
	assert.Equal(t, Fields{Title: "T", Year: "1999", Description: "d", Tracklist: "a"}, f)
}
