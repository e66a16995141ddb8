package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"musiccatalog/m/domain"
)

const albumColumns = `id, title, year, description, tracklist, image_url`

type SQLAlbumRepository struct {
	db *sqlx.DB
}

func NewSQLAlbumRepository(db *sqlx.DB) *SQLAlbumRepository {
	return &SQLAlbumRepository{db: db}
}

func (r *SQLAlbumRepository) FindAll(ctx context.Context) ([]domain.Album, error) {
	albums := []domain.Album{}
	if err := r.db.SelectContext(ctx, &albums, `SELECT `+albumColumns+` FROM albums ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	return albums, nil
}

func (r *SQLAlbumRepository) FindByID(ctx context.Context, id int64) (domain.Album, error) {
	var album domain.Album
	err := r.db.GetContext(ctx, &album, r.db.Rebind(`SELECT `+albumColumns+` FROM albums WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Album{}, ErrNotFound
	}
	if err != nil {
		return domain.Album{}, fmt.Errorf("get album %d: %w", id, err)
	}
	return album, nil
}

func (r *SQLAlbumRepository) Save(ctx context.Context, album *domain.Album) error {
	if album.ID == 0 {
		return r.insert(ctx, album)
	}

	res, err := r.db.ExecContext(ctx,
		r.db.Rebind(`UPDATE albums SET title = ?, year = ?, description = ?, tracklist = ?, image_url = ? WHERE id = ?`),
		album.Title, album.Year, album.Description, album.Tracklist, album.ImageURL, album.ID)
	if err != nil {
		return fmt.Errorf("update album %d: %w", album.ID, err)
	}
	return expectOneRow(res, album.ID)
}

func (r *SQLAlbumRepository) insert(ctx context.Context, album *domain.Album) error {
	var id int64
	err := r.db.QueryRowxContext(ctx,
		r.db.Rebind(`INSERT INTO albums (title, year, description, tracklist, image_url) VALUES (?, ?, ?, ?, ?) RETURNING id`),
		album.Title, album.Year, album.Description, album.Tracklist, album.ImageURL).Scan(&id)
	if err != nil {
		return fmt.Errorf("create album: %w", err)
	}
	album.ID = id
	return nil
}

func (r *SQLAlbumRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM albums WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete album %d: %w", id, err)
	}
	return expectOneRow(res, id)
}

func expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for album %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
