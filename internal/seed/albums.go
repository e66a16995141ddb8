package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"musiccatalog/m/domain"
	"musiccatalog/m/internal/repository"
)

type catalogFile struct {
	Albums []struct {
		Title       string  `yaml:"title"`
		Year        int     `yaml:"year"`
		Description string  `yaml:"description"`
		Tracklist   string  `yaml:"tracklist"`
		ImageURL    *string `yaml:"image_url"`
	} `yaml:"albums"`
}

// LoadAlbums imports demo albums from a YAML file into an empty catalog.
// A catalog that already has albums is left untouched.
func LoadAlbums(ctx context.Context, albums repository.AlbumRepository, path string, logger *slog.Logger) (int, error) {
	existing, err := albums.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed albums: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("catalog already populated, skipping album seed", "albums", len(existing))
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read album seed %s: %w", path, err)
	}
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return 0, fmt.Errorf("parse album seed %s: %w", path, err)
	}

	rows := 0
	for _, a := range cf.Albums {
		if a.Title == "" {
			continue
		}
		album := domain.Album{
			Title:       a.Title,
			Year:        a.Year,
			Description: a.Description,
			Tracklist:   a.Tracklist,
			ImageURL:    a.ImageURL,
		}
		if err := albums.Save(ctx, &album); err != nil {
			return rows, fmt.Errorf("insert album %q: %w", a.Title, err)
		}
		rows++
	}

	logger.Info("seeded album catalog", "rows", rows, "path", path)
	return rows, nil
}
