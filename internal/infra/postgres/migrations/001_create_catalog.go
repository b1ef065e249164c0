package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createCatalogTables creates the movies and tv_shows tables. Both are read
// newest first, so created_at carries a descending index.
func createCatalogTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "001_create_catalog",
		Migrate: func(tx *gorm.DB) error {
			stmts := []string{
				`CREATE TABLE IF NOT EXISTS movies (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					title TEXT NOT NULL CHECK (btrim(title) <> ''),
					description TEXT,
					genre TEXT[] NOT NULL DEFAULT '{}',
					release_year INTEGER,
					duration_minutes INTEGER,
					rating NUMERIC(3,1),
					poster_url TEXT,
					video_url TEXT,
					created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					created_by TEXT
				)`,
				`CREATE TABLE IF NOT EXISTS tv_shows (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					title TEXT NOT NULL CHECK (btrim(title) <> ''),
					description TEXT,
					genre TEXT[] NOT NULL DEFAULT '{}',
					release_year INTEGER,
					seasons INTEGER,
					rating NUMERIC(3,1),
					poster_url TEXT,
					video_url TEXT,
					created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					created_by TEXT
				)`,
				"CREATE INDEX IF NOT EXISTS idx_movies_created_at ON movies(created_at DESC)",
				"CREATE INDEX IF NOT EXISTS idx_movies_created_by ON movies(created_by)",
				"CREATE INDEX IF NOT EXISTS idx_tv_shows_created_at ON tv_shows(created_at DESC)",
				"CREATE INDEX IF NOT EXISTS idx_tv_shows_created_by ON tv_shows(created_by)",
			}

			for _, stmt := range stmts {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS tv_shows, movies").Error
		},
	}
}
