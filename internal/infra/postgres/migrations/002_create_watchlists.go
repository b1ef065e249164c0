package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createWatchlists creates the watchlists table. Content references carry no
// foreign key constraint: deleting content leaves the entry behind and
// readers drop it as dangling.
func createWatchlists() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "002_create_watchlists",
		Migrate: func(tx *gorm.DB) error {
			stmts := []string{
				`CREATE TABLE IF NOT EXISTS watchlists (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					user_id TEXT NOT NULL,
					movie_id UUID,
					tv_show_id UUID,
					created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					CONSTRAINT chk_watchlists_one_ref CHECK ((movie_id IS NULL) <> (tv_show_id IS NULL))
				)`,
				"CREATE INDEX IF NOT EXISTS idx_watchlists_user_id ON watchlists(user_id)",
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_watchlists_movie ON watchlists(user_id, movie_id) WHERE movie_id IS NOT NULL",
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_watchlists_tv_show ON watchlists(user_id, tv_show_id) WHERE tv_show_id IS NOT NULL",
			}

			for _, stmt := range stmts {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS watchlists").Error
		},
	}
}
