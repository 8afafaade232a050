package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_funnel_tables.sql
var createFunnelTablesSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createFunnelTablesSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`
DROP TABLE IF EXISTS notification_outbox;
DROP TABLE IF EXISTS quiz_results;
DROP TABLE IF EXISTS toy_reviews;
DROP TABLE IF EXISTS toys;
DROP TABLE IF EXISTS waitlist_entries;`)
			return err
		},
	)
}
