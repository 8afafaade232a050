package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"github.com/joyboxhq/funnel/internal/config"
	"github.com/joyboxhq/funnel/internal/migrations"
	"github.com/joyboxhq/funnel/internal/server"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	var c server.Config
	if err := config.Load(configPath, &c); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dsn := func(addr, user, pass, name string) string {
		return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", user, pass, addr, name)
	}

	// The results and catalog sections may point at the same database; apply
	// each distinct DSN once.
	dsns := []string{
		dsn(c.Postgres.Results.Addr, c.Postgres.Results.User, c.Postgres.Results.Pass, c.Postgres.Results.Name),
	}
	if catalog := dsn(c.Postgres.Catalog.Addr, c.Postgres.Catalog.User, c.Postgres.Catalog.Pass, c.Postgres.Catalog.Name); catalog != dsns[0] {
		dsns = append(dsns, catalog)
	}

	for _, d := range dsns {
		if err := migrateDSN(ctx, d); err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "migrations applied")
	return nil
}

func migrateDSN(ctx context.Context, dsn string) error {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, migrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	if _, err := migrator.Migrate(ctx); err != nil {
		return err
	}

	return nil
}
