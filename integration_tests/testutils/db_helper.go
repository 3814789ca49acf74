package testutils

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gamequeue "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/queue"
	gamemigrations "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/repositories/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// gameTables lists every game table, children first.
var gameTables = []string{"votes", "answers", "game_prompts", "games", "prompts", "blanks", "stories", "room_members", "rooms"}

// RunMigrations applies the River schema and the game migrations.
func RunMigrations(ctx context.Context, db *bun.DB, dsn string, logger *slog.Logger) error {
	if err := gamequeue.Migrate(ctx, dsn, logger); err != nil {
		return err
	}

	migrator := migrate.NewMigrator(db, gamemigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migration tables: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run game migrations: %w", err)
	}
	logger.Info("Game migrations applied", slog.String("group", group.String()))
	return nil
}

// CleanupRiverJobs deletes all jobs from the River queue
func CleanupRiverJobs(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx, "DELETE FROM river_job")
	return err
}

// TruncateGameTables empties the game tables.
func TruncateGameTables(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx, "TRUNCATE TABLE "+strings.Join(gameTables, ", ")+" CASCADE")
	if err != nil {
		return fmt.Errorf("failed to truncate game tables: %w", err)
	}
	return nil
}

// CountRows counts the rows of table matching where.
func CountRows(ctx context.Context, db bun.IDB, table, where string, args ...any) (int, error) {
	return db.NewSelect().Table(table).Where(where, args...).Count(ctx)
}
