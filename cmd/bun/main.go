package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	gamequeue "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/queue"
	gamemigrations "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/party-bot/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	tool := &migrationTool{
		migrator: migrate.NewMigrator(db, gamemigrations.Migrations),
		dsn:      cfg.Postgres.DSN,
		logger:   slog.New(slog.NewTextHandler(os.Stdout, nil)),
	}

	cliApp := &cli.App{
		Name:     "bun",
		Usage:    "party-bot schema management",
		Commands: []*cli.Command{tool.command()},
	}
	if err := cliApp.Run(append([]string{os.Args[0]}, flag.Args()...)); err != nil {
		log.Fatal(err)
	}
}

// migrationTool drives the game tables through bun/migrate and the job
// queue tables through River.
type migrationTool struct {
	migrator *migrate.Migrator
	dsn      string
	logger   *slog.Logger
}

func (t *migrationTool) command() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "create the bun migration tables",
				Action: t.init,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending game and queue migrations",
				Action: t.up,
			},
			{
				Name:   "rollback",
				Usage:  "roll back the last game migration group",
				Action: t.rollback,
			},
			{
				Name:   "status",
				Usage:  "print game migration status",
				Action: t.status,
			},
			{
				Name:      "create_go",
				Usage:     "create a Go migration",
				ArgsUsage: "<name words>",
				Action:    t.createGo,
			},
			{
				Name:      "create_sql",
				Usage:     "create up and down SQL migrations",
				ArgsUsage: "<name words>",
				Action:    t.createSQL,
			},
			{
				Name:  "river",
				Usage: "apply the River job queue schema only",
				Action: func(c *cli.Context) error {
					return gamequeue.Migrate(c.Context, t.dsn, t.logger)
				},
			},
		},
	}
}

func (t *migrationTool) init(c *cli.Context) error {
	if err := t.migrator.Init(c.Context); err != nil {
		return fmt.Errorf("init migration tables: %w", err)
	}
	fmt.Println("Migration tables ready")
	return nil
}

// up applies the River schema first so deadline jobs can be armed as soon
// as the game tables exist.
func (t *migrationTool) up(c *cli.Context) error {
	if err := gamequeue.Migrate(c.Context, t.dsn, t.logger); err != nil {
		return err
	}
	if err := t.migrator.Init(c.Context); err != nil {
		return fmt.Errorf("init migration tables: %w", err)
	}

	group, err := t.migrator.Migrate(c.Context)
	if err != nil {
		return fmt.Errorf("migrate game tables: %w", err)
	}
	if group.IsZero() {
		fmt.Println("No new game migrations to run")
		return nil
	}
	fmt.Printf("Migrated game tables to %s\n", group)
	return nil
}

func (t *migrationTool) rollback(c *cli.Context) error {
	group, err := t.migrator.Rollback(c.Context)
	if err != nil {
		return fmt.Errorf("roll back game tables: %w", err)
	}
	if group.IsZero() {
		fmt.Println("No game migration groups to roll back")
		return nil
	}
	fmt.Printf("Rolled back %s\n", group)
	return nil
}

func (t *migrationTool) status(c *cli.Context) error {
	ms, err := t.migrator.MigrationsWithStatus(c.Context)
	if err != nil {
		return fmt.Errorf("read migration status: %w", err)
	}
	fmt.Printf("Game migrations: %s\n", ms)
	fmt.Printf("  Applied: %s\n", ms.Applied())
	fmt.Printf("  Unapplied: %s\n", ms.Unapplied())
	return nil
}

func (t *migrationTool) createGo(c *cli.Context) error {
	name, err := migrationName(c)
	if err != nil {
		return err
	}
	mf, err := t.migrator.CreateGoMigration(c.Context, name)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s (%s)\n", mf.Name, mf.Path)
	return nil
}

func (t *migrationTool) createSQL(c *cli.Context) error {
	name, err := migrationName(c)
	if err != nil {
		return err
	}
	files, err := t.migrator.CreateSQLMigrations(c.Context, name)
	if err != nil {
		return err
	}
	for _, mf := range files {
		fmt.Printf("Created %s (%s)\n", mf.Name, mf.Path)
	}
	return nil
}

func migrationName(c *cli.Context) (string, error) {
	if c.NArg() == 0 {
		return "", fmt.Errorf("migration name is required")
	}
	return strings.Join(c.Args().Slice(), "_"), nil
}
