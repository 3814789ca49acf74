package gamemigrations

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations holds every game schema migration, discovered from this package.
var Migrations = migrate.NewMigrations()

func init() {
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
