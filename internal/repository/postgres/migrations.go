package postgres

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

// Migrations returns the schema and seed migrations for database.RunMigrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}
