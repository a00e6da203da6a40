// Package main runs pending schema migrations against the configured
// database, embedding the migration SQL the way dotcommander-vybe's
// store package does.
package main

import (
	"database/sql"
	"embed"
	"flag"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"newsletter/internal/config"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

func main() {
	environment := flag.String("env", "local", "deployment environment: local|production")
	flag.Parse()

	provider, err := config.Init(config.Options{ConfigDir: "configs", Environment: *environment})
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: load config: %v\n", err)
		os.Exit(1)
	}
	settings := config.Load(provider)

	db, err := sql.Open("pgx", settings.Database.ConnString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: set dialect: %v\n", err)
		os.Exit(1)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: apply migrations: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("migrate: migrations applied")
}
