package main

import (
	"fmt"
	"sort"

	"github.com/kendall-kelly/chillas-api/config"
	"github.com/kendall-kelly/chillas-api/seed"
	"github.com/spf13/cobra"
)

// bootDB loads configuration and opens the database connection
func bootDB() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := config.OpenDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	config.SetDB(db)
	return cfg, nil
}

// chillas-api migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := bootDB(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Running migrations…")
		if err := config.Migrate(config.GetDB()); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Database migration completed successfully")
		return nil
	},
}

// chillas-api seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill in default settings, page sections and a sample menu",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := bootDB(); err != nil {
			return err
		}
		db := config.GetDB()
		if err := config.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Running seeders…")
		return seed.RunAll(cmd.Context(), db, cmd.OutOrStdout())
	},
}

// chillas-api db:check
var dbCheckCmd = &cobra.Command{
	Use:   "db:check",
	Short: "Verify the database connection and list its tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := bootDB()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Connected to %s database\n", cfg.DBDriver)

		tables, err := config.GetDB().Migrator().GetTables()
		if err != nil {
			return fmt.Errorf("failed to list tables: %w", err)
		}
		sort.Strings(tables)
		fmt.Fprintln(out, "Existing tables:")
		for _, table := range tables {
			fmt.Fprintf(out, "  - %s\n", table)
		}
		return nil
	},
}
