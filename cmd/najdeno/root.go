package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/erazemk/najdeno/internal/config"
	"github.com/erazemk/najdeno/internal/db"
)

// cli carries state shared by all subcommands.
type cli struct {
	configPath string
	dbPath     string
	logPath    string
	verbose    bool

	cfg      *config.Config
	closeLog func()
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "najdeno",
		Short:        "Lost and found board with claims and owner chat",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.closeLog != nil {
				c.closeLog()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "JSON config file")
	pf.StringVarP(&c.dbPath, "db", "d", "", "SQLite database path (default najdeno.sqlite3)")
	pf.StringVarP(&c.logPath, "log", "l", "", "also write logs to this file")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "log debug messages")

	root.AddCommand(
		c.serveCmd(),
		c.initCmd(),
		c.useraddCmd(),
		c.usersCmd(),
		c.reconcileCmd(),
		c.watchCmd(),
	)
	return root
}

// load resolves the configuration: defaults, then the config file, then
// flags that were set explicitly.
func (c *cli) load(cmd *cobra.Command) error {
	cfg := config.Default()
	if c.configPath != "" {
		if err := cfg.LoadFile(c.configPath); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = c.dbPath
	}
	if flags.Changed("log") {
		cfg.LogPath = c.logPath
	}
	c.cfg = cfg

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	closeLog, err := setupLogger(cfg.LogPath, level)
	if err != nil {
		return err
	}
	c.closeLog = closeLog
	return nil
}

// openDB opens the database and brings its schema up to date.
func (c *cli) openDB(ctx context.Context) (*sql.DB, error) {
	database, err := db.Open(c.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating %s: %w", c.cfg.DBPath, err)
	}
	return database, nil
}
