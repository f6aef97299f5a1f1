package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/FashtimeDotCom/cow-blog/config"
	"github.com/FashtimeDotCom/cow-blog/internal/blog"
	"github.com/FashtimeDotCom/cow-blog/internal/render"
	"github.com/FashtimeDotCom/cow-blog/internal/storage"
	"github.com/FashtimeDotCom/cow-blog/internal/web"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "cow-blog",
		Short:        "A small blog engine",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")

	root.AddCommand(
		serveCmd(&configPath),
		updateCountsCmd(&configPath),
		createUserCmd(&configPath),
	)
	return root
}

type app struct {
	cfg     *config.Config
	session *storage.Session
	svc     *blog.Service
	logger  *slog.Logger
	close   func() error
}

// boot loads config, opens the database, applies migrations and wires
// the service. Every subcommand starts here.
func boot(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	dialect, err := dialectFor(cfg.Database.Driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	session := storage.NewSession(db, dialect,
		storage.WithLogger(logger),
		storage.WithDefaultTracer(),
		storage.WithDefaultMeter(),
		storage.WithSlowQueryThreshold(cfg.Log.SlowQuery),
	)

	if err := blog.Migrate(ctx, session); err != nil {
		_ = db.Close()
		return nil, err
	}

	slugger, err := blog.NewSlugger(cfg.Site.SlugPattern)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("slug pattern: %w", err)
	}

	svc := blog.NewService(session, render.NewMarkdown(), slugger, logger)
	return &app{
		cfg:     cfg,
		session: session,
		svc:     svc,
		logger:  logger,
		close:   db.Close,
	}, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func dialectFor(driver string) (storage.Dialect, error) {
	switch driver {
	case "sqlite3":
		return storage.SQLite, nil
	case "postgres":
		return storage.PostgreSQL, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			server := web.NewServer(a.cfg, a.session, a.svc, a.logger)
			a.logger.Info("listening", "addr", a.cfg.HTTP.Addr)
			return server.Router().Run(a.cfg.HTTP.Addr)
		},
	}
}

func updateCountsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "update-counts",
		Short: "Recompute cached comment and post counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if err := blog.UpdateCounts(cmd.Context(), a.session); err != nil {
				return err
			}
			a.logger.Info("counts updated")
			return nil
		},
	}
}

func createUserCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "create-user <username> <password>",
		Short: "Create an admin account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			user, err := blog.CreateUser(cmd.Context(), a.session, args[0], args[1])
			if err != nil {
				return err
			}
			a.logger.Info("user created", "id", user.ID, "username", user.Username)
			return nil
		},
	}
}
