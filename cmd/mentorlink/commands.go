package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/mentorlink/internal/config"
	sqliteRepo "github.com/sakif/mentorlink/internal/repository/sqlite"
	"github.com/sakif/mentorlink/internal/server"
	"github.com/sakif/mentorlink/internal/session"
)

// flagValues are the command-line overrides. A flag wins over .env and the
// environment only when it was actually given.
type flagValues struct {
	port     int
	apiBase  string
	dbPath   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	var flags flagValues

	root := &cobra.Command{
		Use:           "mentorlink",
		Short:         "Local web client for finding graduate advisors",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "session database path (DB_PATH)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (LOG_LEVEL)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the web client on localhost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.OutOrStdout(), cfg.LogLevel)

			srv, err := server.New(cfg, logger)
			if err != nil {
				return err
			}
			// Start blocks until the client is shut down (via Ctrl+C or SIGTERM)
			return srv.Start()
		},
	}
	serve.Flags().IntVar(&flags.port, "port", 0, "listen port (PORT)")
	serve.Flags().StringVar(&flags.apiBase, "api", "", "backend base URL (API_BASE_URL)")

	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or clear the persisted session",
	}
	sessionCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the persisted session record as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSessions(cmd, flags, func(ctx context.Context, m *session.Manager) error {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(m.Current())
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Log out and delete the persisted session record",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSessions(cmd, flags, func(ctx context.Context, m *session.Manager) error {
					if err := m.Logout(ctx); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "session cleared")
					return nil
				})
			},
		},
	)

	root.AddCommand(serve, sessionCmd)
	return root
}

// loadConfig reads .env and the environment, then applies the flags that
// were set on the command line.
func loadConfig(cmd *cobra.Command, flags flagValues) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("port") {
		cfg.Port = flags.port
	}
	if changed("api") {
		cfg.APIBaseURL = flags.apiBase
	}
	if changed("db") {
		cfg.DBPath = flags.dbPath
	}
	if changed("log-level") {
		if err := cfg.LogLevel.UnmarshalText([]byte(flags.logLevel)); err != nil {
			return config.Config{}, fmt.Errorf("--log-level: %w", err)
		}
	}
	return cfg, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// withSessions opens the session store the same way the client does and
// hands a hydrated manager to fn.
func withSessions(cmd *cobra.Command, flags flagValues, fn func(context.Context, *session.Manager) error) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), max(cfg.LogLevel, slog.LevelWarn))

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	codec, err := server.NewCodec(cfg.SessionSecret)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	m := session.NewManager(db, codec, logger)
	m.Hydrate(ctx)
	return fn(ctx, m)
}
