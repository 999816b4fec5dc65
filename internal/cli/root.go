package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aqasim81/cql-migrate/internal/config"
	"github.com/aqasim81/cql-migrate/internal/database"
	"github.com/aqasim81/cql-migrate/internal/engine"
	"github.com/aqasim81/cql-migrate/internal/logging"
)

const version = "0.1.0"

// AppConfig holds the loaded configuration, set during PersistentPreRunE.
var AppConfig *config.Config //nolint:gochecknoglobals // standard Cobra pattern for shared config

// appLogger is built from AppConfig during PersistentPreRunE.
var appLogger = slog.New(slog.DiscardHandler) //nolint:gochecknoglobals // shared with subcommands like AppConfig

// errKeyspaceRequired is returned when no keyspace is configured.
var errKeyspaceRequired = errors.New(
	"keyspace is required (set --keyspace, CQLMIGRATE_KEYSPACE, keyspace in config, or the database URL path)",
)

// rootCmd is the base command for the cqlmigrate CLI.
var rootCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:     "cqlmigrate",
	Version: version,
	Short:   "Schema migrations for Cassandra-compatible databases",
	Long: `cqlmigrate applies and rolls back versioned CQL migration scripts,
recording what has been applied in a tracking table inside the target
keyspace. It also flags risky schema changes before they reach the cluster.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.PersistentFlags().String("config", "cqlmigrate.yml", "path to configuration file")
	rootCmd.PersistentFlags().String("database-url", "", "cassandra:// connection URL")
	rootCmd.PersistentFlags().StringSlice("hosts", nil, "contact points (comma-separated)")
	rootCmd.PersistentFlags().String("keyspace", "", "target keyspace")
	rootCmd.PersistentFlags().String("migrations-dir", "", "path to migration files")
	rootCmd.PersistentFlags().String("migrations-table", "", "name of the tracking table")
	rootCmd.PersistentFlags().String("consistency", "", "consistency level for tracking table access")
	rootCmd.PersistentFlags().Bool("no-lock", false, "do not take the cross-process migration lock")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads configuration with precedence: flag > env > file.
func loadConfig(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	allowMissing := !cmd.Flags().Changed("config")

	cfg, err := config.Load(configPath, allowMissing)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	config.MergeEnv(cfg)
	mergeFlags(cmd, cfg)

	AppConfig = cfg
	appLogger = logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

	return nil
}

// mergeFlags overrides config with explicitly-set CLI flags.
func mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	stringFlags := []struct {
		flag string
		dst  *string
	}{
		{"database-url", &cfg.DatabaseURL},
		{"keyspace", &cfg.Keyspace},
		{"migrations-dir", &cfg.MigrationsDir},
		{"migrations-table", &cfg.MigrationsTable},
		{"consistency", &cfg.Consistency},
		{"log-level", &cfg.LogLevel},
		{"log-format", &cfg.LogFormat},
	}

	for _, s := range stringFlags {
		if cmd.Flags().Changed(s.flag) {
			*s.dst, _ = cmd.Flags().GetString(s.flag)
		}
	}

	if cmd.Flags().Changed("hosts") {
		cfg.Hosts, _ = cmd.Flags().GetStringSlice("hosts")
	}

	if cmd.Flags().Changed("no-lock") {
		noLock, _ := cmd.Flags().GetBool("no-lock")
		cfg.Lock = !noLock
	}
}

// openEngine connects to the cluster described by cfg and returns an
// engine bound to that session. The caller must Close it.
func openEngine(ctx context.Context, cfg *config.Config, opts ...engine.Option) (*engine.Engine, error) {
	clusterOpts, err := cfg.ClusterOptions()
	if err != nil {
		return nil, err
	}

	if clusterOpts.Keyspace == "" {
		return nil, errKeyspaceRequired
	}

	consistency, err := database.ParseConsistency(clusterOpts.Consistency)
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL != "" {
		appLogger.Info("Connecting", "url", config.RedactURL(cfg.DatabaseURL))
	} else {
		appLogger.Info("Connecting", "hosts", clusterOpts.Hosts)
	}

	session, err := database.NewSession(ctx, *clusterOpts)
	if err != nil {
		return nil, fmt.Errorf("connecting to cluster: %w", err)
	}

	eng, err := engine.New(session, engine.Config{
		Keyspace:        clusterOpts.Keyspace,
		MigrationsDir:   cfg.MigrationsDir,
		MigrationsTable: cfg.MigrationsTable,
		Lock:            cfg.Lock,
		LockTTL:         cfg.LockTTL,
		Consistency:     consistency,
	}, append([]engine.Option{engine.WithLogger(appLogger)}, opts...)...)
	if err != nil {
		session.Close()

		return nil, err
	}

	return eng, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
