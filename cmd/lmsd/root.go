package main

import (
	"github.com/librarydesk/lms/internal/config"
	"github.com/librarydesk/lms/internal/db"
	"github.com/librarydesk/lms/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootOptions are flags that override the environment configuration
type rootOptions struct {
	dbDriver string
	dbDSN    string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "lmsd",
		Short:        "Library management service",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.dbDriver, "db-driver", "", "database driver: sqlite or postgres (overrides DB_DRIVER)")
	cmd.PersistentFlags().StringVar(&opts.dbDSN, "db-dsn", "", "database DSN (overrides DB_DSN)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newUserCmd(opts),
	)
	return cmd
}

// load reads the environment and applies flag overrides
func (o *rootOptions) load() *config.Config {
	cfg := config.Load()
	if o.dbDriver != "" {
		cfg.DBDriver = o.dbDriver
	}
	if o.dbDSN != "" {
		cfg.DBDSN = o.dbDSN
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg
}

// openDatabase connects and migrates the configured database
func openDatabase(cfg *config.Config, log *zap.Logger) (*db.DB, error) {
	log.Info("Connecting to database...", zap.String("driver", cfg.DBDriver))
	database, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	log.Info("Running database migrations...")
	if err := db.RunMigrations(database); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.load()
			log := logger.NewLogger(cfg.ServiceName, cfg.LogLevel)
			defer log.Sync()

			database, err := openDatabase(cfg, log)
			if err != nil {
				return err
			}
			defer database.Close()

			log.Info("Migrations complete")
			return nil
		},
	}
}
