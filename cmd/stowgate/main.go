package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/stowgate/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "stowgate",
	Short:   "Caching HTTP gateway for object storage",
	Long: `stowgate serves objects from a local directory or an S3 bucket over
HTTP GET and HEAD, with conditional and range requests and a response cache
shared across both methods.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringSlice("config", nil, "config file path, repeat to merge (default: ./config.yaml)")
	flags.String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: STOWGATE_DATABASE_TYPE)")
	flags.String("db-dsn", "", "database connection string (default: stowgate.db, env: STOWGATE_DATABASE_DSN)")
	flags.String("storage-path", "", "storage directory path (default: ./data, env: STOWGATE_STORAGE_PATH)")
	flags.String("store-backend", "", "object backend: filesystem, s3 (default: filesystem, env: STOWGATE_STORE_BACKEND)")
	flags.String("log-level", "", "log level: debug, info, warn, error (env: STOWGATE_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
