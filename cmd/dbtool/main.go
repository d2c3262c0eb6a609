package main

import (
	"context"
	"courier-service/internal/adapters/repositories"
	"courier-service/internal/config"
	"courier-service/internal/platform/db"
	"courier-service/internal/platform/obs"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	config.LoadDotenv()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	databaseURL string
	logger      *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "dbtool",
		Short:        "Manage the courier-service Postgres database",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(opts.databaseURL) == "" {
				return fmt.Errorf("DATABASE_URL is required (flag --database-url or env)")
			}
			logger, err := obs.NewLogger("development", config.Get("LOG_LEVEL", "info"))
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", config.Get("DATABASE_URL", ""), "Postgres connection string")

	root.AddCommand(newInitCmd(opts), newSeedCmd(opts))
	return root
}

func newInitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create tables and indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), opts, func(ctx context.Context, conn *sql.DB) error {
				opts.logger.Info("initializing database schema")
				if err := repositories.InitSchema(ctx, conn); err != nil {
					return err
				}
				opts.logger.Info("schema ready")
				return nil
			})
		},
	}
}

func newSeedCmd(opts *options) *cobra.Command {
	var seedPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and load users and packages from a seed file",
		Long: `Loads the seed JSON into the database. Records that already exist
are skipped, so seeding twice is safe.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), opts, func(ctx context.Context, conn *sql.DB) error {
				if err := repositories.InitSchema(ctx, conn); err != nil {
					return err
				}
				opts.logger.Info("seeding database", zap.String("path", seedPath))
				res, err := repositories.SeedFromJSON(ctx, repositories.NewPostgresRepositories(conn), seedPath)
				if err != nil {
					return err
				}
				opts.logger.Info("seeding complete",
					zap.Int("users", res.Users),
					zap.Int("shipments", res.Shipments),
				)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&seedPath, "file", "f", config.Get("SEED_PATH", "data/seeds/seed.json"), "seed JSON file")
	return cmd
}

func withDB(ctx context.Context, opts *options, fn func(context.Context, *sql.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer opts.logger.Sync()

	conn, err := db.OpenPostgres(ctx, opts.databaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(ctx, conn)
}
