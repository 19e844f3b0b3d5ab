package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/trogers1052/portfolio-advisor/internal/config"
	"github.com/trogers1052/portfolio-advisor/internal/database"
	"github.com/trogers1052/portfolio-advisor/internal/logger"
	"github.com/trogers1052/portfolio-advisor/internal/scoring"
)

// app carries what every subcommand needs once flags are parsed
type app struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "advisor",
		Short: "Portfolio scoring, risk assessment and rebalancing service",
		Long: `advisor keeps a stocks and a crypto portfolio, scores them with a trained model,
checks them against risk limits and suggests rebalancing actions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Log.Level = "debug"
			}
			a.cfg = cfg
			a.log = logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
			logger.SetGlobalLogger(a.log)
			return nil
		},
	}

	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newMigrateCmd(a))
	rootCmd.AddCommand(newSeedCmd(a))
	rootCmd.AddCommand(newTrainCmd(a))

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return rootCmd
}

// newServeCmd creates the serve command
func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, trade command consumer and risk monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a.cfg, a.log)
		},
	}
}

// newMigrateCmd creates the migrate command
func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.New(a.cfg.Database.ConnectionString())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RunMigrations(a.cfg.Database.MigrationsPath); err != nil {
				return err
			}
			a.log.Info().Str("path", a.cfg.Database.MigrationsPath).Msg("Migrations applied")
			return nil
		},
	}
}

// newSeedCmd creates the seed command
func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo portfolios and wallet for the configured owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.New(a.cfg.Database.ConnectionString())
			if err != nil {
				return err
			}
			defer db.Close()

			return seedDemoData(cmd.Context(), db, a.cfg.Portfolio.Owner, a.log)
		},
	}
}

// newTrainCmd creates the train-model command
func newTrainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train-model",
		Short: "Fit a linear score model from a labeled CSV and write the artifact",
		Long: `Reads a CSV with the columns
  ` + scoring.TrainingHeader() + `
fits an ordinary least squares model and writes a msgpack artifact the service can load.
Example: advisor train-model --data portfolio_training_data.csv --out models/portfolio_model.msgpack`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _ := cmd.Flags().GetString("data")
			out, _ := cmd.Flags().GetString("out")
			version, _ := cmd.Flags().GetString("version")
			return runTrain(a.log, data, out, version)
		},
	}

	cmd.Flags().String("data", "", "Labeled training CSV")
	cmd.Flags().String("out", "models/portfolio_model.msgpack", "Artifact output path")
	cmd.Flags().String("version", "linear-v1", "Version recorded in the artifact")
	cmd.MarkFlagRequired("data")

	return cmd
}

// loadScorer resolves the configured artifact from disk or S3
func loadScorer(ctx context.Context, cfg config.ModelConfig) (*scoring.Scorer, error) {
	var fetcher scoring.Fetcher = scoring.FileFetcher{}
	if scoring.IsS3Location(cfg.Artifact) {
		s3Fetcher, err := scoring.NewS3Fetcher(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", scoring.ErrModelUnavailable, err)
		}
		fetcher = s3Fetcher
	}
	return scoring.Load(ctx, fetcher, cfg.Artifact)
}

// seedDemoData creates whatever demo data the owner is missing
func seedDemoData(ctx context.Context, db *database.DB, owner string, log zerolog.Logger) error {
	seeded, err := db.SeedDemoPortfolios(ctx, owner)
	if err != nil {
		return err
	}
	walletSeeded, err := db.SeedDemoWallet(ctx, owner, time.Now())
	if err != nil {
		return err
	}
	log.Info().
		Str("owner", owner).
		Int("portfolios", seeded).
		Bool("wallet", walletSeeded).
		Msg("Demo data checked")
	return nil
}
