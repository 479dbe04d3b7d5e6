// Package cmd provides the commands of the reimbursectl admin CLI.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/fleet-reimbursement/internal/config"
	"github.com/garyjia/fleet-reimbursement/internal/container"
	"github.com/garyjia/fleet-reimbursement/pkg/utils"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reimbursectl",
	Short: "Administer fleet reimbursement rates",
	Long: `reimbursectl manages company rate configurations and prices trips
and fuel refills against them without going through the HTTP API.

Examples:
  reimbursectl rates import --company 1 --file rates.xlsx
  reimbursectl quote trip --company 1 --vehicle-type car --distance 120
  reimbursectl quote fuel --company 1 --vehicle-type dyna --opening 1000 --closing 1500`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "config file (empty for defaults and environment only)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging on stderr")

	rootCmd.AddCommand(ratesCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(migrateCmd)
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := utils.NewCLILogger(verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logging: %w", err)
	}
	return cfg, logger, nil
}

// withContainer starts the application container, runs fn and closes it again.
func withContainer(ctx context.Context, fn func(c *container.Container) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	app, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}

	runErr := fn(app)
	if err := app.Close(); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
