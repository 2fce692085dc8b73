package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitepub/internal/config"
	"sitepub/internal/logging"
	"sitepub/internal/output"
)

var (
	cfgFile      string
	outputFormat string
	verbose      bool

	cfg    *config.Config
	logger *zap.Logger
	format output.Format
)

var rootCmd = &cobra.Command{
	Use:   "sitepub",
	Short: "Review and publish multi-page website updates to a CMS",
	Long: `sitepub ingests the output of a website renderer, splits it into pages,
tracks a per-page review, and publishes approved pages to WordPress or Notion.

Typical flow:
  sitepub ingest --file render.json --brand acme --site-key main
  sitepub approve <job-id> <page> --decision approved
  sitepub resolve <job-id>
  sitepub publish <job-id>`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if format, err = output.ParseFormat(outputFormat); err != nil {
			return err
		}
		if logger, err = logging.New(verbose); err != nil {
			return err
		}
		if cfg, err = config.Load(cfgFile); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.sitepub/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	rootCmd.AddCommand(
		ingestCmd,
		extractCmd,
		listCmd,
		showCmd,
		approveCmd,
		setSlugCmd,
		validateCmd,
		resolveCmd,
		publishCmd,
	)
}
