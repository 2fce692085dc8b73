package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sitepub/internal/core/domain"
	"sitepub/internal/output"
	"sitepub/internal/service"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <job-id>",
	Short: "Look up which pages already exist on the CMS",
	Long: `Looks up every page's target slug on the configured CMS and remembers the
remote page id, so that publishing updates existing pages instead of creating
duplicates. Lookup failures are logged and treated as "not found".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.orch.Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		return output.To(cmd.OutOrStdout(), format, res)
	},
}

var publishOpts service.PublishOptions

var publishCmd = &cobra.Command{
	Use:   "publish <job-id>",
	Short: "Publish approved pages to the CMS",
	Long: `Creates or updates every approved page on the configured CMS. Pages with a
known remote id are updated; all others are created as drafts. One failing
page does not stop the others. Exits non-zero unless every page published.`,
	Example: `  sitepub publish 3f1c...
  sitepub publish 3f1c... --failed-only`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.close()

		report, err := a.orch.Publish(ctx, args[0], publishOpts)
		if report != nil {
			if outErr := output.To(cmd.OutOrStdout(), format, report); outErr != nil {
				return outErr
			}
		}
		if err != nil {
			return err
		}
		if report.JobStatus != domain.JobPublished {
			return fmt.Errorf("publish finished with status %s", report.JobStatus)
		}
		return nil
	},
}

func init() {
	publishCmd.Flags().BoolVar(&publishOpts.Force, "force", false, "publish even when target slugs collide")
	publishCmd.Flags().BoolVar(&publishOpts.FailedOnly, "failed-only", false, "only retry pages whose last publish failed")
}
