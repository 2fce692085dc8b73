package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sitepub/internal/core/pages"
	"sitepub/internal/output"
)

var (
	decision string
	notes    string
)

var approveCmd = &cobra.Command{
	Use:   "approve <job-id> <page>",
	Short: "Record a review decision for one page",
	Long: `Records a reviewer decision for the page with the given source key.

Decisions: approved, rejected, needs_changes.
The job becomes APPROVED once every page is approved. After publishing has
started, decisions are still recorded but the job status no longer changes.`,
	Example: `  sitepub approve 3f1c... about
  sitepub approve 3f1c... contact --decision needs_changes --notes "wrong phone number"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.close()

		artifact, err := a.orch.Approve(ctx, args[0], args[1], decision, notes)
		if err != nil {
			return err
		}
		return output.To(cmd.OutOrStdout(), format, summarize(*artifact))
	},
}

var setSlugCmd = &cobra.Command{
	Use:   "set-slug <job-id> <page> <slug>",
	Short: "Change the slug a page is published under",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.close()

		artifact, err := a.orch.SetTargetSlug(ctx, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		return output.To(cmd.OutOrStdout(), format, artifact.Metadata.Pages)
	},
}

type validation struct {
	JobID    string   `json:"job_id" yaml:"job_id"`
	Warnings []string `json:"warnings" yaml:"warnings"`
}

var validateCmd = &cobra.Command{
	Use:   "validate <job-id>",
	Short: "Report pages that share a target slug",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.close()

		artifact, err := a.orch.Get(ctx, args[0])
		if err != nil {
			return err
		}
		res := validation{JobID: artifact.ID, Warnings: pages.ValidateSlugs(artifact.Metadata.Pages)}
		if err := output.To(cmd.OutOrStdout(), format, res); err != nil {
			return err
		}
		if len(res.Warnings) > 0 {
			return fmt.Errorf("%d slug collision(s)", len(res.Warnings))
		}
		return nil
	},
}

func init() {
	approveCmd.Flags().StringVar(&decision, "decision", "approved", "approved, rejected or needs_changes")
	approveCmd.Flags().StringVar(&notes, "notes", "", "reviewer notes")
}
