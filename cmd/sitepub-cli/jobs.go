package main

import (
	"time"

	"github.com/spf13/cobra"

	"sitepub/internal/core/domain"
	"sitepub/internal/core/pages"
	"sitepub/internal/output"
)

var (
	ingestInput inputFlags
	jobOpts     pages.JobOptions
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Split renderer output into pages and store a new review job",
	Example: `  sitepub ingest --file render.json --brand acme --site-key main
  cat render.json | sitepub ingest -f - --require-all-approved
  sitepub ingest --exec "render-site --brand acme"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		raw, err := ingestInput.read(ctx, cmd.InOrStdin(), cfg.Source)
		if err != nil {
			return err
		}

		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.close()

		artifact, err := a.orch.Ingest(ctx, raw, jobOpts)
		if err != nil {
			return err
		}
		return output.To(cmd.OutOrStdout(), format, artifact)
	},
}

var extractInput inputFlags

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Show how renderer output would be split into pages, without storing it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := extractInput.read(cmd.Context(), cmd.InOrStdin(), cfg.Source)
		if err != nil {
			return err
		}
		return output.To(cmd.OutOrStdout(), format, pages.NewJob(raw, pages.JobOptions{}))
	},
}

// jobSummary is one row of the list command.
type jobSummary struct {
	ID        string                `json:"id" yaml:"id"`
	Status    domain.ArtifactStatus `json:"status" yaml:"status"`
	JobStatus domain.JobStatus      `json:"job_status" yaml:"job_status"`
	Brand     string                `json:"brand,omitempty" yaml:"brand,omitempty"`
	SiteKey   string                `json:"site_key,omitempty" yaml:"site_key,omitempty"`
	Pages     int                   `json:"pages" yaml:"pages"`
	Approved  int                   `json:"approved" yaml:"approved"`
	CreatedAt time.Time             `json:"created_at" yaml:"created_at"`
}

func summarize(a domain.Artifact) jobSummary {
	s := jobSummary{
		ID:        a.ID,
		Status:    a.Status,
		JobStatus: a.Metadata.JobStatus,
		Brand:     a.Metadata.Brand,
		SiteKey:   a.Metadata.SiteKey,
		Pages:     len(a.Metadata.Pages),
		CreatedAt: a.CreatedAt,
	}
	for _, p := range a.Metadata.Pages {
		if p.ApprovalStatus == domain.ApprovalApproved {
			s.Approved++
		}
	}
	return s
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored jobs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.close()

		artifacts, err := a.orch.List(ctx)
		if err != nil {
			return err
		}
		rows := make([]jobSummary, 0, len(artifacts))
		for _, art := range artifacts {
			rows = append(rows, summarize(art))
		}
		return output.To(cmd.OutOrStdout(), format, rows)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show a job with all of its pages",
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
		return output.To(cmd.OutOrStdout(), format, artifact)
	},
}

func init() {
	ingestInput.register(ingestCmd)
	ingestCmd.Flags().StringVar(&jobOpts.Brand, "brand", "", "brand the pages belong to")
	ingestCmd.Flags().StringVar(&jobOpts.SiteKey, "site-key", "", "site the pages are published to")
	ingestCmd.Flags().BoolVar(&jobOpts.RequireAllApproved, "require-all-approved", false,
		"refuse to publish until every page is approved")

	extractInput.register(extractCmd)
}
