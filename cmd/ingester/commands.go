package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/patthub/impact-measurement-tool/internal/config"
	"github.com/patthub/impact-measurement-tool/internal/ingestion"
	"github.com/patthub/impact-measurement-tool/internal/radon"
)

var errInterrupted = errors.New("ingestion interrupted")

func newRootCmd() *cobra.Command {
	opts := globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "imeto-ingester",
		Short: "Ingest RAD-on impact cases into the impact store",
		Long: `imeto-ingester pulls impact cases and institution evaluations from the RAD-on
open data API, normalizes them and upserts them into the impact store.

Per-record failures are logged and skipped; the command exits 0 as long as the
run itself completed.`,
		Version:       version,
		SilenceUsage:  true,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&opts.dryRun, "dry-run", false, "fetch and normalize without a database (in-memory store)")
	flags.IntVar(&opts.pageSize, "page-size", 0, "records per RAD-on page (default RADON_PAGE_SIZE or 50)")
	flags.StringVar(&opts.pushgateway, "pushgateway", config.GetEnvStr("PROMETHEUS_PUSHGATEWAY_URL", ""),
		"Prometheus Pushgateway URL to push run metrics to on exit")

	rootCmd.AddCommand(
		newImpactsCmd(&opts),
		newImpactsAllCmd(&opts),
		newPlanCmd(&opts),
		newEvaluationsCmd(&opts),
	)

	return rootCmd
}

func newImpactsCmd(opts *globalOptions) *cobra.Command {
	var institutionsFile string

	cmd := &cobra.Command{
		Use:   "impacts",
		Short: "Ingest impact cases for every institution UUID listed in a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := ingestion.LoadInstitutionsFile(institutionsFile)
			if err != nil {
				return err
			}

			return runScopes(cmd, opts, ingestion.InstitutionScopes(ids), 0)
		},
	}

	cmd.Flags().StringVarP(&institutionsFile, "institutions-file", "f", "",
		"file of institution UUIDs separated by commas or newlines")
	_ = cmd.MarkFlagRequired("institutions-file")

	return cmd
}

func newImpactsAllCmd(opts *globalOptions) *cobra.Command {
	var kindCode string

	cmd := &cobra.Command{
		Use:   "impacts-all",
		Short: "Ingest every impact case of one institution kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scope := radon.KindCodeScope(kindCode)
			if err := scope.Validate(); err != nil {
				return err
			}

			return runScopes(cmd, opts, []radon.Scope{scope}, 0)
		},
	}

	cmd.Flags().StringVar(&kindCode, "kind-code", "1", "institution kind code (1 = universities)")

	return cmd
}

func newPlanCmd(opts *globalOptions) *cobra.Command {
	var planFile string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Run every scope listed in a YAML ingestion plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := ingestion.LoadPlan(planFile)
			if err != nil {
				return err
			}

			return runScopes(cmd, opts, plan.Scopes(), plan.PageSize)
		},
	}

	cmd.Flags().StringVar(&planFile, "file", "", "path to the plan file")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newEvaluationsCmd(opts *globalOptions) *cobra.Command {
	var institutionName string

	cmd := &cobra.Command{
		Use:   "evaluations",
		Short: "Ingest institution evaluations matching an institution name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := newApp(cmd.ErrOrStderr(), *opts)
			if err != nil {
				return err
			}

			defer func() {
				err = errors.Join(err, a.close(cmd.Context()))
			}()

			result := a.evaluationIngester().Run(cmd.Context(), institutionName, a.pageSize)

			cmd.Printf("Evaluations for %q: %d saved, %d failed\n", result.InstitutionName, result.Saved, result.Failed)

			if cmd.Context().Err() != nil {
				return errInterrupted
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&institutionName, "institution-name", "", "institution name to search for")
	_ = cmd.MarkFlagRequired("institution-name")

	return cmd
}

// runScopes ingests scopes sequentially. planPageSize overrides the flag when positive.
func runScopes(cmd *cobra.Command, opts *globalOptions, scopes []radon.Scope, planPageSize int) (err error) {
	a, err := newApp(cmd.ErrOrStderr(), *opts)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, a.close(cmd.Context()))
	}()

	pageSize := a.pageSize
	if planPageSize > 0 {
		pageSize = planPageSize
	}

	summary := a.ingester().RunAll(cmd.Context(), scopes, pageSize)

	printSummary(cmd.OutOrStdout(), &summary)

	if summary.Aborted() || cmd.Context().Err() != nil {
		return errInterrupted
	}

	return nil
}

func printSummary(w io.Writer, s *ingestion.Summary) {
	for i := range s.Results {
		r := &s.Results[i]

		_, _ = fmt.Fprintf(w, "%-45s %-22s saved=%d (inserted=%d updated=%d) failed=%d in %s\n",
			r.Scope, r.Status, r.Saved, r.Inserted, r.Updated, r.Failed, r.Duration().Round(time.Millisecond))
	}

	_, _ = fmt.Fprintf(w, "Total: %d scope(s), %d saved, %d failed\n", len(s.Results), s.Saved(), s.Failed())
}
