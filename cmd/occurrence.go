package cmd

import (
	"context"

	tomlrepo "github.com/bnema/exati-cli/internal/adapters/repo/toml"
	"github.com/bnema/exati-cli/internal/application"
	"github.com/spf13/cobra"
)

type batchOptions struct {
	path   string
	asJSON bool
	asCSV  bool
	dryRun bool
}

func newOccurrenceCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "occurrence",
		Short: "Create and delete occurrences in batches",
	}

	cmd.AddCommand(
		newOccurrenceBatchCmd(app, application.BatchSave, "Create every occurrence of a batch file"),
		newOccurrenceBatchCmd(app, application.BatchDelete, "Delete every occurrence of a batch file"),
	)

	return cmd
}

func newOccurrenceBatchCmd(app *app, operation application.BatchOperation, short string) *cobra.Command {
	var opts batchOptions

	cmd := &cobra.Command{
		Use:   string(operation),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOccurrenceBatch(cmd, app, operation, opts)
		},
	}

	cmd.Flags().StringVar(&opts.path, "batch", "", "Batch file (TOML); outcomes are written back to it")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Render JSON output")
	cmd.Flags().BoolVar(&opts.asCSV, "csv", false, "Render CSV output")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Validate the batch without contacting the backend")
	_ = cmd.MarkFlagRequired("batch")
	cmd.MarkFlagsMutuallyExclusive("json", "csv")

	return cmd
}

func runOccurrenceBatch(cmd *cobra.Command, app *app, operation application.BatchOperation, opts batchOptions) error {
	format := resolveFormat(opts.asJSON, opts.asCSV, outputHuman)
	repo := tomlrepo.NewBatchRepository(opts.path)

	var result application.BatchResult
	run := func(ctx context.Context, report progressFunc) error {
		var runner application.BatchRunner
		if !opts.dryRun {
			session, err := app.openSession(ctx)
			if err != nil {
				return err
			}
			orchestrator := application.NewOrchestrator(session, nil, app.logger)
			if report != nil {
				orchestrator.OnProgress(report)
			}
			runner = orchestrator
		}

		var err error
		result, err = app.service.RunBatch(ctx, repo, runner, application.RunBatchCommand{
			Operation: operation,
			DryRun:    opts.dryRun,
		})
		return err
	}

	var runErr error
	if format == outputHuman {
		runErr = runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Processing "+string(operation)+" batch...", run)
	} else {
		runErr = run(cmd.Context(), nil)
	}

	if len(result.Occurrences) > 0 {
		if err := writeBatchResult(cmd, app, result, format, opts.dryRun); err != nil {
			return err
		}
	}
	return runErr
}
