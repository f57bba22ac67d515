package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/the-watts-must-flow/internal/cli"
	"github.com/Veraticus/the-watts-must-flow/internal/common"
	"github.com/Veraticus/the-watts-must-flow/internal/config"
	"github.com/Veraticus/the-watts-must-flow/internal/model"
	"github.com/Veraticus/the-watts-must-flow/internal/session"
	"github.com/Veraticus/the-watts-must-flow/internal/storage"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <bill>...",
		Short: "Import several bills and compare offers for the latest one",
		Long: `Read a batch of bills in order. Each readable bill becomes the active one: its
consumption goes to its energy type and its billing period and provider replace the
previous ones. Unreadable bills are recorded and skipped.

When the batch is done the import history is shown, followed by the ranked offers
for every energy type seen in the batch.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().Bool("no-progress", false, "do not show a progress bar")
	cmd.Flags().String("xlsx", "", "export the ranked tables to this XLSX file")

	return cmd
}

// importSummary counts what happened to a batch.
type importSummary struct {
	seen     map[model.EnergyType]bool
	imported int
	failed   int
}

func runImport(cmd *cobra.Command, args []string) error {
	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Import")
	ctx := interrupts.HandleInterrupts(cmd.Context(), true)

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	noProgress, _ := cmd.Flags().GetBool("no-progress")
	summary, err := importBills(ctx, a, args, !noProgress, cmd)
	if err != nil && !interrupts.WasInterrupted() {
		return err
	}

	records, failures, err := a.session.History(context.WithoutCancel(ctx))
	if err != nil {
		return fmt.Errorf("failed to read import history: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderHistory(records, failures))

	if summary.imported == 0 {
		return errors.New("no bill could be imported")
	}

	tables := make([]session.Table, 0, len(model.EnergyTypes))
	all := a.session.RecomputeAll()
	for _, energy := range model.EnergyTypes {
		if summary.seen[energy] {
			tables = append(tables, all[energy])
		}
	}

	if err := exportTables(cmd, a, tables); err != nil {
		return err
	}
	return printTables(cmd, "table", tables)
}

// importBills ingests each bill in order. Bills that cannot be read or whose result is
// rejected by the history are recorded as failures; only cancellation and history
// errors stop the batch.
func importBills(ctx context.Context, a *app, paths []string, progress bool, cmd *cobra.Command) (importSummary, error) {
	summary := importSummary{seen: make(map[model.EnergyType]bool)}

	var bar *progressbar.ProgressBar
	if progress {
		bar = cli.NewProgressBar(cmd.ErrOrStderr(), len(paths), "Importing bills...")
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		path = config.ExpandPath(path)

		result, err := a.ingest.Ingest(ctx, path)
		switch {
		case err == nil:
			_, err := a.session.ApplyClassification(ctx, path, result)
			if errors.Is(err, storage.ErrInvalidImport) {
				summary.failed++
				if recErr := a.session.RecordFailure(ctx, path, err); recErr != nil {
					return summary, recErr
				}
				break
			}
			if err != nil {
				return summary, err
			}
			summary.imported++
			summary.seen[result.EnergyType] = true
		case common.IsInputError(err):
			summary.failed++
			if recErr := a.session.RecordFailure(ctx, path, errors.Unwrap(err)); recErr != nil {
				return summary, recErr
			}
		default:
			return summary, err
		}

		if bar != nil {
			if err := bar.Add(1); err != nil {
				slog.Warn("Failed to update progress bar", "error", err)
			}
		}
	}

	a.logger.Info("Import finished", "imported", summary.imported, "failed", summary.failed)
	return summary, nil
}
