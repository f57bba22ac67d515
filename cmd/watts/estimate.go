package main

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/the-watts-must-flow/internal/cli"
	"github.com/Veraticus/the-watts-must-flow/internal/config"
	"github.com/Veraticus/the-watts-must-flow/internal/export"
	"github.com/Veraticus/the-watts-must-flow/internal/model"
	"github.com/Veraticus/the-watts-must-flow/internal/session"
)

func estimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Rank every offer by what your consumption would cost",
		Long: `Price a consumption scenario against every offer in the tariff catalog.

Start from a bill with --bill, or give the numbers yourself with --kwh and --days.
With --resume, start from the latest bills recorded in the import history
(history.database). Flags given alongside --bill or --resume override what was read. Offers from the bill's
own provider are listed first; the rest are ordered by total cost.`,
		RunE: runEstimate,
	}

	cmd.Flags().String("energy", "all", "energy type to price (electricity, gas, all)")
	cmd.Flags().String("segment", "", "customer segment (residential, business)")
	cmd.Flags().String("kwh", "", "consumption in kWh (applies to every selected energy type)")
	cmd.Flags().Int("days", 0, "billing period in days")
	cmd.Flags().String("provider", "", "provider to list first")
	cmd.Flags().String("bill", "", "bill to read the scenario from")
	cmd.Flags().Bool("resume", false, "start from the latest imported bills in the history")
	cmd.Flags().String("format", "table", "output format (table, json)")
	cmd.Flags().String("xlsx", "", "also export the ranked tables to this XLSX file")

	return cmd
}

func runEstimate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" {
		return fmt.Errorf("invalid format %q (want table or json)", format)
	}
	energyFlag, _ := cmd.Flags().GetString("energy")
	energies, err := parseEnergyTypes(energyFlag)
	if err != nil {
		return err
	}

	resume, _ := cmd.Flags().GetBool("resume")
	a, err := newApp(ctx, resume)
	if err != nil {
		return err
	}
	defer a.Close()
	sess := a.session

	if resume {
		n, err := sess.Resume(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			a.logger.Warn("No imported bills to resume from", "history", a.historyPath)
		}
	}

	if bill, _ := cmd.Flags().GetString("bill"); bill != "" {
		bill = config.ExpandPath(bill)
		result, err := a.ingest.Ingest(ctx, bill)
		if err != nil {
			return err
		}
		if _, err := sess.ApplyClassification(ctx, bill, result); err != nil {
			return err
		}
		if !cmd.Flags().Changed("energy") {
			energies = []model.EnergyType{result.EnergyType}
		}
	}

	if err := applyScenarioFlags(cmd, sess, energies); err != nil {
		return err
	}

	tables := make([]session.Table, 0, len(energies))
	all := sess.RecomputeAll()
	for _, energy := range energies {
		tables = append(tables, all[energy])
	}

	if err := exportTables(cmd, a, tables); err != nil {
		return err
	}
	return printTables(cmd, format, tables)
}

// exportTables writes the tables to the --xlsx file, if one was given. The confirmation
// goes to stderr so that stdout stays machine-readable.
func exportTables(cmd *cobra.Command, a *app, tables []session.Table) error {
	path, _ := cmd.Flags().GetString("xlsx")
	if path == "" {
		return nil
	}
	path = config.ExpandPath(path)
	if err := export.NewExporter(a.logger).Save(path, tables); err != nil {
		return err
	}
	_, err := fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Exported cost tables to "+path))
	return err
}

// applyScenarioFlags applies the explicit scenario flags on top of the session state.
func applyScenarioFlags(cmd *cobra.Command, sess *session.Session, energies []model.EnergyType) error {
	flags := cmd.Flags()

	if flags.Changed("segment") {
		v, _ := flags.GetString("segment")
		segment, err := model.ParseSegment(v)
		if err != nil {
			return err
		}
		sess.SetSegment(segment)
	}
	if flags.Changed("kwh") {
		v, _ := flags.GetString("kwh")
		kwh, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("invalid --kwh %q: %w", v, err)
		}
		for _, energy := range energies {
			sess.SetKWh(energy, kwh)
		}
	}
	if flags.Changed("days") {
		days, _ := flags.GetInt("days")
		if err := sess.SetDays(days); err != nil {
			return err
		}
	}
	if flags.Changed("provider") {
		provider, _ := flags.GetString("provider")
		sess.SetDetectedProvider(provider)
	}
	return nil
}

func printTables(cmd *cobra.Command, format string, tables []session.Table) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(tables)
	}

	for _, t := range tables {
		if _, err := fmt.Fprintln(out, cli.RenderCostTable(t)); err != nil {
			return err
		}
	}
	return nil
}
