package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/the-watts-must-flow/internal/catalog"
	"github.com/Veraticus/the-watts-must-flow/internal/cli"
	"github.com/Veraticus/the-watts-must-flow/internal/config"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect, validate and sync the tariff catalog",
	}

	cmd.AddCommand(catalogShowCmd())
	cmd.AddCommand(catalogValidateCmd())
	cmd.AddCommand(catalogFetchCmd())
	cmd.AddCommand(catalogWatchCmd())

	return cmd
}

func catalogShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Summarize the local catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadCatalogConfig()
			if err != nil {
				return err
			}
			store := catalog.NewStore(nil)
			snap, err := store.Load(cmd.Context(), catalog.FileSource{Path: cfg.Path})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderCatalog(snap))
			return nil
		},
	}
}

func catalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a catalog file without installing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ExpandPath(args[0])
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read catalog: %w", err)
			}
			snap, err := catalog.Parse(data, path)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatError(err.Error()))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s is a valid catalog", path)))
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderCatalog(snap))
			return nil
		},
	}
}

func catalogFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the remote catalog and replace the local file",
		Long: `Download the catalog from catalog.url (or --url), validate it, and atomically
replace the local catalog file. The local file is left untouched if the download or
the validation fails.`,
		RunE: runCatalogFetch,
	}

	cmd.Flags().String("url", "", "remote catalog URL (overrides catalog.url)")

	return cmd
}

func runCatalogFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadCatalogConfig()
	if err != nil {
		return err
	}
	if url, _ := cmd.Flags().GetString("url"); url != "" {
		cfg.URL = url
	}
	src := cfg.HTTPSource()
	if src == nil {
		return errors.New("no remote catalog configured (set catalog.url or pass --url)")
	}

	snap, err := catalog.NewStore(nil).Sync(cmd.Context(), src, cfg.Path)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Catalog saved to "+cfg.Path))
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderCatalog(snap))
	return nil
}

func catalogWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reprice a scenario whenever the catalog changes",
		Long: `Keep the catalog loaded and print fresh rankings every time the catalog file is
replaced. When catalog.refresh_schedule is set (or --schedule is given), the remote
catalog is also downloaded on that cron schedule.

A catalog that fails to load is reported and the previous one stays in use.`,
		RunE: runCatalogWatch,
	}

	cmd.Flags().String("schedule", "", "cron schedule for remote refreshes (overrides catalog.refresh_schedule)")
	cmd.Flags().String("energy", "all", "energy type to price (electricity, gas, all)")
	cmd.Flags().String("segment", "", "customer segment (residential, business)")
	cmd.Flags().String("kwh", "", "consumption in kWh")
	cmd.Flags().Int("days", 0, "billing period in days")
	cmd.Flags().String("provider", "", "provider to list first")

	return cmd
}

func runCatalogWatch(cmd *cobra.Command, _ []string) error {
	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Watch")
	ctx := interrupts.HandleInterrupts(cmd.Context(), false)

	energyFlag, _ := cmd.Flags().GetString("energy")
	energies, err := parseEnergyTypes(energyFlag)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := applyScenarioFlags(cmd, a.session, energies); err != nil {
		return err
	}

	render := func() {
		all := a.session.RecomputeAll()
		for _, energy := range energies {
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderCostTable(all[energy]))
		}
	}
	render()

	watcher := catalog.NewWatcher(a.store, a.catalog.Path, catalog.WithReloadHook(func(snap *catalog.Snapshot, err error) {
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("Catalog update rejected, keeping the previous one: "+err.Error()))
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Catalog reloaded: "+snap.String()))
		render()
	}))

	var refresher *catalog.Refresher
	schedule := a.catalog.RefreshSchedule
	if s, _ := cmd.Flags().GetString("schedule"); s != "" {
		schedule = s
	}
	if schedule != "" {
		src := a.catalog.HTTPSource()
		if src == nil {
			return errors.New("a refresh schedule needs catalog.url")
		}
		refresher, err = catalog.NewRefresher(a.store, src, a.catalog.Path, schedule)
		if err != nil {
			return err
		}
		a.logger.Info("Scheduled catalog refresh", "schedule", schedule, "next", refresher.Next())
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return watcher.Run(ctx) })
	if refresher != nil {
		g.Go(func() error { return refresher.Run(ctx) })
	}

	fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatInfo(fmt.Sprintf("Watching %s (Ctrl+C to stop)", a.catalog.Path)))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
