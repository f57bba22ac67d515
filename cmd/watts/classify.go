package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-watts-must-flow/internal/cli"
	"github.com/Veraticus/the-watts-must-flow/internal/common"
	"github.com/Veraticus/the-watts-must-flow/internal/config"
	"github.com/Veraticus/the-watts-must-flow/internal/model"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <bill>...",
		Short: "Read bills and report what they are for",
		Long: `Read one or more electricity or natural gas bills (PDF or plain text) and report
the energy type, provider, consumption and billing period found in each.

Nothing is priced or recorded; use 'watts estimate --bill' or 'watts import' for that.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().String("format", "table", "output format (table, json)")

	return cmd
}

type classifyOutput struct {
	Result *model.ClassificationResult `json:"result,omitempty"`
	Path   string                      `json:"path"`
	Error  string                      `json:"error,omitempty"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" {
		return fmt.Errorf("invalid format %q (want table or json)", format)
	}

	ingestCfg, err := config.LoadIngestConfig()
	if err != nil {
		return err
	}
	reader, err := initIngest(ingestCfg, slog.Default())
	if err != nil {
		return err
	}

	outputs := make([]classifyOutput, 0, len(args))
	failed := 0
	for _, path := range args {
		path = config.ExpandPath(path)
		result, err := reader.Ingest(ctx, path)
		if err != nil {
			if !common.IsInputError(err) {
				return err
			}
			failed++
			outputs = append(outputs, classifyOutput{Path: path, Error: err.Error()})
			continue
		}
		outputs = append(outputs, classifyOutput{Path: path, Result: &result})
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(outputs); err != nil {
			return err
		}
	} else {
		for _, out := range outputs {
			if out.Result == nil {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatError(out.Error))
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderClassification(out.Path, *out.Result))
		}
	}

	if failed == len(args) {
		return errors.New("no bill could be read")
	}
	return nil
}
