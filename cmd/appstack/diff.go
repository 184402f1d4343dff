package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/appstack-go/internal/differ"
)

func newDiffCmd() *cobra.Command {
	var (
		flags        projectFlags
		outputFormat string
		ignoreOrder  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <old-template> [root]",
		Short: "Compare a previous template with the current synthesis",
		Long: `Diff synthesizes the project and reports the resources and outputs that
changed relative to a previously built template (JSON or YAML).

Examples:
    appstack diff deployed.json --env dev
    appstack diff deployed.yaml ./myapp --env prod --ignore-order
    appstack diff deployed.json --env dev --format json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			previous, err := differ.LoadTemplate(args[0])
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", args[0], err)
			}

			root, err := rootArg(args[1:])
			if err != nil {
				return err
			}
			syn, err := synthesize(cmd.Context(), root, flags)
			if err != nil {
				return err
			}

			result, err := differ.Compare(previous, syn.template, differ.Options{IgnoreOrder: ignoreOrder})
			if err != nil {
				return err
			}
			return outputDiffResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore list element order")

	return cmd
}

func outputDiffResult(w io.Writer, result *differ.Result, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(map[string]any{
			"diff":    result.Diff,
			"summary": result.Summary,
			"outputs": result.OutputChanges,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Summary.Total == 0 && len(result.OutputChanges) == 0 {
			fmt.Fprintln(w, "No changes.")
			return nil
		}
		for _, e := range result.Diff.Added {
			fmt.Fprintf(w, "+ %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Removed {
			fmt.Fprintf(w, "- %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Modified {
			fmt.Fprintf(w, "~ %s (%s)\n", e.Resource, e.Type)
			for _, c := range e.Changes {
				fmt.Fprintf(w, "    %s\n", c)
			}
		}
		for _, c := range result.OutputChanges {
			fmt.Fprintf(w, "output %s\n", c)
		}
		fmt.Fprintf(w, "\n%d added, %d removed, %d modified\n",
			result.Summary.Added, result.Summary.Removed, result.Summary.Modified)

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
