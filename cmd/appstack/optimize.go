package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	appstack "github.com/lex00/appstack-go"
	"github.com/lex00/appstack-go/internal/optimizer"
)

// newOptimizeCmd creates the "optimize" subcommand for suggesting improvements.
func newOptimizeCmd() *cobra.Command {
	var (
		flags        projectFlags
		outputFormat string
		category     string
	)

	cmd := &cobra.Command{
		Use:   "optimize [root]",
		Short: "Suggest improvements for the synthesized resources",
		Long: `Optimize synthesizes the project and suggests improvements for security,
cost, performance and reliability. Suggestions are advisory and never fail
the command.

Examples:
    appstack optimize --env prod
    appstack optimize --env prod --category security
    appstack optimize --env prod -f json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !optimizer.ValidCategory(category) {
				return fmt.Errorf("invalid category: %s (valid: all, %s)", category, strings.Join(optimizer.Categories, ", "))
			}

			root, err := rootArg(args)
			if err != nil {
				return err
			}
			syn, err := synthesize(cmd.Context(), root, flags)
			if err != nil {
				return fmt.Errorf("optimize failed: %w", err)
			}

			optResult, err := optimizer.Optimize(syn.template, optimizer.Options{Category: category})
			if err != nil {
				return fmt.Errorf("optimize failed: %w", err)
			}

			return outputOptimizeResult(cmd.OutOrStdout(), appstack.OptimizeResult{
				Success:       true,
				Suggestions:   optResult.Suggestions,
				ResourceCount: len(syn.template.Resources),
				Summary:       optResult.Summary,
			}, outputFormat)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVarP(&category, "category", "c", optimizer.CategoryAll, "Category: all, security, cost, performance, or reliability")

	return cmd
}

func outputOptimizeResult(w io.Writer, result appstack.OptimizeResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Suggestions) == 0 {
			fmt.Fprintf(w, "Analyzed %d resources. No optimization suggestions.\n", result.ResourceCount)
			return nil
		}

		fmt.Fprintf(w, "Analyzed %d resources. Found %d suggestions:\n\n", result.ResourceCount, result.Summary.Total)

		byCat := map[string][]appstack.OptimizeSuggestion{}
		for _, s := range result.Suggestions {
			byCat[s.Category] = append(byCat[s.Category], s)
		}

		for _, cat := range optimizer.Categories {
			suggestions := byCat[cat]
			if len(suggestions) == 0 {
				continue
			}

			fmt.Fprintf(w, "=== %s (%d) ===\n", capitalize(cat), len(suggestions))
			for _, s := range suggestions {
				fmt.Fprintf(w, "\n[%s] %s (%s)\n", s.Severity, s.Title, s.Rule)
				fmt.Fprintf(w, "  Resource: %s\n", s.Resource)
				fmt.Fprintf(w, "  %s\n", s.Description)
				fmt.Fprintf(w, "  Suggestion: %s\n", s.Suggestion)
			}
			fmt.Fprintln(w)
		}

		fmt.Fprintf(w, "Summary: %d security, %d cost, %d performance, %d reliability\n",
			result.Summary.Security, result.Summary.Cost,
			result.Summary.Performance, result.Summary.Reliability)

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
