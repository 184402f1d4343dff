package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	appstack "github.com/lex00/appstack-go"
)

func newListCmd() *cobra.Command {
	var (
		flags        projectFlags
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "list [root]",
		Short: "List the resources a project synthesizes to",
		Long: `List assembles the project and prints every logical ID with its type.

Examples:
    appstack list --env dev
    appstack list ./myapp --env dev --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := rootArg(args)
			if err != nil {
				return err
			}
			syn, err := synthesize(cmd.Context(), root, flags)
			if err != nil {
				return err
			}
			return outputListResult(cmd.OutOrStdout(), listResources(syn.template), outputFormat)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func listResources(t *appstack.Template) appstack.ListResult {
	result := appstack.ListResult{
		Resources: make([]appstack.ListResource, 0, len(t.Resources)),
	}
	for _, name := range sortedNames(t.Resources) {
		result.Resources = append(result.Resources, appstack.ListResource{
			Name: name,
			Type: t.Resources[name].Type,
		})
	}
	return result
}

func outputListResult(w io.Writer, result appstack.ListResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(w, "No resources found.")
			return nil
		}

		fmt.Fprintf(w, "Resources (%d):\n\n", len(result.Resources))
		for _, res := range result.Resources {
			fmt.Fprintf(w, "  %s: %s\n", res.Name, res.Type)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
