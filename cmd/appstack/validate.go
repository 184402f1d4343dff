package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	appstack "github.com/lex00/appstack-go"
	"github.com/lex00/appstack-go/internal/validation"
)

// errValidation is returned when the template has lint errors.
var errValidation = errors.New("validation failed")

// newValidateCmd creates the "validate" subcommand.
func newValidateCmd() *cobra.Command {
	var (
		flags        projectFlags
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "validate [root]",
		Short: "Synthesize the template and lint it",
		Long: `Validate assembles the project and runs cfn-lint-go on the template.

Assembly already rejects unresolved data sources, unknown references and
dependency cycles. Lint errors fail the command; warnings are reported only.

Examples:
    appstack validate --env dev
    appstack validate --env dev --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := rootArg(args)
			if err != nil {
				return err
			}

			var result *appstack.ValidateResult
			syn, err := synthesize(cmd.Context(), root, flags)
			if err != nil {
				result = &appstack.ValidateResult{Errors: []string{err.Error()}}
			} else if result, err = validation.Validate(syn.template); err != nil {
				return err
			}

			if err := outputValidateResult(cmd.OutOrStdout(), *result, outputFormat); err != nil {
				return err
			}
			if !result.Success {
				return errValidation
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func outputValidateResult(w io.Writer, result appstack.ValidateResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Success {
			fmt.Fprintf(w, "Validation passed: %d resources OK\n", result.Resources)
		} else {
			fmt.Fprintln(w, "Validation FAILED:")
		}
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
