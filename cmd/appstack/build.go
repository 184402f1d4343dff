package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lex00/appstack-go/internal/asset"
)

func newBuildCmd() *cobra.Command {
	var (
		flags        projectFlags
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "build [root]",
		Short: "Generate the CloudFormation template of a project",
		Long: `Build scans the project tree, wires every resource and prints the template.

With --assets-dir the lambda zips are written there together with an
assets.json manifest listing the object keys the template points at.

Examples:
    appstack build --env dev
    appstack build ./myapp --env prod -o template.json
    appstack build --env dev --format yaml --assets-dir .appstack/assets`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := rootArg(args)
			if err != nil {
				return err
			}
			return runBuild(cmd, root, flags, outputFormat, outputFile)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runBuild(cmd *cobra.Command, root string, flags projectFlags, format, outputFile string) error {
	syn, err := synthesize(cmd.Context(), root, flags)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	data, err := encodeTemplate(syn.template, format)
	if err != nil {
		return err
	}

	if flags.assetsDir != "" {
		if err := writeManifest(flags.assetsDir, &syn.stack.Assets); err != nil {
			return err
		}
	}

	if outputFile == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	return os.WriteFile(outputFile, data, 0644)
}

func writeManifest(dir string, m *asset.Manifest) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return m.Write(filepath.Join(dir, asset.ManifestFile))
}
