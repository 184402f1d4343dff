// Command appstack synthesizes a CloudFormation template from a project laid
// out by convention.
//
// Usage:
//
//	appstack build --env dev          Generate the template and assets
//	appstack graph -f mermaid         Render the resource graph
//	appstack validate                 Lint the synthesized template
//	appstack version                  Show version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lex00/appstack-go/internal/logging"
)

func main() {
	var (
		logLevel  string
		logFormat string
	)

	rootCmd := &cobra.Command{
		Use:   "appstack",
		Short: "Synthesize an AWS app stack from convention directories",
		Long: `appstack reads a project tree and a configuration context and
synthesizes one CloudFormation template wiring AppSync, Cognito, DynamoDB,
Aurora Postgres and Lambda together.

    src/lambdas/<name>/                       lambda sources
    src/databases/dynamodb/tables/*.json      table descriptors
    src/databases/postgres/migrations/*.sql   Postgres migrations
    src/graphql/schema.graphql                GraphQL schema
    src/graphql/resolvers/                    resolver templates

Then generate the template:

    appstack build --env dev -o template.json`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(logLevel, logFormat)
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(
		newBuildCmd(),
		newListCmd(),
		newGraphCmd(),
		newValidateCmd(),
		newDiffCmd(),
		newOptimizeCmd(),
		newWatchCmd(),
		newPublishCmd(),
		newMigrateCmd(),
		newVersionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("appstack %s\n", getVersion())
		},
	}
}
