// Command pg-migrations is the custom resource handler that applies the
// packaged Postgres migrations on stack create and update. It talks to the
// cluster through the RDS Data API, so it runs outside the cluster VPC.
//
// Build it for provided.al2023 and pass the binary to
// "appstack build --pg-migrations-bin":
//
//	GOOS=linux GOARCH=arm64 go build -o bootstrap ./cmd/pg-migrations
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/lex00/appstack-go/internal/logging"
	"github.com/lex00/appstack-go/internal/migrate"
)

// runner applies the migrations named by settings.
type runner func(ctx context.Context, settings migrate.Settings, logger *slog.Logger) (migrate.Result, error)

type handler struct {
	getenv func(string) string
	run    runner
	logger *slog.Logger
}

// Handle runs the migrations on Create and Update. Delete leaves the
// database alone.
func (h *handler) Handle(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	logger := h.logger.With("request", event.RequestType, "resource", event.LogicalResourceID)

	if event.RequestType == cfn.RequestDelete {
		logger.Info("delete request, nothing to do")
		return event.PhysicalResourceID, nil, nil
	}

	settings, err := migrate.SettingsFromEnv(h.getenv)
	if err != nil {
		return "", nil, err
	}
	if !filepath.IsAbs(settings.Dir) {
		if taskRoot := h.getenv("LAMBDA_TASK_ROOT"); taskRoot != "" {
			settings.Dir = filepath.Join(taskRoot, settings.Dir)
		}
	}

	result, err := h.run(ctx, settings, logger)
	if err != nil {
		return "", nil, fmt.Errorf("running migrations: %w", err)
	}

	physicalID := event.PhysicalResourceID
	if physicalID == "" {
		physicalID = fmt.Sprintf("%s-%s", settings.Database, settings.Table)
	}
	return physicalID, map[string]interface{}{
		"Applied": len(result.Applied),
		"Skipped": len(result.Skipped),
	}, nil
}

// runMigrations loads the migration files and applies the new ones.
func runMigrations(ctx context.Context, settings migrate.Settings, logger *slog.Logger) (migrate.Result, error) {
	migrations, err := migrate.Load(settings.Dir)
	if err != nil {
		return migrate.Result{}, err
	}

	client, err := migrate.NewDataAPIClient(ctx)
	if err != nil {
		return migrate.Result{}, err
	}
	store, err := migrate.NewDataAPIStore(client, settings)
	if err != nil {
		return migrate.Result{}, err
	}

	return migrate.Run(ctx, store, migrations, logger)
}

func main() {
	h := &handler{
		getenv: os.Getenv,
		run:    runMigrations,
		logger: logging.Init("", "json"),
	}
	lambda.Start(cfn.LambdaWrap(h.Handle))
}
