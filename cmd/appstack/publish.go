package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lex00/appstack-go/internal/asset"
)

// Environment variables holding the object storage credentials.
const (
	envAccessKey = "APPSTACK_ASSET_ACCESS_KEY"
	envSecretKey = "APPSTACK_ASSET_SECRET_KEY"
)

func newPublishCmd() *cobra.Command {
	var (
		flags    projectFlags
		endpoint string
		bucket   string
		region   string
		insecure bool
	)

	cmd := &cobra.Command{
		Use:   "publish [root]",
		Short: "Build the assets and upload them to the asset bucket",
		Long: `Publish packages every lambda (and the migrations bundle) and uploads the
zips missing from the bucket. Pass the same bucket as the AssetBucket
template parameter when deploying.

Credentials are read from ` + envAccessKey + ` and ` + envSecretKey + `.

Examples:
    appstack publish --env dev --endpoint s3.amazonaws.com --bucket my-assets
    appstack publish --env dev --endpoint localhost:9000 --bucket assets --insecure`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := rootArg(args)
			if err != nil {
				return err
			}

			if flags.assetsDir == "" {
				dir, err := os.MkdirTemp("", "appstack-assets-")
				if err != nil {
					return err
				}
				defer os.RemoveAll(dir)
				flags.assetsDir = dir
			}

			store, err := asset.NewS3Store(asset.S3Config{
				Endpoint:  endpoint,
				Region:    region,
				AccessKey: os.Getenv(envAccessKey),
				SecretKey: os.Getenv(envSecretKey),
				Bucket:    bucket,
				UseSSL:    !insecure,
			})
			if err != nil {
				return err
			}

			syn, err := synthesize(cmd.Context(), root, flags)
			if err != nil {
				return err
			}

			result, err := asset.Publish(cmd.Context(), store, &syn.stack.Assets, slog.Default())
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&endpoint, "endpoint", "s3.amazonaws.com", "S3 compatible endpoint")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Asset bucket")
	cmd.Flags().StringVar(&region, "region", "", "Bucket region (default: us-east-1)")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "Connect without TLS")

	return cmd
}
