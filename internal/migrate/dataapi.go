package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/aws/smithy-go"
)

// DataAPI is the part of the RDS Data API client DataAPIStore uses.
type DataAPI interface {
	ExecuteStatement(ctx context.Context, in *rdsdata.ExecuteStatementInput, optFns ...func(*rdsdata.Options)) (*rdsdata.ExecuteStatementOutput, error)
	BeginTransaction(ctx context.Context, in *rdsdata.BeginTransactionInput, optFns ...func(*rdsdata.Options)) (*rdsdata.BeginTransactionOutput, error)
	CommitTransaction(ctx context.Context, in *rdsdata.CommitTransactionInput, optFns ...func(*rdsdata.Options)) (*rdsdata.CommitTransactionOutput, error)
	RollbackTransaction(ctx context.Context, in *rdsdata.RollbackTransactionInput, optFns ...func(*rdsdata.Options)) (*rdsdata.RollbackTransactionOutput, error)
}

// NewDataAPIClient builds a Data API client from the default AWS
// configuration chain.
func NewDataAPIClient(ctx context.Context) (*rdsdata.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return rdsdata.NewFromConfig(cfg), nil
}

// Resume waits used while an auto-paused cluster starts.
const (
	DefaultResumeAttempts = 10
	DefaultResumeWait     = 10 * time.Second
)

// DataAPIStore keeps migration keys through the RDS Data API. The caller
// needs no network path to the cluster; credentials come from the secret.
type DataAPIStore struct {
	Client   DataAPI
	Settings Settings

	// ResumeAttempts and ResumeWait bound the retries of the first
	// statement while the cluster resumes.
	ResumeAttempts int
	ResumeWait     time.Duration
}

// NewDataAPIStore checks the settings and returns a store using client.
func NewDataAPIStore(client DataAPI, settings Settings) (*DataAPIStore, error) {
	if err := settings.check(); err != nil {
		return nil, err
	}
	return &DataAPIStore{
		Client:         client,
		Settings:       settings,
		ResumeAttempts: DefaultResumeAttempts,
		ResumeWait:     DefaultResumeWait,
	}, nil
}

func (s *DataAPIStore) table() string {
	return quoteTable(s.Settings.Table)
}

func (s *DataAPIStore) execute(ctx context.Context, sql, txID string, params ...types.SqlParameter) (*rdsdata.ExecuteStatementOutput, error) {
	in := &rdsdata.ExecuteStatementInput{
		ResourceArn: aws.String(s.Settings.ClusterArn),
		SecretArn:   aws.String(s.Settings.SecretArn),
		Database:    aws.String(s.Settings.Database),
		Sql:         aws.String(sql),
		Parameters:  params,
	}
	if txID != "" {
		in.TransactionId = aws.String(txID)
	}
	return s.Client.ExecuteStatement(ctx, in)
}

// Ensure creates the tracking table, waiting for a paused cluster to
// resume.
func (s *DataAPIStore) Ensure(ctx context.Context) error {
	stmt := createTableSQL(s.table())
	for attempt := 1; ; attempt++ {
		_, err := s.execute(ctx, stmt, "")
		if err == nil || !isResuming(err) || attempt >= s.ResumeAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.ResumeWait):
		}
	}
}

// Applied returns every recorded key.
func (s *DataAPIStore) Applied(ctx context.Context) (map[string]bool, error) {
	out, err := s.execute(ctx, selectKeysSQL(s.table()), "")
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool)
	for _, record := range out.Records {
		if len(record) == 0 {
			continue
		}
		if v, ok := record[0].(*types.FieldMemberStringValue); ok {
			keys[v.Value] = true
		}
	}
	return keys, nil
}

// Apply runs every migration and records its key in one transaction.
func (s *DataAPIStore) Apply(ctx context.Context, migrations []Migration) (err error) {
	begin, err := s.Client.BeginTransaction(ctx, &rdsdata.BeginTransactionInput{
		ResourceArn: aws.String(s.Settings.ClusterArn),
		SecretArn:   aws.String(s.Settings.SecretArn),
		Database:    aws.String(s.Settings.Database),
	})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	txID := aws.ToString(begin.TransactionId)

	defer func() {
		if err == nil {
			return
		}
		_, _ = s.Client.RollbackTransaction(context.WithoutCancel(ctx), &rdsdata.RollbackTransactionInput{
			ResourceArn:   aws.String(s.Settings.ClusterArn),
			SecretArn:     aws.String(s.Settings.SecretArn),
			TransactionId: aws.String(txID),
		})
	}()

	insert := insertNamedKeySQL(s.table())
	for _, m := range migrations {
		body, err := os.ReadFile(m.Path)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", m.Key, err)
		}
		if _, err := s.execute(ctx, string(body), txID); err != nil {
			return fmt.Errorf("applying migration %s: %w", m.Key, err)
		}
		key := types.SqlParameter{Name: aws.String("key"), Value: &types.FieldMemberStringValue{Value: m.Key}}
		if _, err := s.execute(ctx, insert, txID, key); err != nil {
			return fmt.Errorf("recording migration %s: %w", m.Key, err)
		}
	}

	_, err = s.Client.CommitTransaction(ctx, &rdsdata.CommitTransactionInput{
		ResourceArn:   aws.String(s.Settings.ClusterArn),
		SecretArn:     aws.String(s.Settings.SecretArn),
		TransactionId: aws.String(txID),
	})
	if err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// isResuming reports whether err says the cluster is still starting.
func isResuming(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "DatabaseResumingException"
}
