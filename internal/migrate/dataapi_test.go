package migrate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/appstack-go/internal/logging"
)

// fakeDataAPI records statements and keeps keys in memory.
type fakeDataAPI struct {
	statements []*rdsdata.ExecuteStatementInput
	keys       []string
	resuming   int
	failOn     string
	committed  int
	rolledBack int
}

func (f *fakeDataAPI) ExecuteStatement(_ context.Context, in *rdsdata.ExecuteStatementInput, _ ...func(*rdsdata.Options)) (*rdsdata.ExecuteStatementOutput, error) {
	if f.resuming > 0 {
		f.resuming--
		return nil, &smithy.GenericAPIError{Code: "DatabaseResumingException", Message: "resuming"}
	}
	f.statements = append(f.statements, in)
	sql := aws.ToString(in.Sql)
	if f.failOn != "" && sql == f.failOn {
		return nil, errors.New("syntax error")
	}

	out := &rdsdata.ExecuteStatementOutput{}
	switch sql {
	case selectKeysSQL(`"appstack_migrations"`):
		for _, k := range f.keys {
			out.Records = append(out.Records, []types.Field{&types.FieldMemberStringValue{Value: k}})
		}
	case insertNamedKeySQL(`"appstack_migrations"`):
		f.keys = append(f.keys, in.Parameters[0].Value.(*types.FieldMemberStringValue).Value)
	}
	return out, nil
}

func (f *fakeDataAPI) BeginTransaction(context.Context, *rdsdata.BeginTransactionInput, ...func(*rdsdata.Options)) (*rdsdata.BeginTransactionOutput, error) {
	return &rdsdata.BeginTransactionOutput{TransactionId: aws.String("tx-1")}, nil
}

func (f *fakeDataAPI) CommitTransaction(context.Context, *rdsdata.CommitTransactionInput, ...func(*rdsdata.Options)) (*rdsdata.CommitTransactionOutput, error) {
	f.committed++
	return &rdsdata.CommitTransactionOutput{}, nil
}

func (f *fakeDataAPI) RollbackTransaction(context.Context, *rdsdata.RollbackTransactionInput, ...func(*rdsdata.Options)) (*rdsdata.RollbackTransactionOutput, error) {
	f.rolledBack++
	return &rdsdata.RollbackTransactionOutput{}, nil
}

func testSettings() Settings {
	return Settings{
		ClusterArn: "arn:aws:rds:us-east-1:123456789012:cluster:app",
		SecretArn:  "arn:aws:secretsmanager:us-east-1:123456789012:secret:app",
		Database:   "App",
	}
}

func newTestDataAPIStore(t *testing.T, api *fakeDataAPI) *DataAPIStore {
	t.Helper()
	store, err := NewDataAPIStore(api, testSettings())
	require.NoError(t, err)
	store.ResumeWait = time.Millisecond
	return store
}

func TestDataAPIStore_Run(t *testing.T) {
	api := &fakeDataAPI{keys: []string{"001_init"}}
	store := newTestDataAPIStore(t, api)
	migrations, err := Load(writeMigrations(t, "001_init.sql", "002_orders.sql"))
	require.NoError(t, err)

	result, err := Run(context.Background(), store, migrations, logging.Discard())
	require.NoError(t, err)

	assert.Equal(t, []string{"002_orders"}, result.Applied)
	assert.Equal(t, []string{"001_init"}, result.Skipped)
	assert.Equal(t, []string{"001_init", "002_orders"}, api.keys)
	assert.Equal(t, 1, api.committed)
	assert.Zero(t, api.rolledBack)

	first := api.statements[0]
	assert.Equal(t, createTableSQL(`"appstack_migrations"`), aws.ToString(first.Sql))
	assert.Equal(t, testSettings().ClusterArn, aws.ToString(first.ResourceArn))
	assert.Equal(t, testSettings().SecretArn, aws.ToString(first.SecretArn))
	assert.Equal(t, "App", aws.ToString(first.Database))
	assert.Nil(t, first.TransactionId)

	// migration body and key insert run inside the transaction
	for _, stmt := range api.statements[2:] {
		assert.Equal(t, "tx-1", aws.ToString(stmt.TransactionId))
	}
}

func TestDataAPIStore_RollbackOnFailure(t *testing.T) {
	api := &fakeDataAPI{failOn: "SELECT 1;"}
	store := newTestDataAPIStore(t, api)
	migrations, err := Load(writeMigrations(t, "001_init.sql"))
	require.NoError(t, err)

	_, err = Run(context.Background(), store, migrations, logging.Discard())
	assert.ErrorContains(t, err, "applying migration 001_init")
	assert.Equal(t, 1, api.rolledBack)
	assert.Zero(t, api.committed)
	assert.Empty(t, api.keys)
}

func TestDataAPIStore_EnsureWaitsForResume(t *testing.T) {
	api := &fakeDataAPI{resuming: 2}
	store := newTestDataAPIStore(t, api)

	require.NoError(t, store.Ensure(context.Background()))
	assert.Len(t, api.statements, 1)

	api = &fakeDataAPI{resuming: 5}
	store = newTestDataAPIStore(t, api)
	store.ResumeAttempts = 3
	err := store.Ensure(context.Background())
	assert.True(t, isResuming(err))
	assert.Empty(t, api.statements)
}

func TestNewDataAPIStore_MissingSetting(t *testing.T) {
	settings := testSettings()
	settings.ClusterArn = ""
	_, err := NewDataAPIStore(&fakeDataAPI{}, settings)
	assert.ErrorIs(t, err, ErrMissingSetting)
	assert.Contains(t, err.Error(), EnvClusterArn)
}
