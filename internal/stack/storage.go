package stack

import (
	"github.com/lex00/appstack-go/internal/config"
	"github.com/lex00/appstack-go/internal/descriptor"
	"github.com/lex00/appstack-go/internal/migrate"
	"github.com/lex00/appstack-go/internal/naming"
	"github.com/lex00/appstack-go/intrinsics"
	"github.com/lex00/appstack-go/resources/cloudformation"
	"github.com/lex00/appstack-go/resources/dynamodb"
	"github.com/lex00/appstack-go/resources/iam"
	"github.com/lex00/appstack-go/resources/lambda"
	"github.com/lex00/appstack-go/resources/rds"
	"github.com/lex00/appstack-go/resources/secretsmanager"
)

// Postgres cluster defaults.
const (
	DefaultEngineVersion    = "13.12"
	DefaultMinCapacity      = config.DefaultMinCapacity
	DefaultMaxCapacity      = config.DefaultMaxCapacity
	DefaultAutoPauseMinutes = 5
	masterUsername          = "appstack"
)

type clusterHandles struct {
	cluster      Handle
	secret       Handle
	attachment   Handle
	databaseName string
}

func (a *assembler) addTables() error {
	for _, t := range a.proj.tables {
		id := naming.ResourceID(a.stack.Name, t.Name)
		h, err := a.stack.Add(id, tableResource(id, t), DeletionPolicy("Delete"))
		if err != nil {
			return err
		}
		a.tables[t.Name] = h
		a.log.Debug("added table", "table", t.Name, "id", id)
	}
	return nil
}

func tableResource(id string, t *descriptor.Table) dynamodb.Table {
	table := dynamodb.Table{
		TableName:   id,
		BillingMode: "PAY_PER_REQUEST",
		KeySchema:   keySchema(t.KeyAttributes),
	}
	for _, attr := range t.Attributes() {
		table.AttributeDefinitions = append(table.AttributeDefinitions, dynamodb.Table_AttributeDefinition{
			AttributeName: attr.AttributeName,
			AttributeType: attr.AttributeType,
		})
	}
	for _, idx := range t.GlobalSecondaryIndexes {
		table.GlobalSecondaryIndexes = append(table.GlobalSecondaryIndexes, dynamodb.Table_GlobalSecondaryIndex{
			IndexName:  idx.IndexName,
			KeySchema:  keySchema(idx.KeyAttributes),
			Projection: &dynamodb.Table_Projection{ProjectionType: "ALL"},
		})
	}
	return table
}

func keySchema(k descriptor.KeyAttributes) []dynamodb.Table_KeySchema {
	keys := []dynamodb.Table_KeySchema{{AttributeName: k.PartitionKey.AttributeName, KeyType: "HASH"}}
	if k.SortKey != nil {
		keys = append(keys, dynamodb.Table_KeySchema{AttributeName: k.SortKey.AttributeName, KeyType: "RANGE"})
	}
	return keys
}

// addPostgres registers the Aurora Serverless cluster, its credentials and
// the custom resource applying migrations. The cluster exists only when the
// migrations directory does.
func (a *assembler) addPostgres() error {
	if !a.proj.postgres {
		return nil
	}
	pg := a.cfg.Databases.Postgres
	clusterID := naming.ResourceID(a.stack.Name, "Postgres", "Cluster")
	dbName := orDefault(pg.DatabaseName, naming.Pascal(a.cfg.Namespace))

	secret, err := a.stack.Add(naming.ResourceID(clusterID, "Secret"), secretsmanager.Secret{
		Description: "Master credentials of " + clusterID,
		GenerateSecretString: &secretsmanager.Secret_GenerateSecretString{
			SecretStringTemplate: `{"username":"` + masterUsername + `"}`,
			GenerateStringKey:    "password",
			ExcludeCharacters:    `"@/\`,
			PasswordLength:       30,
		},
	})
	if err != nil {
		return err
	}

	cluster := rds.DBCluster{
		DBClusterIdentifier: naming.Param(clusterID),
		Engine:              "aurora-postgresql",
		EngineMode:          "serverless",
		EngineVersion:       orDefault(pg.EngineVersion, DefaultEngineVersion),
		DatabaseName:        dbName,
		MasterUsername:      intrinsics.SecretValue(secret.ID, "username"),
		MasterUserPassword:  intrinsics.SecretValue(secret.ID, "password"),
		EnableHttpEndpoint:  true,
	}
	scaling := &rds.DBCluster_ScalingConfiguration{}
	scaling.MinCapacity, scaling.MaxCapacity = pg.Capacity()
	cluster.ScalingConfiguration = scaling
	pause := DefaultAutoPauseMinutes
	if pg.AutoPauseMinutes != nil {
		pause = *pg.AutoPauseMinutes
	}
	if pause > 0 {
		scaling.AutoPause = true
		scaling.SecondsUntilAutoPause = pause * 60
	} else {
		scaling.AutoPause = false
	}
	if len(pg.SecurityGroupIDs) > 0 {
		cluster.VpcSecurityGroupIds = anySlice(pg.SecurityGroupIDs)
	}
	if len(pg.SubnetIDs) > 0 {
		group, err := a.stack.Add(naming.ResourceID(clusterID, "SubnetGroup"), rds.DBSubnetGroup{
			DBSubnetGroupDescription: "Subnets of " + clusterID,
			SubnetIds:                anySlice(pg.SubnetIDs),
		})
		if err != nil {
			return err
		}
		cluster.DBSubnetGroupName = group.Ref()
	}

	clusterHandle, err := a.stack.Add(clusterID, cluster, DeletionPolicy("Snapshot"))
	if err != nil {
		return err
	}

	attachment, err := a.stack.Add(naming.ResourceID(clusterID, "SecretAttachment"), secretsmanager.SecretTargetAttachment{
		SecretId:   secret.Ref(),
		TargetId:   clusterHandle.Ref(),
		TargetType: "AWS::RDS::DBCluster",
	})
	if err != nil {
		return err
	}

	a.cluster = &clusterHandles{
		cluster:      clusterHandle,
		secret:       secret,
		attachment:   attachment,
		databaseName: dbName,
	}
	if err := a.addMigrations(); err != nil {
		return err
	}

	a.outputs = append(a.outputs, map[string]any{
		"pgClusterArn":       clusterHandle.Attr("DBClusterArn"),
		"pgClusterSecretArn": secret.Ref(),
	})
	a.log.Debug("added postgres cluster", "id", clusterID, "database", dbName)
	return nil
}

// MigrationsTimeout covers an auto-paused cluster resuming before the
// first statement.
const MigrationsTimeout = 300

// dataAPIActions are what the migrations lambda needs on the cluster.
var dataAPIActions = []string{
	"rds-data:ExecuteStatement",
	"rds-data:BatchExecuteStatement",
	"rds-data:BeginTransaction",
	"rds-data:CommitTransaction",
	"rds-data:RollbackTransaction",
}

// addMigrations registers the migrations lambda and the custom resource
// that invokes it whenever the packaged migrations change. The lambda
// reaches the cluster through the Data API.
func (a *assembler) addMigrations() error {
	c := a.cluster
	id := naming.ResourceID(a.stack.Name, "Postgres", "Migrations")

	role, err := a.addServiceRole(id, iam.Role_Policy{
		PolicyName: naming.ResourceID(id, "DataAccess"),
		PolicyDocument: intrinsics.NewPolicyDocument(
			intrinsics.Allow(dataAPIActions, c.cluster.Attr("DBClusterArn")),
			intrinsics.Allow([]string{"secretsmanager:GetSecretValue"}, c.secret.Ref()),
		),
	})
	if err != nil {
		return err
	}

	function, err := a.stack.Add(id, lambda.Function{
		FunctionName: id,
		Description:  "Applies Postgres migrations to " + c.cluster.ID,
		Runtime:      "provided.al2023",
		Handler:      "bootstrap",
		Code:         a.code(a.migrations.Key),
		Role:         role.Arn(),
		MemorySize:   DefaultMemorySize,
		Timeout:      MigrationsTimeout,
		Environment: &lambda.Function_Environment{Variables: map[string]any{
			migrate.EnvClusterArn:    c.cluster.Attr("DBClusterArn"),
			migrate.EnvDatabase:      c.databaseName,
			migrate.EnvSecretArn:     c.secret.Ref(),
			migrate.EnvTable:         migrate.DefaultTable,
			migrate.EnvMigrationsDir: migrate.DefaultDir,
		}},
	})
	if err != nil {
		return err
	}

	_, err = a.stack.Add(naming.ResourceID(id, "CustomResource"), cloudformation.CustomResource{
		ServiceToken: function.Arn(),
		Properties:   map[string]any{"MigrationsHash": a.migrations.Hash},
	}, DependsOn(c.attachment.ID))
	return err
}

func anySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
