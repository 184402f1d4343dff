package stack

import (
	"fmt"

	"github.com/lex00/appstack-go/internal/config"
	"github.com/lex00/appstack-go/internal/descriptor"
	"github.com/lex00/appstack-go/internal/naming"
	"github.com/lex00/appstack-go/intrinsics"
	"github.com/lex00/appstack-go/resources/appsync"
	"github.com/lex00/appstack-go/resources/iam"
)

// Mapping template defaults.
const (
	DefaultRequestTemplate  = "null"
	DefaultResponseTemplate = "$util.toJson($ctx.result)"
	FunctionVersion         = "2018-05-29"
	APIAuthenticationType   = "AWS_IAM"
)

// appSyncTrustPolicy lets AppSync assume a data source role.
func appSyncTrustPolicy() intrinsics.PolicyDocument {
	return intrinsics.NewPolicyDocument(intrinsics.PolicyStatement{
		Effect:    "Allow",
		Principal: intrinsics.ServicePrincipal{"appsync.amazonaws.com"},
		Action:    "sts:AssumeRole",
	})
}

func (a *assembler) addAPI() error {
	apiID := naming.ResourceID(a.stack.Name, "Api")
	api, err := a.stack.Add(apiID, appsync.GraphQLApi{
		Name:               apiID,
		AuthenticationType: APIAuthenticationType,
	})
	if err != nil {
		return err
	}
	a.api = api

	if a.proj.hasSchema {
		schema, err := a.stack.Add(naming.ResourceID(apiID, "Schema"), appsync.GraphQLSchema{
			ApiId:      api.Attr("ApiId"),
			Definition: a.proj.schema,
		})
		if err != nil {
			return err
		}
		a.schema = &schema
	} else if len(a.proj.resolvers) > 0 || len(a.proj.functions) > 0 {
		a.log.Warn("resolvers found but no GraphQL schema", "schema", a.opts.Layout.SchemaFile)
	}

	if err := a.addDataSources(); err != nil {
		return err
	}
	if err := a.addFunctions(); err != nil {
		return err
	}
	if err := a.addResolvers(); err != nil {
		return err
	}

	a.outputs = append(a.outputs, map[string]any{
		"apiArn":                api.Arn(),
		"apiAuthenticationType": APIAuthenticationType,
		"apiGraphqlEndpoint":    api.Attr("GraphQLUrl"),
		"apiRegion":             intrinsics.AWS_REGION,
	})
	return nil
}

// addDataSource registers a data source, and its service role when
// statements are given.
func (a *assembler) addDataSource(ref descriptor.DataSourceRef, ds appsync.DataSource, statements ...any) error {
	id := ref.ID()
	ds.ApiId = a.api.Attr("ApiId")
	ds.Name = id

	if len(statements) > 0 {
		role, err := a.stack.Add(naming.ResourceID(id, "ServiceRole"), iam.Role{
			AssumeRolePolicyDocument: appSyncTrustPolicy(),
			Policies: []iam.Role_Policy{{
				PolicyName:     naming.ResourceID(id, "Access"),
				PolicyDocument: intrinsics.NewPolicyDocument(statements...),
			}},
		})
		if err != nil {
			return err
		}
		ds.ServiceRoleArn = role.Arn()
	}

	h, err := a.stack.Add(id, ds)
	if err != nil {
		return err
	}
	a.dataSources[id] = h
	return nil
}

func (a *assembler) addDataSources() error {
	if err := a.addDataSource(descriptor.None, appsync.DataSource{Type_: "NONE"}); err != nil {
		return err
	}

	for _, t := range a.proj.tables {
		table := a.tables[t.Name]
		ref := descriptor.DataSourceRef{Type: descriptor.SourceDynamoDB, Name: t.Name}
		err := a.addDataSource(ref, appsync.DataSource{
			Type_: "AMAZON_DYNAMODB",
			DynamoDBConfig: &appsync.DataSource_DynamoDBConfig{
				AwsRegion: intrinsics.AWS_REGION,
				TableName: table.Ref(),
			},
		}, intrinsics.Allow(
			[]string{
				"dynamodb:BatchGetItem", "dynamodb:BatchWriteItem", "dynamodb:ConditionCheckItem",
				"dynamodb:DeleteItem", "dynamodb:GetItem", "dynamodb:PutItem",
				"dynamodb:Query", "dynamodb:Scan", "dynamodb:UpdateItem",
			},
			table.Arn(),
			intrinsics.Sub{String: fmt.Sprintf("${%s.Arn}/index/*", table.ID)},
		))
		if err != nil {
			return err
		}
	}

	if c := a.cluster; c != nil {
		ref := descriptor.DataSourceRef{Type: descriptor.SourcePostgres}
		err := a.addDataSource(ref, appsync.DataSource{
			Type_: "RELATIONAL_DATABASE",
			RelationalDatabaseConfig: &appsync.DataSource_RelationalDatabaseConfig{
				RelationalDatabaseSourceType: "RDS_HTTP_ENDPOINT",
				RdsHttpEndpointConfig: &appsync.DataSource_RdsHttpEndpointConfig{
					AwsRegion:           intrinsics.AWS_REGION,
					AwsSecretStoreArn:   c.secret.Ref(),
					DatabaseName:        c.databaseName,
					DbClusterIdentifier: c.cluster.Attr("DBClusterArn"),
				},
			},
		},
			intrinsics.Allow(
				[]string{
					"rds-data:BatchExecuteStatement", "rds-data:BeginTransaction", "rds-data:CommitTransaction",
					"rds-data:ExecuteStatement", "rds-data:RollbackTransaction",
				},
				c.cluster.Attr("DBClusterArn"),
			),
			intrinsics.Allow(
				[]string{"secretsmanager:GetSecretValue", "secretsmanager:DescribeSecret"},
				c.secret.Ref(),
			),
		)
		if err != nil {
			return err
		}
	}

	for _, name := range a.proj.lambdas {
		fn := a.lambdas[name].function
		ref := descriptor.DataSourceRef{Type: descriptor.SourceLambda, Name: name}
		err := a.addDataSource(ref, appsync.DataSource{
			Type_:        "AWS_LAMBDA",
			LambdaConfig: &appsync.DataSource_LambdaConfig{LambdaFunctionArn: fn.Arn()},
		}, intrinsics.Allow([]string{"lambda:InvokeFunction"}, fn.Arn()))
		if err != nil {
			return err
		}
	}
	return nil
}

// resolveDataSource finds the data source a descriptor names. A missing
// data source is an error unless the resolution policy falls back to none.
func (a *assembler) resolveDataSource(ref descriptor.DataSourceRef, owner, file string) (Handle, error) {
	if h, ok := a.dataSources[ref.ID()]; ok {
		return h, nil
	}
	if a.cfg.UnresolvedDataSource() == config.UnresolvedNone {
		a.log.Warn("data source not found, falling back to none",
			"owner", owner, "dataSource", ref.String(), "file", file)
		return a.dataSources[descriptor.None.ID()], nil
	}
	return Handle{}, &descriptor.FileError{
		File: file,
		Err:  fmt.Errorf("%w: %s needs %s (%s)", ErrUnresolvedDataSource, owner, ref, ref.ID()),
	}
}

// schemaDependency makes mapping resources wait for the schema.
func (a *assembler) schemaDependency() []Option {
	if a.schema == nil {
		return nil
	}
	return []Option{DependsOn(a.schema.ID)}
}

func (a *assembler) addFunctions() error {
	planned := make([]appsync.FunctionConfiguration, len(a.proj.functions))
	for i, f := range a.proj.functions {
		ds, err := a.resolveDataSource(f.DataSource, f.ID(), f.SourceFile())
		if err != nil {
			return err
		}
		planned[i] = appsync.FunctionConfiguration{
			ApiId:                   a.api.Attr("ApiId"),
			Name:                    f.ID(),
			DataSourceName:          ds.Attr("Name"),
			FunctionVersion:         FunctionVersion,
			RequestMappingTemplate:  orDefault(f.Request, DefaultRequestTemplate),
			ResponseMappingTemplate: orDefault(f.Response, DefaultResponseTemplate),
		}
	}

	for i, f := range a.proj.functions {
		h, err := a.stack.Add(f.ID(), planned[i], a.schemaDependency()...)
		if err != nil {
			return err
		}
		a.functions[f.ID()] = h
	}
	return nil
}

// addResolvers resolves every resolver before registering any of them.
func (a *assembler) addResolvers() error {
	planned := make([]appsync.Resolver, len(a.proj.resolvers))
	for i, r := range a.proj.resolvers {
		res := appsync.Resolver{
			ApiId:                   a.api.Attr("ApiId"),
			TypeName:                r.TypeName,
			FieldName:               r.FieldName,
			RequestMappingTemplate:  orDefault(r.Request, DefaultRequestTemplate),
			ResponseMappingTemplate: orDefault(r.Response, DefaultResponseTemplate),
		}

		if r.IsPipeline() {
			res.Kind = "PIPELINE"
			res.PipelineConfig = &appsync.Resolver_PipelineConfig{}
			for _, name := range r.Sequence {
				fn, ok := a.functions[naming.ResourceID(name)]
				if !ok {
					return &descriptor.FileError{
						File: r.SequenceFile(),
						Err:  fmt.Errorf("%w: %s needs %s", ErrUnresolvedFunction, r.ID(), name),
					}
				}
				res.PipelineConfig.Functions = append(res.PipelineConfig.Functions, fn.Attr("FunctionId"))
			}
		} else {
			ds, err := a.resolveDataSource(r.DataSource, r.ID(), r.SourceFile())
			if err != nil {
				return err
			}
			res.Kind = "UNIT"
			res.DataSourceName = ds.Attr("Name")
		}
		planned[i] = res
	}

	for i, r := range a.proj.resolvers {
		if _, err := a.stack.Add(r.ID(), planned[i], a.schemaDependency()...); err != nil {
			return err
		}
		a.log.Debug("added resolver", "resolver", r.String(), "id", r.ID())
	}
	return nil
}
