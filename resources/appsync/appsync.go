// Package appsync contains AWS::AppSync resource types.
package appsync

// GraphQLApi represents AWS::AppSync::GraphQLApi.
//
// Attributes: ApiId, Arn, GraphQLUrl, GraphQLDns, RealtimeUrl.
type GraphQLApi struct {
	Name               any `json:"Name,omitempty"`
	AuthenticationType any `json:"AuthenticationType,omitempty"`
	XrayEnabled        any `json:"XrayEnabled,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r GraphQLApi) ResourceType() string { return "AWS::AppSync::GraphQLApi" }

// GraphQLSchema represents AWS::AppSync::GraphQLSchema.
type GraphQLSchema struct {
	ApiId      any `json:"ApiId,omitempty"`
	Definition any `json:"Definition,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r GraphQLSchema) ResourceType() string { return "AWS::AppSync::GraphQLSchema" }

// DataSource represents AWS::AppSync::DataSource.
//
// Attributes: DataSourceArn, Name.
type DataSource struct {
	ApiId                    any                                  `json:"ApiId,omitempty"`
	Name                     any                                  `json:"Name,omitempty"`
	Type_                    any                                  `json:"Type,omitempty"`
	ServiceRoleArn           any                                  `json:"ServiceRoleArn,omitempty"`
	DynamoDBConfig           *DataSource_DynamoDBConfig           `json:"DynamoDBConfig,omitempty"`
	LambdaConfig             *DataSource_LambdaConfig             `json:"LambdaConfig,omitempty"`
	RelationalDatabaseConfig *DataSource_RelationalDatabaseConfig `json:"RelationalDatabaseConfig,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r DataSource) ResourceType() string { return "AWS::AppSync::DataSource" }

// DataSource_DynamoDBConfig configures an AMAZON_DYNAMODB data source.
type DataSource_DynamoDBConfig struct {
	AwsRegion any `json:"AwsRegion,omitempty"`
	TableName any `json:"TableName,omitempty"`
}

// DataSource_LambdaConfig configures an AWS_LAMBDA data source.
type DataSource_LambdaConfig struct {
	LambdaFunctionArn any `json:"LambdaFunctionArn,omitempty"`
}

// DataSource_RelationalDatabaseConfig configures a RELATIONAL_DATABASE data source.
type DataSource_RelationalDatabaseConfig struct {
	RelationalDatabaseSourceType any                               `json:"RelationalDatabaseSourceType,omitempty"`
	RdsHttpEndpointConfig        *DataSource_RdsHttpEndpointConfig `json:"RdsHttpEndpointConfig,omitempty"`
}

// DataSource_RdsHttpEndpointConfig points a data source at an Aurora Data API endpoint.
type DataSource_RdsHttpEndpointConfig struct {
	AwsRegion           any `json:"AwsRegion,omitempty"`
	AwsSecretStoreArn   any `json:"AwsSecretStoreArn,omitempty"`
	DatabaseName        any `json:"DatabaseName,omitempty"`
	DbClusterIdentifier any `json:"DbClusterIdentifier,omitempty"`
}

// FunctionConfiguration represents AWS::AppSync::FunctionConfiguration.
//
// Attributes: FunctionArn, FunctionId, Name.
type FunctionConfiguration struct {
	ApiId                   any `json:"ApiId,omitempty"`
	Name                    any `json:"Name,omitempty"`
	DataSourceName          any `json:"DataSourceName,omitempty"`
	FunctionVersion         any `json:"FunctionVersion,omitempty"`
	RequestMappingTemplate  any `json:"RequestMappingTemplate,omitempty"`
	ResponseMappingTemplate any `json:"ResponseMappingTemplate,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r FunctionConfiguration) ResourceType() string { return "AWS::AppSync::FunctionConfiguration" }

// Resolver represents AWS::AppSync::Resolver.
//
// Attributes: FieldName, ResolverArn, TypeName.
type Resolver struct {
	ApiId                   any                      `json:"ApiId,omitempty"`
	TypeName                any                      `json:"TypeName,omitempty"`
	FieldName               any                      `json:"FieldName,omitempty"`
	Kind                    any                      `json:"Kind,omitempty"`
	DataSourceName          any                      `json:"DataSourceName,omitempty"`
	PipelineConfig          *Resolver_PipelineConfig `json:"PipelineConfig,omitempty"`
	RequestMappingTemplate  any                      `json:"RequestMappingTemplate,omitempty"`
	ResponseMappingTemplate any                      `json:"ResponseMappingTemplate,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Resolver) ResourceType() string { return "AWS::AppSync::Resolver" }

// Resolver_PipelineConfig lists the functions of a PIPELINE resolver, in order.
type Resolver_PipelineConfig struct {
	Functions []any `json:"Functions,omitempty"`
}
