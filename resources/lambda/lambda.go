// Package lambda contains AWS::Lambda resource types.
package lambda

// Function represents AWS::Lambda::Function.
//
// Attributes: Arn.
type Function struct {
	FunctionName any                   `json:"FunctionName,omitempty"`
	Description  any                   `json:"Description,omitempty"`
	Runtime      any                   `json:"Runtime,omitempty"`
	Handler      any                   `json:"Handler,omitempty"`
	Code         *Function_Code        `json:"Code,omitempty"`
	Role         any                   `json:"Role,omitempty"`
	MemorySize   any                   `json:"MemorySize,omitempty"`
	Timeout      any                   `json:"Timeout,omitempty"`
	Environment  *Function_Environment `json:"Environment,omitempty"`
	VpcConfig    *Function_VpcConfig   `json:"VpcConfig,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Function) ResourceType() string { return "AWS::Lambda::Function" }

// Function_Code locates the deployment package.
type Function_Code struct {
	S3Bucket any `json:"S3Bucket,omitempty"`
	S3Key    any `json:"S3Key,omitempty"`
	ZipFile  any `json:"ZipFile,omitempty"`
}

// Function_Environment holds environment variables.
type Function_Environment struct {
	Variables map[string]any `json:"Variables,omitempty"`
}

// Function_VpcConfig attaches the function to VPC subnets.
type Function_VpcConfig struct {
	SubnetIds        []any `json:"SubnetIds,omitempty"`
	SecurityGroupIds []any `json:"SecurityGroupIds,omitempty"`
}

// Permission represents AWS::Lambda::Permission.
type Permission struct {
	FunctionName any `json:"FunctionName,omitempty"`
	Action       any `json:"Action,omitempty"`
	Principal    any `json:"Principal,omitempty"`
	SourceArn    any `json:"SourceArn,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Permission) ResourceType() string { return "AWS::Lambda::Permission" }

// EventInvokeConfig represents AWS::Lambda::EventInvokeConfig.
type EventInvokeConfig struct {
	FunctionName         any `json:"FunctionName,omitempty"`
	Qualifier            any `json:"Qualifier,omitempty"`
	MaximumRetryAttempts any `json:"MaximumRetryAttempts"`
}

// ResourceType returns the CloudFormation resource type.
func (r EventInvokeConfig) ResourceType() string { return "AWS::Lambda::EventInvokeConfig" }
