package validation

import (
	"fmt"
	"sort"
	"strings"

	appstack "github.com/lex00/appstack-go"
)

// SchemaError is a property level problem found without cfn-lint.
type SchemaError struct {
	Resource string `json:"resource"`
	Property string `json:"property"`
	Message  string `json:"message"`
}

func (e SchemaError) String() string {
	return fmt.Sprintf("%s.%s: %s", e.Resource, e.Property, e.Message)
}

// SchemaResult contains schema validation results.
type SchemaResult struct {
	Valid    bool
	Errors   []SchemaError
	Warnings []SchemaError
}

// ResourceSchema defines the schema for a resource type.
type ResourceSchema struct {
	Required   []string
	Properties map[string]PropertySchema
}

// PropertySchema defines the schema for a property.
type PropertySchema struct {
	Type          string
	AllowedValues []string
}

// resourceSchemas covers the resource types the assembler emits.
var resourceSchemas = map[string]ResourceSchema{
	"AWS::Lambda::Function": {
		Required: []string{"Code", "Role"},
		Properties: map[string]PropertySchema{
			"Code":        {Type: "Map"},
			"Handler":     {Type: "String"},
			"Runtime":     {Type: "String"},
			"MemorySize":  {Type: "Integer"},
			"Timeout":     {Type: "Integer"},
			"Environment": {Type: "Map"},
			"VpcConfig":   {Type: "Map"},
		},
	},
	"AWS::Lambda::EventInvokeConfig": {
		Required: []string{"FunctionName", "Qualifier"},
		Properties: map[string]PropertySchema{
			"MaximumRetryAttempts": {Type: "Integer"},
		},
	},
	"AWS::Lambda::Permission": {
		Required: []string{"Action", "FunctionName", "Principal"},
	},
	"AWS::IAM::Role": {
		Required: []string{"AssumeRolePolicyDocument"},
		Properties: map[string]PropertySchema{
			"AssumeRolePolicyDocument": {Type: "Json"},
			"ManagedPolicyArns":        {Type: "List"},
			"Policies":                 {Type: "List"},
		},
	},
	"AWS::IAM::Policy": {
		Required: []string{"PolicyDocument", "PolicyName"},
		Properties: map[string]PropertySchema{
			"Roles": {Type: "List"},
		},
	},
	"AWS::DynamoDB::Table": {
		Required: []string{"KeySchema"},
		Properties: map[string]PropertySchema{
			"KeySchema":              {Type: "List"},
			"AttributeDefinitions":   {Type: "List"},
			"GlobalSecondaryIndexes": {Type: "List"},
			"BillingMode":            {Type: "String", AllowedValues: []string{"PAY_PER_REQUEST", "PROVISIONED"}},
		},
	},
	"AWS::RDS::DBCluster": {
		Required: []string{"Engine"},
		Properties: map[string]PropertySchema{
			"EngineMode":         {Type: "String", AllowedValues: []string{"provisioned", "serverless"}},
			"EnableHttpEndpoint": {Type: "Boolean"},
		},
	},
	"AWS::RDS::DBSubnetGroup": {
		Required: []string{"DBSubnetGroupDescription", "SubnetIds"},
	},
	"AWS::SecretsManager::Secret": {},
	"AWS::SecretsManager::SecretTargetAttachment": {
		Required: []string{"SecretId", "TargetId", "TargetType"},
	},
	"AWS::AppSync::GraphQLApi": {
		Required: []string{"Name", "AuthenticationType"},
		Properties: map[string]PropertySchema{
			"AuthenticationType": {Type: "String", AllowedValues: []string{
				"API_KEY", "AWS_IAM", "AMAZON_COGNITO_USER_POOLS", "OPENID_CONNECT", "AWS_LAMBDA",
			}},
		},
	},
	"AWS::AppSync::GraphQLSchema": {
		Required: []string{"ApiId"},
	},
	"AWS::AppSync::DataSource": {
		Required: []string{"ApiId", "Name", "Type"},
		Properties: map[string]PropertySchema{
			"Type": {Type: "String", AllowedValues: []string{
				"NONE", "AMAZON_DYNAMODB", "RELATIONAL_DATABASE", "AWS_LAMBDA", "HTTP",
				"AMAZON_ELASTICSEARCH", "AMAZON_OPENSEARCH_SERVICE", "AMAZON_EVENTBRIDGE",
			}},
		},
	},
	"AWS::AppSync::FunctionConfiguration": {
		Required: []string{"ApiId", "DataSourceName", "Name"},
	},
	"AWS::AppSync::Resolver": {
		Required: []string{"ApiId", "FieldName", "TypeName"},
		Properties: map[string]PropertySchema{
			"Kind":            {Type: "String", AllowedValues: []string{"UNIT", "PIPELINE"}},
			"PipelineConfig":  {Type: "Map"},
			"DataSourceName":  {Type: "String"},
			"FieldName":       {Type: "String"},
			"TypeName":        {Type: "String"},
			"RequestMapping":  {Type: "String"},
			"ResponseMapping": {Type: "String"},
		},
	},
	"AWS::Cognito::UserPool": {
		Properties: map[string]PropertySchema{
			"Schema":       {Type: "List"},
			"LambdaConfig": {Type: "Map"},
		},
	},
	"AWS::Cognito::UserPoolClient": {
		Required: []string{"UserPoolId"},
	},
	"AWS::Cognito::IdentityPool": {
		Required: []string{"AllowUnauthenticatedIdentities"},
		Properties: map[string]PropertySchema{
			"AllowUnauthenticatedIdentities": {Type: "Boolean"},
		},
	},
	"AWS::Cognito::IdentityPoolRoleAttachment": {
		Required: []string{"IdentityPoolId"},
	},
	"AWS::CloudFormation::CustomResource": {
		Required: []string{"ServiceToken"},
	},
}

// CheckSchema validates the resources of t against the known schemas.
// Unknown types are warnings; with strict set, so are unknown properties.
func CheckSchema(t *appstack.Template, strict bool) *SchemaResult {
	result := &SchemaResult{Valid: true}

	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		errs, warnings := validateResource(name, t.Resources[name], strict)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warnings...)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// validateResource validates a single resource.
func validateResource(name string, resource appstack.ResourceDef, strict bool) ([]SchemaError, []SchemaError) {
	var errs, warnings []SchemaError

	if !isValidResourceType(resource.Type) {
		errs = append(errs, SchemaError{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("invalid resource type format: %s", resource.Type),
		})
	}

	schema, ok := resourceSchemas[resource.Type]
	if !ok {
		warnings = append(warnings, SchemaError{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("unknown resource type: %s (schema not available for validation)", resource.Type),
		})
		return errs, warnings
	}

	for _, required := range schema.Required {
		if _, exists := resource.Properties[required]; !exists {
			errs = append(errs, SchemaError{
				Resource: name,
				Property: required,
				Message:  fmt.Sprintf("missing required property: %s", required),
			})
		}
	}

	props := make([]string, 0, len(resource.Properties))
	for propName := range resource.Properties {
		props = append(props, propName)
	}
	sort.Strings(props)

	for _, propName := range props {
		propSchema, ok := schema.Properties[propName]
		if !ok {
			if strict {
				warnings = append(warnings, SchemaError{
					Resource: name,
					Property: propName,
					Message:  fmt.Sprintf("unknown property: %s", propName),
				})
			}
			continue
		}
		errs = append(errs, validateProperty(name, propName, resource.Properties[propName], propSchema)...)
	}

	return errs, warnings
}

// isValidResourceType checks for AWS::Service::Resource or Custom::*.
func isValidResourceType(resourceType string) bool {
	if strings.HasPrefix(resourceType, "Custom::") {
		return true
	}
	parts := strings.Split(resourceType, "::")
	return len(parts) == 3 && parts[0] == "AWS"
}

// validateProperty validates a property value against its schema.
func validateProperty(resource, property string, value any, schema PropertySchema) []SchemaError {
	var errs []SchemaError

	if !isValidType(value, schema.Type) {
		errs = append(errs, SchemaError{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf("expected type %s", schema.Type),
		})
	}

	if len(schema.AllowedValues) > 0 {
		if strVal, ok := value.(string); ok {
			found := false
			for _, allowed := range schema.AllowedValues {
				if strVal == allowed {
					found = true
					break
				}
			}
			if !found {
				errs = append(errs, SchemaError{
					Resource: resource,
					Property: property,
					Message:  fmt.Sprintf("value %q not in allowed values: %v", strVal, schema.AllowedValues),
				})
			}
		}
	}

	return errs
}

// isValidType checks if a value matches the expected type. Intrinsic
// functions match every type.
func isValidType(value any, expectedType string) bool {
	if m, ok := value.(map[string]any); ok {
		for key := range m {
			if strings.HasPrefix(key, "Fn::") || key == "Ref" {
				return true
			}
		}
	}

	switch expectedType {
	case "String":
		_, ok := value.(string)
		return ok
	case "Integer":
		switch value.(type) {
		case int, int32, int64, float64:
			return true
		}
		return false
	case "Boolean":
		_, ok := value.(bool)
		return ok
	case "List":
		_, ok := value.([]any)
		return ok
	case "Map":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
