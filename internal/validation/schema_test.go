package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appstack "github.com/lex00/appstack-go"
)

func TestCheckSchema(t *testing.T) {
	tests := []struct {
		name     string
		resource appstack.ResourceDef
		strict   bool
		errors   []string
		warnings []string
	}{
		{
			name: "valid resolver",
			resource: appstack.ResourceDef{Type: "AWS::AppSync::Resolver", Properties: map[string]any{
				"ApiId":          map[string]any{"Fn::GetAtt": []any{"AppDevApi", "ApiId"}},
				"TypeName":       "Query",
				"FieldName":      "hello",
				"Kind":           "UNIT",
				"DataSourceName": map[string]any{"Fn::GetAtt": []any{"NoneDataSource", "Name"}},
			}},
		},
		{
			name:     "missing required",
			resource: appstack.ResourceDef{Type: "AWS::Lambda::Function", Properties: map[string]any{"Code": map[string]any{}}},
			errors:   []string{"R.Role: missing required property: Role"},
		},
		{
			name: "disallowed value",
			resource: appstack.ResourceDef{Type: "AWS::AppSync::Resolver", Properties: map[string]any{
				"ApiId": "a", "TypeName": "Query", "FieldName": "f", "Kind": "BATCH",
			}},
			errors: []string{`R.Kind: value "BATCH" not in allowed values: [UNIT PIPELINE]`},
		},
		{
			name: "wrong type",
			resource: appstack.ResourceDef{Type: "AWS::Lambda::Function", Properties: map[string]any{
				"Code": map[string]any{}, "Role": "arn", "MemorySize": "big",
			}},
			errors: []string{"R.MemorySize: expected type Integer"},
		},
		{
			name: "false is present",
			resource: appstack.ResourceDef{Type: "AWS::Cognito::IdentityPool", Properties: map[string]any{
				"AllowUnauthenticatedIdentities": false,
			}},
		},
		{
			name:     "unknown type",
			resource: appstack.ResourceDef{Type: "AWS::SQS::Queue"},
			warnings: []string{"R.Type: unknown resource type: AWS::SQS::Queue (schema not available for validation)"},
		},
		{
			name:     "malformed type",
			resource: appstack.ResourceDef{Type: "Queue"},
			errors:   []string{"R.Type: invalid resource type format: Queue"},
			warnings: []string{"R.Type: unknown resource type: Queue (schema not available for validation)"},
		},
		{
			name:     "strict unknown property",
			resource: appstack.ResourceDef{Type: "AWS::Lambda::Permission", Properties: map[string]any{"Action": "a", "FunctionName": "f", "Principal": "p", "Extra": 1}},
			strict:   true,
			warnings: []string{"R.Extra: unknown property: Extra"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := &appstack.Template{Resources: map[string]appstack.ResourceDef{"R": tt.resource}}
			result := CheckSchema(tmpl, tt.strict)

			var errs, warnings []string
			for _, e := range result.Errors {
				errs = append(errs, e.String())
			}
			for _, w := range result.Warnings {
				warnings = append(warnings, w.String())
			}
			assert.Equal(t, tt.errors, errs)
			assert.Equal(t, tt.warnings, warnings)
			assert.Equal(t, len(tt.errors) == 0, result.Valid)
		})
	}
}

func TestIsValidType(t *testing.T) {
	assert.True(t, isValidType(map[string]any{"Ref": "AssetBucket"}, "Integer"))
	assert.True(t, isValidType(int64(3), "Integer"))
	assert.True(t, isValidType(float64(3), "Integer"))
	assert.False(t, isValidType("3", "Integer"))
	assert.True(t, isValidType([]any{}, "List"))
	assert.False(t, isValidType(map[string]any{"a": 1}, "List"))
	assert.True(t, isValidType("anything", "Json"))
}

func TestCheckSchema_Sorted(t *testing.T) {
	tmpl := &appstack.Template{Resources: map[string]appstack.ResourceDef{
		"B": {Type: "AWS::IAM::Policy"},
		"A": {Type: "AWS::IAM::Role"},
	}}
	result := CheckSchema(tmpl, false)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, "A", result.Errors[0].Resource)
	assert.Equal(t, "B", result.Errors[1].Resource)
	assert.Equal(t, "PolicyDocument", result.Errors[1].Property)
}
