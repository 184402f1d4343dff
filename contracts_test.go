package appstack

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttrRef_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		ref      AttrRef
		expected string
	}{
		{
			name:     "role arn",
			ref:      AttrRef{Resource: "AppDevHelloServiceRole", Attribute: "Arn"},
			expected: `{"Fn::GetAtt":["AppDevHelloServiceRole","Arn"]}`,
		},
		{
			name:     "graphql url",
			ref:      AttrRef{Resource: "AppDevApi", Attribute: "GraphQLUrl"},
			expected: `{"Fn::GetAtt":["AppDevApi","GraphQLUrl"]}`,
		},
		{
			name:     "function id",
			ref:      AttrRef{Resource: "LoadUser", Attribute: "FunctionId"},
			expected: `{"Fn::GetAtt":["LoadUser","FunctionId"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.ref)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestAttrRef_IsZero(t *testing.T) {
	tests := []struct {
		name     string
		ref      AttrRef
		expected bool
	}{
		{name: "empty", ref: AttrRef{}, expected: true},
		{name: "with resource", ref: AttrRef{Resource: "MyRole"}, expected: false},
		{name: "with attribute", ref: AttrRef{Attribute: "Arn"}, expected: false},
		{name: "fully populated", ref: AttrRef{Resource: "MyRole", Attribute: "Arn"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.ref.IsZero())
		})
	}
}

func TestTemplate_JSON(t *testing.T) {
	template := Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              "app dev",
		Resources: map[string]ResourceDef{
			"AppDevOrders": {
				Type: "AWS::DynamoDB::Table",
				Properties: map[string]any{
					"TableName": "AppDevOrders",
				},
				DeletionPolicy: "Delete",
			},
		},
		Parameters: map[string]Parameter{
			"AssetBucket": {
				Type:        "String",
				Description: "Bucket holding Lambda assets",
			},
		},
		Outputs: map[string]Output{
			"apiArn": {
				Value: map[string][]string{"Fn::GetAtt": {"AppDevApi", "Arn"}},
			},
		},
	}

	data, err := json.Marshal(template)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "2010-09-09", parsed["AWSTemplateFormatVersion"])
	assert.Equal(t, "app dev", parsed["Description"])

	resources := parsed["Resources"].(map[string]any)
	table := resources["AppDevOrders"].(map[string]any)
	assert.Equal(t, "AWS::DynamoDB::Table", table["Type"])
	assert.Equal(t, "Delete", table["DeletionPolicy"])

	params := parsed["Parameters"].(map[string]any)
	bucket := params["AssetBucket"].(map[string]any)
	assert.Equal(t, "String", bucket["Type"])

	outputs := parsed["Outputs"].(map[string]any)
	assert.Contains(t, outputs, "apiArn")
}

func TestResourceDef_DependsOn(t *testing.T) {
	resource := ResourceDef{
		Type: "AWS::AppSync::Resolver",
		Properties: map[string]any{
			"FieldName": "hello",
		},
		DependsOn: []string{"AppDevApiSchema", "AppDevApi"},
	}

	data, err := json.Marshal(resource)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "AWS::AppSync::Resolver", parsed["Type"])
	dependsOn := parsed["DependsOn"].([]any)
	assert.Len(t, dependsOn, 2)
	assert.Equal(t, "AppDevApiSchema", dependsOn[0])
	assert.NotContains(t, parsed, "DeletionPolicy")
}

func TestBuildResult_Error(t *testing.T) {
	result := BuildResult{
		Success: false,
		Errors:  []string{"Query.hello.req.ddb.missing: unresolved data source"},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.False(t, parsed["success"].(bool))
	errs := parsed["errors"].([]any)
	assert.Len(t, errs, 1)
}

func TestDiffSummary_JSON(t *testing.T) {
	summary := DiffSummary{Added: 1, Removed: 2, Modified: 3, Total: 6}

	data, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.JSONEq(t, `{"added":1,"removed":2,"modified":3,"total":6}`, string(data))
}
