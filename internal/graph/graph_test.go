package graph

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appstack "github.com/lex00/appstack-go"
)

func getAtt(id, attr string) map[string]any {
	return map[string]any{"Fn::GetAtt": []any{id, attr}}
}

func sampleTemplate() *appstack.Template {
	return &appstack.Template{
		Parameters: map[string]appstack.Parameter{
			"AssetBucket": {Type: "String"},
		},
		Resources: map[string]appstack.ResourceDef{
			"AppDevHelloServiceRole": {Type: "AWS::IAM::Role"},
			"AppDevHello": {
				Type: "AWS::Lambda::Function",
				Properties: map[string]any{
					"Role": getAtt("AppDevHelloServiceRole", "Arn"),
					"Code": map[string]any{"S3Bucket": map[string]any{"Ref": "AssetBucket"}},
				},
			},
			"AppDevApi":       {Type: "AWS::AppSync::GraphQLApi"},
			"AppDevApiSchema": {Type: "AWS::AppSync::GraphQLSchema", Properties: map[string]any{"ApiId": getAtt("AppDevApi", "ApiId")}},
			"QueryHello": {
				Type:       "AWS::AppSync::Resolver",
				Properties: map[string]any{"ApiId": getAtt("AppDevApi", "ApiId")},
				DependsOn:  []string{"AppDevApiSchema"},
			},
			"AppDevUsersRef": {
				Type:       "AWS::Cognito::UserPoolClient",
				Properties: map[string]any{"UserPoolId": map[string]any{"Ref": "AppDevHello"}},
			},
		},
	}
}

func TestGenerator_DOT(t *testing.T) {
	gen := &Generator{}
	output, err := gen.GenerateString(sampleTemplate())
	require.NoError(t, err)

	assert.Contains(t, output, "digraph")
	assert.Contains(t, output, "AppDevHello")
	assert.Contains(t, output, "AWS::Lambda::Function")
	assert.Contains(t, output, "blue")
	assert.Contains(t, output, "dashed")
	assert.NotContains(t, output, "ellipse")
}

func TestGenerator_Mermaid(t *testing.T) {
	gen := &Generator{Format: FormatMermaid}
	output, err := gen.GenerateString(sampleTemplate())
	require.NoError(t, err)

	assert.True(t, strings.Contains(output, "graph") || strings.Contains(output, "flowchart"), output)
	assert.NotContains(t, output, "digraph")
}

func TestGenerator_IncludeParameters(t *testing.T) {
	gen := &Generator{IncludeParameters: true}
	output, err := gen.GenerateString(sampleTemplate())
	require.NoError(t, err)

	assert.Contains(t, output, "ellipse")
	assert.Contains(t, output, "AssetBucket")
}

func TestGenerator_ClusterByService(t *testing.T) {
	gen := &Generator{ClusterByService: true}
	output, err := gen.GenerateString(sampleTemplate())
	require.NoError(t, err)

	assert.Contains(t, output, "subgraph cluster_")
	assert.Contains(t, output, `label="AppSync"`)
	// single resource services stay unclustered
	assert.NotContains(t, output, `label="Lambda"`)
	assert.NotContains(t, output, `label="Cognito"`)
}

func TestGenerator_EdgesReuseClusteredNodes(t *testing.T) {
	tests := []struct {
		name string
		gen  *Generator
		want int
	}{
		{name: "flat", gen: &Generator{}, want: 6},
		{name: "clustered", gen: &Generator{ClusterByService: true}, want: 6},
		{name: "clustered with parameters", gen: &Generator{ClusterByService: true, IncludeParameters: true}, want: 7},
	}

	nodeDecl := regexp.MustCompile(`(?m)^\s*n\d+\[`)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := tt.gen.GenerateString(sampleTemplate())
			require.NoError(t, err)

			assert.Len(t, nodeDecl.FindAllString(output, -1), tt.want, output)
			assert.Equal(t, 1, strings.Count(output, "[AWS::AppSync::GraphQLApi]"))
			assert.NotContains(t, output, `label="AppDevApi"`)
		})
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	gen := &Generator{ClusterByService: true}
	first, err := gen.GenerateString(sampleTemplate())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := gen.GenerateString(sampleTemplate())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGenerator_EmptyTemplate(t *testing.T) {
	gen := &Generator{}
	output, err := gen.GenerateString(&appstack.Template{})
	require.NoError(t, err)
	assert.Contains(t, output, "digraph")
}

func TestExtractService(t *testing.T) {
	tests := []struct {
		cfType   string
		expected string
	}{
		{"AWS::AppSync::Resolver", "AppSync"},
		{"AWS::Lambda::Function", "Lambda"},
		{"AWS::CloudFormation::CustomResource", "CloudFormation"},
		{"Custom::Thing", "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.cfType, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractService(tt.cfType))
		})
	}
}

func TestCollectGetAtts(t *testing.T) {
	out := make(map[string]bool)
	collectGetAtts(map[string]any{
		"Role":   getAtt("Role", "Arn"),
		"Dotted": map[string]any{"Fn::GetAtt": "Cluster.Endpoint.Address"},
		"List":   []any{map[string]any{"Ref": "Other"}},
	}, out)

	assert.Equal(t, map[string]bool{"Role": true, "Cluster": true}, out)
}
