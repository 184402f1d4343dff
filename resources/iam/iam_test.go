package iam

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/appstack-go/intrinsics"
)

func TestResourceTypes(t *testing.T) {
	assert.Equal(t, "AWS::IAM::Role", Role{}.ResourceType())
	assert.Equal(t, "AWS::IAM::Policy", Policy{}.ResourceType())
}

func TestRoleSerialization(t *testing.T) {
	role := Role{
		AssumeRolePolicyDocument: intrinsics.NewPolicyDocument(intrinsics.PolicyStatement{
			Effect:    "Allow",
			Principal: intrinsics.ServicePrincipal{"lambda.amazonaws.com"},
			Action:    "sts:AssumeRole",
		}),
		ManagedPolicyArns: []any{intrinsics.ManagedPolicyArn("service-role/AWSLambdaBasicExecutionRole")},
	}

	data, err := json.Marshal(role)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	doc := parsed["AssumeRolePolicyDocument"].(map[string]any)
	assert.Equal(t, "2012-10-17", doc["Version"])
	assert.Len(t, parsed["ManagedPolicyArns"], 1)
	assert.NotContains(t, parsed, "Policies")
}
