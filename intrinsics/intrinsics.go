// Package intrinsics provides CloudFormation intrinsic functions.
//
// The core intrinsic types come from cloudformation-schema-go; this package
// re-exports the ones the stack assembler uses and adds IAM policy types and a few
// helpers for ARNs and dynamic references.
//
//	Ref{LogicalName: "AppDevApi"}          → {"Ref": "AppDevApi"}
//	GetAtt{LogicalName: "AppDevApi", Attribute: "Arn"}
//	Sub{String: "${AWS::Region}-bucket"}   → {"Fn::Sub": "${AWS::Region}-bucket"}
package intrinsics

import (
	"fmt"

	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub
)

// SecretValue returns a Secrets Manager dynamic reference resolving one JSON key
// of the secret identified by the logical name secret.
//
//	SecretValue("AppDevPostgresClusterSecret", "password")
//	→ {"Fn::Sub": "{{resolve:secretsmanager:${AppDevPostgresClusterSecret}:SecretString:password}}"}
func SecretValue(secret, key string) Sub {
	return Sub{String: fmt.Sprintf("{{resolve:secretsmanager:${%s}:SecretString:%s}}", secret, key)}
}

// ServiceArn builds an ARN in the current partition, region and account:
//
//	ServiceArn("ses", "identity/noreply@example.com")
//	→ arn:${AWS::Partition}:ses:${AWS::Region}:${AWS::AccountId}:identity/noreply@example.com
func ServiceArn(service, resource string) Sub {
	return Sub{String: fmt.Sprintf("arn:${AWS::Partition}:%s:${AWS::Region}:${AWS::AccountId}:%s", service, resource)}
}

// ManagedPolicyArn returns the ARN of an AWS managed IAM policy.
func ManagedPolicyArn(name string) Sub {
	return Sub{String: "arn:${AWS::Partition}:iam::aws:policy/" + name}
}
