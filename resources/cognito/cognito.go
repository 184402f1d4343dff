// Package cognito contains AWS::Cognito resource types.
package cognito

// UserPool represents AWS::Cognito::UserPool.
//
// Attributes: Arn, ProviderName, ProviderURL, UserPoolId.
type UserPool struct {
	UserPoolName                any                                   `json:"UserPoolName,omitempty"`
	AliasAttributes             []any                                 `json:"AliasAttributes,omitempty"`
	UsernameAttributes          []any                                 `json:"UsernameAttributes,omitempty"`
	AutoVerifiedAttributes      []any                                 `json:"AutoVerifiedAttributes,omitempty"`
	Policies                    *UserPool_Policies                    `json:"Policies,omitempty"`
	Schema                      []UserPool_SchemaAttribute            `json:"Schema,omitempty"`
	LambdaConfig                *UserPool_LambdaConfig                `json:"LambdaConfig,omitempty"`
	EmailConfiguration          *UserPool_EmailConfiguration          `json:"EmailConfiguration,omitempty"`
	AdminCreateUserConfig       *UserPool_AdminCreateUserConfig       `json:"AdminCreateUserConfig,omitempty"`
	UsernameConfiguration       *UserPool_UsernameConfiguration       `json:"UsernameConfiguration,omitempty"`
	AccountRecoverySetting      *UserPool_AccountRecoverySetting      `json:"AccountRecoverySetting,omitempty"`
	VerificationMessageTemplate *UserPool_VerificationMessageTemplate `json:"VerificationMessageTemplate,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r UserPool) ResourceType() string { return "AWS::Cognito::UserPool" }

// UserPool_Policies wraps the password policy.
type UserPool_Policies struct {
	PasswordPolicy *UserPool_PasswordPolicy `json:"PasswordPolicy,omitempty"`
}

// UserPool_PasswordPolicy is the user pool password policy.
type UserPool_PasswordPolicy struct {
	MinimumLength                 any `json:"MinimumLength,omitempty"`
	RequireLowercase              any `json:"RequireLowercase,omitempty"`
	RequireUppercase              any `json:"RequireUppercase,omitempty"`
	RequireNumbers                any `json:"RequireNumbers,omitempty"`
	RequireSymbols                any `json:"RequireSymbols,omitempty"`
	TemporaryPasswordValidityDays any `json:"TemporaryPasswordValidityDays,omitempty"`
}

// UserPool_SchemaAttribute declares a standard or custom user attribute.
type UserPool_SchemaAttribute struct {
	Name                       any                                  `json:"Name,omitempty"`
	AttributeDataType          any                                  `json:"AttributeDataType,omitempty"`
	Mutable                    any                                  `json:"Mutable,omitempty"`
	Required                   any                                  `json:"Required,omitempty"`
	StringAttributeConstraints *UserPool_StringAttributeConstraints `json:"StringAttributeConstraints,omitempty"`
	NumberAttributeConstraints *UserPool_NumberAttributeConstraints `json:"NumberAttributeConstraints,omitempty"`
}

// UserPool_StringAttributeConstraints bounds a String attribute.
type UserPool_StringAttributeConstraints struct {
	MinLength any `json:"MinLength,omitempty"`
	MaxLength any `json:"MaxLength,omitempty"`
}

// UserPool_NumberAttributeConstraints bounds a Number attribute.
type UserPool_NumberAttributeConstraints struct {
	MinValue any `json:"MinValue,omitempty"`
	MaxValue any `json:"MaxValue,omitempty"`
}

// UserPool_LambdaConfig wires Lambda triggers into the user pool.
type UserPool_LambdaConfig struct {
	CustomMessage any `json:"CustomMessage,omitempty"`
	PreSignUp     any `json:"PreSignUp,omitempty"`
}

// UserPool_EmailConfiguration configures how the user pool sends email.
type UserPool_EmailConfiguration struct {
	EmailSendingAccount any `json:"EmailSendingAccount,omitempty"`
	From                any `json:"From,omitempty"`
	SourceArn           any `json:"SourceArn,omitempty"`
}

// UserPool_AdminCreateUserConfig controls self sign-up.
type UserPool_AdminCreateUserConfig struct {
	AllowAdminCreateUserOnly any `json:"AllowAdminCreateUserOnly"`
}

// UserPool_UsernameConfiguration controls username case sensitivity.
type UserPool_UsernameConfiguration struct {
	CaseSensitive any `json:"CaseSensitive"`
}

// UserPool_AccountRecoverySetting lists recovery mechanisms.
type UserPool_AccountRecoverySetting struct {
	RecoveryMechanisms []UserPool_RecoveryOption `json:"RecoveryMechanisms,omitempty"`
}

// UserPool_RecoveryOption is one recovery mechanism.
type UserPool_RecoveryOption struct {
	Name     any `json:"Name,omitempty"`
	Priority any `json:"Priority,omitempty"`
}

// UserPool_VerificationMessageTemplate configures verification messages.
type UserPool_VerificationMessageTemplate struct {
	DefaultEmailOption any `json:"DefaultEmailOption,omitempty"`
}

// UserPoolClient represents AWS::Cognito::UserPoolClient.
//
// Attributes: ClientId, Name.
type UserPoolClient struct {
	UserPoolId                 any   `json:"UserPoolId,omitempty"`
	ClientName                 any   `json:"ClientName,omitempty"`
	GenerateSecret             any   `json:"GenerateSecret,omitempty"`
	ExplicitAuthFlows          []any `json:"ExplicitAuthFlows,omitempty"`
	SupportedIdentityProviders []any `json:"SupportedIdentityProviders,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r UserPoolClient) ResourceType() string { return "AWS::Cognito::UserPoolClient" }

// IdentityPool represents AWS::Cognito::IdentityPool.
//
// Attributes: Id, Name.
type IdentityPool struct {
	IdentityPoolName               any                                    `json:"IdentityPoolName,omitempty"`
	AllowUnauthenticatedIdentities any                                    `json:"AllowUnauthenticatedIdentities"`
	CognitoIdentityProviders       []IdentityPool_CognitoIdentityProvider `json:"CognitoIdentityProviders,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r IdentityPool) ResourceType() string { return "AWS::Cognito::IdentityPool" }

// IdentityPool_CognitoIdentityProvider links a user pool client to an identity pool.
type IdentityPool_CognitoIdentityProvider struct {
	ClientId     any `json:"ClientId,omitempty"`
	ProviderName any `json:"ProviderName,omitempty"`
}

// IdentityPoolRoleAttachment represents AWS::Cognito::IdentityPoolRoleAttachment.
type IdentityPoolRoleAttachment struct {
	IdentityPoolId any            `json:"IdentityPoolId,omitempty"`
	Roles          map[string]any `json:"Roles,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r IdentityPoolRoleAttachment) ResourceType() string {
	return "AWS::Cognito::IdentityPoolRoleAttachment"
}
