// Package secretsmanager contains AWS::SecretsManager resource types.
package secretsmanager

// Secret represents AWS::SecretsManager::Secret. Ref returns the secret ARN.
type Secret struct {
	Name                 any                          `json:"Name,omitempty"`
	Description          any                          `json:"Description,omitempty"`
	GenerateSecretString *Secret_GenerateSecretString `json:"GenerateSecretString,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Secret) ResourceType() string { return "AWS::SecretsManager::Secret" }

// Secret_GenerateSecretString generates the secret value at creation time.
type Secret_GenerateSecretString struct {
	SecretStringTemplate any `json:"SecretStringTemplate,omitempty"`
	GenerateStringKey    any `json:"GenerateStringKey,omitempty"`
	ExcludeCharacters    any `json:"ExcludeCharacters,omitempty"`
	PasswordLength       any `json:"PasswordLength,omitempty"`
}

// SecretTargetAttachment represents AWS::SecretsManager::SecretTargetAttachment.
type SecretTargetAttachment struct {
	SecretId   any `json:"SecretId,omitempty"`
	TargetId   any `json:"TargetId,omitempty"`
	TargetType any `json:"TargetType,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r SecretTargetAttachment) ResourceType() string {
	return "AWS::SecretsManager::SecretTargetAttachment"
}
