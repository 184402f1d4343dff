package secretsmanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceTypes(t *testing.T) {
	assert.Equal(t, "AWS::SecretsManager::Secret", Secret{}.ResourceType())
	assert.Equal(t, "AWS::SecretsManager::SecretTargetAttachment", SecretTargetAttachment{}.ResourceType())
}
