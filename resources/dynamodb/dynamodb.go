// Package dynamodb contains AWS::DynamoDB resource types.
package dynamodb

// Table represents AWS::DynamoDB::Table.
//
// Attributes: Arn, StreamArn.
type Table struct {
	TableName              any                          `json:"TableName,omitempty"`
	BillingMode            any                          `json:"BillingMode,omitempty"`
	AttributeDefinitions   []Table_AttributeDefinition  `json:"AttributeDefinitions,omitempty"`
	KeySchema              []Table_KeySchema            `json:"KeySchema,omitempty"`
	GlobalSecondaryIndexes []Table_GlobalSecondaryIndex `json:"GlobalSecondaryIndexes,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Table) ResourceType() string { return "AWS::DynamoDB::Table" }

// Table_AttributeDefinition declares the type of a key attribute.
type Table_AttributeDefinition struct {
	AttributeName any `json:"AttributeName,omitempty"`
	AttributeType any `json:"AttributeType,omitempty"`
}

// Table_KeySchema is one HASH or RANGE key element.
type Table_KeySchema struct {
	AttributeName any `json:"AttributeName,omitempty"`
	KeyType       any `json:"KeyType,omitempty"`
}

// Table_GlobalSecondaryIndex is a global secondary index.
type Table_GlobalSecondaryIndex struct {
	IndexName  any               `json:"IndexName,omitempty"`
	KeySchema  []Table_KeySchema `json:"KeySchema,omitempty"`
	Projection *Table_Projection `json:"Projection,omitempty"`
}

// Table_Projection selects the attributes copied into an index.
type Table_Projection struct {
	ProjectionType any `json:"ProjectionType,omitempty"`
}
