// Package rds contains AWS::RDS resource types.
package rds

// DBCluster represents AWS::RDS::DBCluster.
//
// Attributes: DBClusterArn, Endpoint.Address, Endpoint.Port.
type DBCluster struct {
	DBClusterIdentifier         any                             `json:"DBClusterIdentifier,omitempty"`
	Engine                      any                             `json:"Engine,omitempty"`
	EngineMode                  any                             `json:"EngineMode,omitempty"`
	DatabaseName                any                             `json:"DatabaseName,omitempty"`
	DBClusterParameterGroupName any                             `json:"DBClusterParameterGroupName,omitempty"`
	DBSubnetGroupName           any                             `json:"DBSubnetGroupName,omitempty"`
	VpcSecurityGroupIds         []any                           `json:"VpcSecurityGroupIds,omitempty"`
	MasterUsername              any                             `json:"MasterUsername,omitempty"`
	MasterUserPassword          any                             `json:"MasterUserPassword,omitempty"`
	EnableHttpEndpoint          any                             `json:"EnableHttpEndpoint,omitempty"`
	ScalingConfiguration        *DBCluster_ScalingConfiguration `json:"ScalingConfiguration,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r DBCluster) ResourceType() string { return "AWS::RDS::DBCluster" }

// DBCluster_ScalingConfiguration configures Aurora Serverless capacity.
type DBCluster_ScalingConfiguration struct {
	AutoPause             any `json:"AutoPause,omitempty"`
	MinCapacity           any `json:"MinCapacity,omitempty"`
	MaxCapacity           any `json:"MaxCapacity,omitempty"`
	SecondsUntilAutoPause any `json:"SecondsUntilAutoPause,omitempty"`
}

// DBSubnetGroup represents AWS::RDS::DBSubnetGroup.
type DBSubnetGroup struct {
	DBSubnetGroupDescription any   `json:"DBSubnetGroupDescription,omitempty"`
	SubnetIds                []any `json:"SubnetIds,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r DBSubnetGroup) ResourceType() string { return "AWS::RDS::DBSubnetGroup" }
