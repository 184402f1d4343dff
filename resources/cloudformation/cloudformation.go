// Package cloudformation contains AWS::CloudFormation resource types.
package cloudformation

import "encoding/json"

// CustomResource represents AWS::CloudFormation::CustomResource.
// Properties are flattened next to ServiceToken when serialized.
type CustomResource struct {
	ServiceToken any
	Properties   map[string]any
}

// ResourceType returns the CloudFormation resource type.
func (r CustomResource) ResourceType() string { return "AWS::CloudFormation::CustomResource" }

// MarshalJSON flattens Properties into the resource property map.
func (r CustomResource) MarshalJSON() ([]byte, error) {
	props := make(map[string]any, len(r.Properties)+1)
	for k, v := range r.Properties {
		props[k] = v
	}
	props["ServiceToken"] = r.ServiceToken
	return json.Marshal(props)
}
