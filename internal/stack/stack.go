// Package stack wires the resources of a project into one CloudFormation
// stack: lambdas, tables, the Postgres cluster, the GraphQL API with its data
// sources and resolvers, the Cognito pools and the IAM policies between them.
package stack

import (
	"errors"
	"fmt"
	"sort"

	appstack "github.com/lex00/appstack-go"
	"github.com/lex00/appstack-go/internal/asset"
	"github.com/lex00/appstack-go/internal/serialize"
	"github.com/lex00/appstack-go/internal/template"
	"github.com/lex00/appstack-go/intrinsics"
)

// Assembly errors.
var (
	ErrDuplicateID          = errors.New("duplicate resource identifier")
	ErrOutputCollision      = errors.New("output key collision")
	ErrUnresolvedDataSource = errors.New("unresolved data source")
	ErrUnresolvedFunction   = errors.New("unresolved function")
)

// AssetBucket is the template parameter naming the bucket lambda code is
// uploaded to.
const AssetBucket = "AssetBucket"

// Handle refers to a registered resource.
type Handle struct {
	ID string
}

// Ref returns a Ref to the resource.
func (h Handle) Ref() intrinsics.Ref {
	return intrinsics.Ref{LogicalName: h.ID}
}

// Attr returns a GetAtt of one attribute of the resource.
func (h Handle) Attr(attribute string) appstack.AttrRef {
	return appstack.AttrRef{Resource: h.ID, Attribute: attribute}
}

// Arn is shorthand for Attr("Arn").
func (h Handle) Arn() appstack.AttrRef {
	return h.Attr("Arn")
}

type entry struct {
	resource       appstack.Resource
	properties     map[string]any
	dependsOn      []string
	deletionPolicy string
}

// Option adjusts a resource at registration.
type Option func(*entry)

// DependsOn adds explicit dependencies.
func DependsOn(ids ...string) Option {
	return func(e *entry) { e.dependsOn = append(e.dependsOn, ids...) }
}

// DeletionPolicy sets the DeletionPolicy attribute.
func DeletionPolicy(policy string) Option {
	return func(e *entry) { e.deletionPolicy = policy }
}

// Stack is an assembled resource graph.
type Stack struct {
	// Name is the artifact identifier, e.g. AppDev.
	Name string
	// Outputs maps output keys to literal values or intrinsics.
	Outputs    map[string]any
	Parameters map[string]appstack.Parameter
	Assets     asset.Manifest

	entries map[string]*entry
}

// New returns an empty stack.
func New(name string) *Stack {
	return &Stack{
		Name:       name,
		Outputs:    make(map[string]any),
		Parameters: make(map[string]appstack.Parameter),
		entries:    make(map[string]*entry),
	}
}

// Add registers r under id. Identifiers are unique per stack.
func (s *Stack) Add(id string, r appstack.Resource, opts ...Option) (Handle, error) {
	if _, exists := s.entries[id]; exists {
		return Handle{}, fmt.Errorf("%w: %s (%s)", ErrDuplicateID, id, r.ResourceType())
	}
	props, err := serialize.Resource(r)
	if err != nil {
		return Handle{}, fmt.Errorf("serializing %s: %w", id, err)
	}
	e := &entry{resource: r, properties: props}
	for _, opt := range opts {
		opt(e)
	}
	s.entries[id] = e
	return Handle{ID: id}, nil
}

// Resources returns every registered identifier, sorted.
func (s *Stack) Resources() []string {
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resource returns the typed resource registered under id.
func (s *Stack) Resource(id string) (appstack.Resource, bool) {
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return e.resource, true
}

// Properties returns the serialized properties of id.
func (s *Stack) Properties(id string) map[string]any {
	if e, ok := s.entries[id]; ok {
		return e.properties
	}
	return nil
}

// DependsOn lists the resources id references or explicitly depends on.
func (s *Stack) DependsOn(id string) []string {
	return s.builder().Dependencies(id)
}

// Template renders the stack as a CloudFormation template.
func (s *Stack) Template() (*appstack.Template, error) {
	return s.builder().Build()
}

func (s *Stack) builder() *template.Builder {
	b := template.NewBuilder(fmt.Sprintf("appstack %s", s.Name))
	for id, e := range s.entries {
		// ids are unique, AddResource cannot fail here
		_ = b.AddResource(id, template.Resource{
			Type:           e.resource.ResourceType(),
			Properties:     e.properties,
			DependsOn:      e.dependsOn,
			DeletionPolicy: e.deletionPolicy,
		})
	}
	for name, p := range s.Parameters {
		b.AddParameter(name, p)
	}
	for key, v := range s.Outputs {
		b.AddOutput(key, appstack.Output{Value: v})
	}
	return b
}

// MergeOutputs merges output groups into one map. A key defined by two
// groups is an error.
func MergeOutputs(groups ...map[string]any) (map[string]any, error) {
	merged := make(map[string]any)
	for _, group := range groups {
		keys := make([]string, 0, len(group))
		for k := range group {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, exists := merged[k]; exists {
				return nil, fmt.Errorf("%w: %s", ErrOutputCollision, k)
			}
			merged[k] = group[k]
		}
	}
	return merged, nil
}
