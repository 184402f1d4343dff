// Package template assembles serialized resources into a CloudFormation
// template in dependency order.
package template

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	appstack "github.com/lex00/appstack-go"
	"github.com/lex00/appstack-go/internal/serialize"
)

// Resource is one serialized template resource.
type Resource struct {
	Type       string
	Properties map[string]any
	// DependsOn lists explicit dependencies emitted as the DependsOn attribute.
	DependsOn      []string
	DeletionPolicy string
}

// Builder constructs CloudFormation templates.
type Builder struct {
	description string
	resources   map[string]Resource
	parameters  map[string]appstack.Parameter
	outputs     map[string]appstack.Output
}

// NewBuilder creates an empty builder.
func NewBuilder(description string) *Builder {
	return &Builder{
		description: description,
		resources:   make(map[string]Resource),
		parameters:  make(map[string]appstack.Parameter),
		outputs:     make(map[string]appstack.Output),
	}
}

// AddResource registers a resource under its logical ID.
func (b *Builder) AddResource(name string, r Resource) error {
	if _, exists := b.resources[name]; exists {
		return fmt.Errorf("resource %s already defined", name)
	}
	b.resources[name] = r
	return nil
}

// AddParameter registers a template parameter.
func (b *Builder) AddParameter(name string, p appstack.Parameter) {
	b.parameters[name] = p
}

// AddOutput registers a template output.
func (b *Builder) AddOutput(name string, o appstack.Output) {
	b.outputs[name] = o
}

// Dependencies returns the resources name depends on: every resource its
// properties reference plus its explicit DependsOn, sorted.
func (b *Builder) Dependencies(name string) []string {
	res, ok := b.resources[name]
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	for _, ref := range serialize.References(res.Properties) {
		if _, isResource := b.resources[ref]; isResource {
			seen[ref] = true
		}
	}
	for _, dep := range res.DependsOn {
		seen[dep] = true
	}

	deps := make([]string, 0, len(seen))
	for dep := range seen {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps
}

// Build checks every reference and returns the template.
func (b *Builder) Build() (*appstack.Template, error) {
	if err := b.checkReferences(); err != nil {
		return nil, err
	}

	order, err := b.Order()
	if err != nil {
		return nil, err
	}

	template := &appstack.Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              b.description,
		Resources:                make(map[string]appstack.ResourceDef, len(order)),
	}

	if len(b.parameters) > 0 {
		template.Parameters = make(map[string]appstack.Parameter, len(b.parameters))
		for name, p := range b.parameters {
			template.Parameters[name] = p
		}
	}

	for _, name := range order {
		res := b.resources[name]
		var dependsOn []string
		if len(res.DependsOn) > 0 {
			dependsOn = append(dependsOn, res.DependsOn...)
			sort.Strings(dependsOn)
		}
		template.Resources[name] = appstack.ResourceDef{
			Type:           res.Type,
			Properties:     res.Properties,
			DependsOn:      dependsOn,
			DeletionPolicy: res.DeletionPolicy,
		}
	}

	if len(b.outputs) > 0 {
		template.Outputs = make(map[string]appstack.Output, len(b.outputs))
		for name, o := range b.outputs {
			template.Outputs[name] = o
		}
	}

	return template, nil
}

// checkReferences fails on references to IDs that are neither resources nor
// parameters, and on explicit dependencies on unknown resources.
func (b *Builder) checkReferences() error {
	known := func(name string) bool {
		if _, ok := b.resources[name]; ok {
			return true
		}
		_, ok := b.parameters[name]
		return ok
	}

	for _, name := range sortedKeys(b.resources) {
		res := b.resources[name]
		for _, ref := range serialize.References(res.Properties) {
			if !known(ref) {
				return fmt.Errorf("%s references unknown resource %s", name, ref)
			}
		}
		for _, dep := range res.DependsOn {
			if _, ok := b.resources[dep]; !ok {
				return fmt.Errorf("%s depends on unknown resource %s", name, dep)
			}
		}
	}

	for _, name := range sortedKeys(b.outputs) {
		value, err := normalize(b.outputs[name].Value)
		if err != nil {
			return fmt.Errorf("output %s: %w", name, err)
		}
		for _, ref := range serialize.References(value) {
			if !known(ref) {
				return fmt.Errorf("output %s references unknown resource %s", name, ref)
			}
		}
	}
	return nil
}

// Order returns resources in dependency order. Ties are broken by name.
func (b *Builder) Order() ([]string, error) {
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range b.resources {
		graph[name] = nil
		inDegree[name] = 0
	}

	for name := range b.resources {
		for _, dep := range b.Dependencies(name) {
			if _, exists := b.resources[dep]; exists {
				graph[dep] = append(graph[dep], name)
				inDegree[name]++
			}
		}
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(b.resources) {
		return nil, b.detectCycle()
	}
	return result, nil
}

// detectCycle finds and reports a cycle in the dependency graph.
func (b *Builder) detectCycle() error {
	visited := make(map[string]bool)
	onPath := make(map[string]bool)
	var stack []string
	var cycle []string

	var visit func(node string) bool
	visit = func(node string) bool {
		visited[node] = true
		onPath[node] = true
		stack = append(stack, node)

		for _, dep := range b.Dependencies(node) {
			if onPath[dep] {
				for i, n := range stack {
					if n == dep {
						cycle = append(append([]string{}, stack[i:]...), dep)
						return true
					}
				}
			}
			if !visited[dep] && visit(dep) {
				return true
			}
		}

		stack = stack[:len(stack)-1]
		onPath[node] = false
		return false
	}

	for _, name := range sortedKeys(b.resources) {
		if !visited[name] && visit(name) {
			break
		}
	}

	if len(cycle) > 0 {
		return fmt.Errorf("circular dependency detected: %s", strings.Join(cycle, " → "))
	}
	return fmt.Errorf("circular dependency detected")
}

// normalize converts typed values (intrinsics, AttrRef) to plain JSON values.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToJSON serializes the template to JSON.
func ToJSON(t *appstack.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML. Values are normalized through JSON
// first so intrinsics render in their long form.
func ToYAML(t *appstack.Template) ([]byte, error) {
	plain, err := normalize(t)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(plain)
}
