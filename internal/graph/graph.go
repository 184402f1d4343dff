// Package graph renders the resource graph of a synthesized template in DOT
// or Mermaid format.
package graph

import (
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	appstack "github.com/lex00/appstack-go"
	"github.com/lex00/appstack-go/internal/serialize"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates dependency graphs from templates.
type Generator struct {
	// IncludeParameters includes parameter references in the graph.
	IncludeParameters bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByService groups resources by AWS service.
	ClusterByService bool
}

// Generate creates a dependency graph and writes it to w.
func (g *Generator) Generate(t *appstack.Template, w io.Writer) error {
	graph := g.buildGraph(t)

	format := g.Format
	if format == "" {
		format = FormatDOT
	}

	var output string
	if format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := w.Write([]byte(output))
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(t *appstack.Template) (string, error) {
	var sb strings.Builder
	if err := g.Generate(t, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// buildGraph creates the dot.Graph of t. Nodes and edges are added in
// name order so the output is stable.
func (g *Generator) buildGraph(t *appstack.Template) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})

	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	names := sortedKeys(t.Resources)
	var nodes map[string]dot.Node
	if g.ClusterByService {
		nodes = g.addClusteredNodes(graph, t, names)
	} else {
		nodes = make(map[string]dot.Node, len(names))
		for _, name := range names {
			nodes[name] = label(graph.Node(name), name, t.Resources[name].Type)
		}
	}

	if g.IncludeParameters {
		for _, name := range sortedKeys(t.Parameters) {
			n := graph.Node(name)
			n.Attr("shape", "ellipse")
			n.Attr("style", "dashed")
			n.Label(name)
			nodes[name] = n
		}
	}

	for _, name := range names {
		res := t.Resources[name]
		getAtts := make(map[string]bool)
		collectGetAtts(res.Properties, getAtts)

		for _, dep := range serialize.References(res.Properties) {
			to, ok := nodes[dep]
			if !ok {
				continue
			}
			e := graph.Edge(nodes[name], to)
			if getAtts[dep] {
				e.Attr("color", "blue")
			}
		}

		for _, dep := range res.DependsOn {
			to, ok := nodes[dep]
			if !ok {
				continue
			}
			e := graph.Edge(nodes[name], to)
			e.Attr("style", "dashed")
		}
	}

	return graph
}

// addClusteredNodes adds resource nodes grouped by AWS service and returns
// them by name. Services with a single resource are not clustered.
func (g *Generator) addClusteredNodes(graph *dot.Graph, t *appstack.Template, names []string) map[string]dot.Node {
	byService := make(map[string][]string)
	for _, name := range names {
		service := extractService(t.Resources[name].Type)
		byService[service] = append(byService[service], name)
	}

	nodes := make(map[string]dot.Node, len(names))
	for _, service := range sortedKeys(byService) {
		resNames := byService[service]
		parent := graph
		if len(resNames) > 1 {
			parent = graph.Subgraph(service, dot.ClusterOption{})
			parent.Attr("style", "rounded")
			parent.Attr("bgcolor", "lightyellow")
		}
		for _, name := range resNames {
			nodes[name] = label(parent.Node(name), name, t.Resources[name].Type)
		}
	}
	return nodes
}

func label(n dot.Node, name, cfType string) dot.Node {
	return n.Label(name + "\\n[" + cfType + "]")
}

// extractService returns the service of a CloudFormation type.
// e.g., "AWS::AppSync::Resolver" -> "AppSync"
func extractService(cfType string) string {
	parts := strings.Split(cfType, "::")
	if len(parts) == 3 {
		return parts[1]
	}
	return "Other"
}

// collectGetAtts records the resources v reads attributes of.
func collectGetAtts(v any, out map[string]bool) {
	switch val := v.(type) {
	case map[string]any:
		if getAtt, ok := val["Fn::GetAtt"]; ok && len(val) == 1 {
			switch target := getAtt.(type) {
			case []any:
				if len(target) > 0 {
					if name, ok := target[0].(string); ok {
						out[name] = true
					}
				}
			case string:
				name, _, _ := strings.Cut(target, ".")
				out[name] = true
			}
			return
		}
		for _, item := range val {
			collectGetAtts(item, out)
		}
	case []any:
		for _, item := range val {
			collectGetAtts(item, out)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
