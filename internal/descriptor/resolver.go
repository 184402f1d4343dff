package descriptor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lex00/appstack-go/internal/naming"
)

// Resolver is the merged description of one GraphQL field resolver.
type Resolver struct {
	TypeName   string
	FieldName  string
	DataSource DataSourceRef
	Request    string
	Response   string
	Sequence   []string
	// Files lists the contributing filenames in parse order.
	Files []string

	sourceFile string
	kindFiles  map[Kind]string
}

// ID is the resolver's logical ID.
func (r *Resolver) ID() string {
	return naming.ResourceID(r.TypeName, r.FieldName)
}

// IsPipeline reports whether the resolver runs a function sequence.
func (r *Resolver) IsPipeline() bool {
	return r.Sequence != nil
}

// ResolverName is one parsed resolver filename.
type ResolverName struct {
	TypeName   string
	FieldName  string
	Kind       Kind
	DataSource DataSourceRef
}

// ParseResolverName parses "<Type>.<field>.<kind>.<dsType>.<dsName>".
// Trailing fields may be omitted. The type name is normalized to PascalCase
// and the field name to camelCase.
func ParseResolverName(file string) (ResolverName, error) {
	parts := strings.Split(file, ".")
	if len(parts) < 3 || len(parts) > 5 {
		return ResolverName{}, fileErr(file, ErrMalformedName, "want <Type>.<field>.<kind>.<dsType>.<dsName>")
	}
	for len(parts) < 5 {
		parts = append(parts, "")
	}
	if parts[0] == "" || parts[1] == "" {
		return ResolverName{}, fileErr(file, ErrMalformedName, "type and field names are required")
	}

	kind, err := parseKind(file, parts[2])
	if err != nil {
		return ResolverName{}, err
	}
	ref, err := parseSource(file, parts[3], parts[4])
	if err != nil {
		return ResolverName{}, err
	}

	return ResolverName{
		TypeName:   naming.Pascal(parts[0]),
		FieldName:  naming.Camel(parts[1]),
		Kind:       kind,
		DataSource: ref,
	}, nil
}

// ParseResolvers reads the named files in dir and merges them by owner.
// The result keeps first-seen order.
func ParseResolvers(dir string, files []string) ([]*Resolver, error) {
	byID := make(map[string]*Resolver)
	var order []*Resolver

	for _, file := range files {
		name, err := ParseResolverName(file)
		if err != nil {
			return nil, err
		}

		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			return nil, fileErr(file, err, "")
		}

		owner := &Resolver{TypeName: name.TypeName, FieldName: name.FieldName}
		if existing, ok := byID[owner.ID()]; ok {
			owner = existing
		} else {
			owner.kindFiles = make(map[Kind]string)
			byID[owner.ID()] = owner
			order = append(order, owner)
		}

		if prev, dup := owner.kindFiles[name.Kind]; dup {
			return nil, fileErr(file, ErrDuplicateFragment, "%s template already defined by %s", name.Kind, prev)
		}
		owner.kindFiles[name.Kind] = file
		owner.Files = append(owner.Files, file)

		owner.DataSource, owner.sourceFile, err = mergeSource(owner.DataSource, owner.sourceFile, name.DataSource, file)
		if err != nil {
			return nil, err
		}

		switch name.Kind {
		case KindRequest:
			owner.Request = string(data)
		case KindResponse:
			owner.Response = string(data)
		case KindSequence:
			seq, err := parseSequence(file, data)
			if err != nil {
				return nil, err
			}
			owner.Sequence = seq
		}
	}

	for _, r := range order {
		if r.DataSource.Type == "" {
			r.DataSource = None
		}
		if r.IsPipeline() && !r.DataSource.IsNone() {
			return nil, fileErr(r.kindFiles[KindSequence], ErrInvalidSequence,
				"pipeline resolver %s references data source %s (from %s); pipeline resolvers use none",
				r.ID(), r.DataSource, r.sourceFile)
		}
	}
	return order, nil
}

// parseSequence decodes a JSON array of function names.
func parseSequence(file string, data []byte) ([]string, error) {
	var seq []string
	if err := json.Unmarshal(data, &seq); err != nil {
		return nil, fileErr(file, ErrInvalidSequence, "want a JSON array of function names: %v", err)
	}
	if len(seq) == 0 {
		return nil, fileErr(file, ErrInvalidSequence, "empty sequence")
	}
	for i, fn := range seq {
		if strings.TrimSpace(fn) == "" {
			return nil, fileErr(file, ErrInvalidSequence, "entry %d is empty", i)
		}
	}
	return seq, nil
}

// String renders the resolver for logs.
func (r *Resolver) String() string {
	return fmt.Sprintf("%s.%s (%s)", r.TypeName, r.FieldName, r.DataSource)
}
