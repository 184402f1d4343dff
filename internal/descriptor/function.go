package descriptor

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lex00/appstack-go/internal/naming"
)

// Function is the merged description of one pipeline function.
type Function struct {
	Name       string
	DataSource DataSourceRef
	Request    string
	Response   string
	Files      []string

	sourceFile string
	kindFiles  map[Kind]string
}

// ID is the function's logical ID.
func (f *Function) ID() string {
	return naming.ResourceID(f.Name)
}

// FunctionName is one parsed pipeline function filename.
type FunctionName struct {
	Name       string
	Kind       Kind
	DataSource DataSourceRef
}

// ParseFunctionName parses "<function>.<kind>.<dsType>.<dsName>".
func ParseFunctionName(file string) (FunctionName, error) {
	parts := strings.Split(file, ".")
	if len(parts) < 2 || len(parts) > 4 {
		return FunctionName{}, fileErr(file, ErrMalformedName, "want <function>.<kind>.<dsType>.<dsName>")
	}
	for len(parts) < 4 {
		parts = append(parts, "")
	}
	if parts[0] == "" {
		return FunctionName{}, fileErr(file, ErrMalformedName, "function name is required")
	}

	kind, err := parseKind(file, parts[1])
	if err != nil {
		return FunctionName{}, err
	}
	if kind == KindSequence {
		return FunctionName{}, fileErr(file, ErrMalformedName, "pipeline functions take req and res templates only")
	}
	ref, err := parseSource(file, parts[2], parts[3])
	if err != nil {
		return FunctionName{}, err
	}

	return FunctionName{Name: parts[0], Kind: kind, DataSource: ref}, nil
}

// ParseFunctions reads the named files in dir and merges them by function.
func ParseFunctions(dir string, files []string) ([]*Function, error) {
	byID := make(map[string]*Function)
	var order []*Function

	for _, file := range files {
		name, err := ParseFunctionName(file)
		if err != nil {
			return nil, err
		}

		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			return nil, fileErr(file, err, "")
		}

		owner := &Function{Name: name.Name}
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

		if name.Kind == KindRequest {
			owner.Request = string(data)
		} else {
			owner.Response = string(data)
		}
	}

	for _, f := range order {
		if f.DataSource.Type == "" {
			f.DataSource = None
		}
	}
	return order, nil
}

// SourceFile returns the file that named the function's data source.
func (f *Function) SourceFile() string {
	if f.sourceFile != "" {
		return f.sourceFile
	}
	if len(f.Files) > 0 {
		return f.Files[0]
	}
	return ""
}

// SourceFile returns the file that named the resolver's data source.
func (r *Resolver) SourceFile() string {
	if r.sourceFile != "" {
		return r.sourceFile
	}
	if len(r.Files) > 0 {
		return r.Files[0]
	}
	return ""
}

// SequenceFile returns the file holding the resolver's function sequence.
func (r *Resolver) SequenceFile() string {
	return r.kindFiles[KindSequence]
}
