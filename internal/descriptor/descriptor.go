// Package descriptor parses the filename micro-formats of the resolver,
// pipeline function and table directories.
//
//	<Type>.<field>.<kind>.<dsType>.<dsName>   resolvers
//	<function>.<kind>.<dsType>.<dsName>       pipeline functions
//	<table>.json                              tables
//
// kind is req, res or seq. dsType is ddb, pg, lambda, none or empty.
package descriptor

import (
	"errors"
	"fmt"

	"github.com/lex00/appstack-go/internal/naming"
)

// Errors wrapped in a *FileError.
var (
	ErrMalformedName     = errors.New("malformed filename")
	ErrDuplicateFragment = errors.New("duplicate fragment")
	ErrConflictingSource = errors.New("conflicting data source")
	ErrInvalidSequence   = errors.New("invalid sequence")
	ErrInvalidTable      = errors.New("invalid table definition")
)

// FileError names the file a parse error comes from.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

func fileErr(file string, err error, format string, args ...any) error {
	if format == "" {
		return &FileError{File: file, Err: err}
	}
	return &FileError{File: file, Err: fmt.Errorf("%w: "+format, append([]any{err}, args...)...)}
}

// Kind is the template kind encoded in a mapping filename.
type Kind string

const (
	KindRequest  Kind = "req"
	KindResponse Kind = "res"
	KindSequence Kind = "seq"
)

// SourceType is the data source family.
type SourceType string

const (
	SourceDynamoDB SourceType = "ddb"
	SourcePostgres SourceType = "pg"
	SourceLambda   SourceType = "lambda"
	SourceNone     SourceType = "none"
)

// DataSourceRef identifies a data source by type and name.
type DataSourceRef struct {
	Type SourceType
	Name string
}

// None is the reference to the none data source.
var None = DataSourceRef{Type: SourceNone}

// IsNone reports whether r refers to the none data source.
func (r DataSourceRef) IsNone() bool {
	return r.Type == SourceNone || r.Type == ""
}

// ID is the logical ID of the referenced data source. Creation and
// resolution both use it. There is a single relational data source, so the
// name of a pg reference is not part of its ID.
func (r DataSourceRef) ID() string {
	switch r.Type {
	case "", SourceNone:
		return naming.ResourceID(string(SourceNone), "DataSource")
	case SourcePostgres:
		return naming.ResourceID(string(SourcePostgres), "DataSource")
	default:
		return naming.ResourceID(string(r.Type), r.Name, "DataSource")
	}
}

func (r DataSourceRef) String() string {
	if r.IsNone() {
		return string(SourceNone)
	}
	if r.Name == "" {
		return string(r.Type)
	}
	return string(r.Type) + "." + r.Name
}

// parseSource validates the trailing dsType/dsName pair. An empty type is
// returned as the zero ref, meaning the fragment does not name a source.
func parseSource(file, dsType, dsName string) (DataSourceRef, error) {
	switch SourceType(dsType) {
	case "":
		if dsName != "" {
			return DataSourceRef{}, fileErr(file, ErrMalformedName, "data source name %q without a type", dsName)
		}
		return DataSourceRef{}, nil
	case SourceNone:
		if dsName != "" {
			return DataSourceRef{}, fileErr(file, ErrMalformedName, "none data source takes no name")
		}
		return None, nil
	case SourcePostgres:
		return DataSourceRef{Type: SourcePostgres, Name: dsName}, nil
	case SourceDynamoDB, SourceLambda:
		if dsName == "" {
			return DataSourceRef{}, fileErr(file, ErrMalformedName, "%s data source needs a name", dsType)
		}
		return DataSourceRef{Type: SourceType(dsType), Name: dsName}, nil
	default:
		return DataSourceRef{}, fileErr(file, ErrMalformedName, "unknown data source type %q", dsType)
	}
}

func parseKind(file, s string) (Kind, error) {
	switch Kind(s) {
	case KindRequest, KindResponse, KindSequence:
		return Kind(s), nil
	default:
		return "", fileErr(file, ErrMalformedName, "unknown template kind %q (want req, res or seq)", s)
	}
}

// mergeSource folds a fragment's source into the owner's source. Fragments
// without a type defer to typed siblings; two different typed sources conflict.
func mergeSource(cur DataSourceRef, curFile string, next DataSourceRef, nextFile string) (DataSourceRef, string, error) {
	if next.Type == "" {
		return cur, curFile, nil
	}
	if cur.Type == "" {
		return next, nextFile, nil
	}
	if cur.ID() != next.ID() {
		return cur, curFile, fileErr(nextFile, ErrConflictingSource, "%s here, %s in %s", next, cur, curFile)
	}
	return cur, curFile, nil
}
