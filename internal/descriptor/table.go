package descriptor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table is a DynamoDB table definition. Name is the file stem.
type Table struct {
	Name                   string
	KeyAttributes          KeyAttributes
	GlobalSecondaryIndexes []Index
	File                   string
}

// KeyAttributes holds the primary key of a table or index.
type KeyAttributes struct {
	PartitionKey *Attribute `json:"PartitionKey" yaml:"PartitionKey"`
	SortKey      *Attribute `json:"SortKey,omitempty" yaml:"SortKey,omitempty"`
}

// Attribute is a key attribute.
type Attribute struct {
	AttributeName string `json:"AttributeName" yaml:"AttributeName"`
	AttributeType string `json:"AttributeType" yaml:"AttributeType"`
}

// Index is a global secondary index.
type Index struct {
	IndexName     string        `json:"IndexName" yaml:"IndexName"`
	KeyAttributes KeyAttributes `json:"KeyAttributes" yaml:"KeyAttributes"`
}

type tableFile struct {
	KeyAttributes          KeyAttributes `json:"KeyAttributes" yaml:"KeyAttributes"`
	GlobalSecondaryIndexes []Index       `json:"GlobalSecondaryIndexes,omitempty" yaml:"GlobalSecondaryIndexes,omitempty"`
}

// ParseTable decodes a table definition. JSON and YAML are accepted.
func ParseTable(file string, data []byte) (*Table, error) {
	name, _, _ := strings.Cut(file, ".")
	if name == "" {
		return nil, fileErr(file, ErrMalformedName, "table name is empty")
	}

	var tf tableFile
	var err error
	switch filepath.Ext(file) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &tf)
	default:
		err = json.Unmarshal(data, &tf)
	}
	if err != nil {
		return nil, fileErr(file, ErrInvalidTable, "%v", err)
	}

	if err := checkKeys(file, "", tf.KeyAttributes); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for i, gsi := range tf.GlobalSecondaryIndexes {
		if gsi.IndexName == "" {
			return nil, fileErr(file, ErrInvalidTable, "GlobalSecondaryIndexes[%d]: IndexName is required", i)
		}
		if seen[gsi.IndexName] {
			return nil, fileErr(file, ErrInvalidTable, "index %s declared twice", gsi.IndexName)
		}
		seen[gsi.IndexName] = true
		if err := checkKeys(file, gsi.IndexName+": ", gsi.KeyAttributes); err != nil {
			return nil, err
		}
	}

	return &Table{
		Name:                   name,
		KeyAttributes:          tf.KeyAttributes,
		GlobalSecondaryIndexes: tf.GlobalSecondaryIndexes,
		File:                   file,
	}, nil
}

// ParseTables reads and decodes every named file in dir.
func ParseTables(dir string, files []string) ([]*Table, error) {
	var tables []*Table
	seen := make(map[string]string)
	for _, file := range files {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			return nil, fileErr(file, err, "")
		}
		t, err := ParseTable(file, data)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[t.Name]; dup {
			return nil, fileErr(file, ErrDuplicateFragment, "table %s already defined by %s", t.Name, prev)
		}
		seen[t.Name] = file
		tables = append(tables, t)
	}
	return tables, nil
}

// Attributes returns the distinct key attributes of the table and its
// indexes, in declaration order.
func (t *Table) Attributes() []Attribute {
	var attrs []Attribute
	seen := make(map[string]bool)
	add := func(a *Attribute) {
		if a == nil || seen[a.AttributeName] {
			return
		}
		seen[a.AttributeName] = true
		attrs = append(attrs, *a)
	}
	add(t.KeyAttributes.PartitionKey)
	add(t.KeyAttributes.SortKey)
	for _, gsi := range t.GlobalSecondaryIndexes {
		add(gsi.KeyAttributes.PartitionKey)
		add(gsi.KeyAttributes.SortKey)
	}
	return attrs
}

func checkKeys(file, prefix string, k KeyAttributes) error {
	if k.PartitionKey == nil || k.PartitionKey.AttributeName == "" {
		return fileErr(file, ErrInvalidTable, "%sKeyAttributes.PartitionKey is required", prefix)
	}
	for _, a := range []*Attribute{k.PartitionKey, k.SortKey} {
		if a == nil {
			continue
		}
		switch a.AttributeType {
		case "S", "N", "B":
		default:
			return fileErr(file, ErrInvalidTable, "%sattribute %s has type %q (want S, N or B)", prefix, a.AttributeName, a.AttributeType)
		}
	}
	return nil
}
