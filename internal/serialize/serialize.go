// Package serialize turns typed resources into CloudFormation property maps
// and finds the logical IDs a property map refers to.
package serialize

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Resource serializes a resource struct to CloudFormation properties.
// Field names come from json tags, nil and zero fields are omitted, and
// values implementing json.Marshaler (intrinsics, AttrRef, principals) are
// expanded through their JSON form. A resource that is itself a
// json.Marshaler must marshal to a JSON object.
func Resource(v any) (map[string]any, error) {
	if m, ok := v.(json.Marshaler); ok {
		out, err := fromMarshaler(m)
		if err != nil {
			return nil, err
		}
		props, ok := out.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%T does not marshal to an object", v)
		}
		return props, nil
	}

	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return nil, nil
	}

	result := make(map[string]any)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)

		// Skip unexported fields
		if !field.IsExported() {
			continue
		}

		// Get the JSON tag or use field name
		name := getFieldName(field)
		if name == "-" {
			continue
		}

		// Skip zero values unless explicitly required
		if isZeroValue(fieldVal) {
			continue
		}

		// Serialize the field value
		serialized, err := serializeValue(fieldVal)
		if err != nil {
			return nil, err
		}

		if serialized != nil {
			result[name] = serialized
		}
	}

	return result, nil
}

// getFieldName returns the JSON field name for a struct field.
func getFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}

	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "" {
		return field.Name
	}
	return name
}

// isZeroValue returns true if the value is the zero value for its type.
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	case reflect.String:
		return v.String() == ""
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Struct:
		// Check if it has an IsZero method
		if v.CanInterface() {
			if zeroer, ok := v.Interface().(interface{ IsZero() bool }); ok {
				return zeroer.IsZero()
			}
		}
		return false
	default:
		return false
	}
}

// serializeValue converts a reflect.Value to a JSON-compatible value.
func serializeValue(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	// Handle pointers
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, nil
		}
		return serializeValue(v.Elem())
	}

	// Handle interfaces
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		return serializeValue(v.Elem())
	}

	if v.CanInterface() {
		if marshaler, ok := v.Interface().(json.Marshaler); ok {
			return fromMarshaler(marshaler)
		}
	}

	switch v.Kind() {
	case reflect.Struct:
		return Resource(v.Interface())

	case reflect.Slice:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := serializeValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			result[i] = elem
		}
		return result, nil

	case reflect.Map:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make(map[string]any)
		iter := v.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			val, err := serializeValue(iter.Value())
			if err != nil {
				return nil, err
			}
			result[key] = val
		}
		return result, nil

	case reflect.String:
		return v.String(), nil

	case reflect.Bool:
		return v.Bool(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil

	case reflect.Float32, reflect.Float64:
		return v.Float(), nil

	default:
		// Fall back to JSON marshaling
		data, err := json.Marshal(v.Interface())
		if err != nil {
			return nil, err
		}
		var result any
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, err
		}
		return result, nil
	}
}

func fromMarshaler(m json.Marshaler) (any, error) {
	data, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// References returns the sorted logical IDs referenced by Ref, Fn::GetAtt
// and Fn::Sub anywhere in v. Pseudo parameters (AWS::*) are not included,
// nor are Fn::Sub variables bound by the substitution map.
func References(v any) []string {
	seen := make(map[string]bool)
	collect(v, seen)

	refs := make([]string, 0, len(seen))
	for name := range seen {
		refs = append(refs, name)
	}
	sort.Strings(refs)
	return refs
}

func collect(v any, seen map[string]bool) {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 1 {
			if ref, ok := val["Ref"].(string); ok {
				addRef(ref, seen)
				return
			}
			if getAtt, ok := val["Fn::GetAtt"]; ok {
				addGetAtt(getAtt, seen)
				return
			}
			if sub, ok := val["Fn::Sub"]; ok {
				addSub(sub, seen)
				return
			}
		}
		for _, item := range val {
			collect(item, seen)
		}
	case []any:
		for _, item := range val {
			collect(item, seen)
		}
	}
}

func addRef(name string, seen map[string]bool) {
	if name == "" || strings.HasPrefix(name, "AWS::") {
		return
	}
	seen[name] = true
}

func addGetAtt(v any, seen map[string]bool) {
	switch val := v.(type) {
	case []any:
		if len(val) > 0 {
			if name, ok := val[0].(string); ok {
				addRef(name, seen)
			}
		}
	case string:
		name, _, _ := strings.Cut(val, ".")
		addRef(name, seen)
	}
}

func addSub(v any, seen map[string]bool) {
	var text string
	bound := make(map[string]bool)

	switch val := v.(type) {
	case string:
		text = val
	case []any:
		if len(val) == 0 {
			return
		}
		text, _ = val[0].(string)
		if len(val) > 1 {
			if vars, ok := val[1].(map[string]any); ok {
				for name, item := range vars {
					bound[name] = true
					collect(item, seen)
				}
			}
		}
	}

	for _, name := range SubVariables(text) {
		name, _, _ = strings.Cut(name, ".")
		if !bound[name] {
			addRef(name, seen)
		}
	}
}

// SubVariables returns the ${...} variable names in an Fn::Sub string,
// skipping ${!Literal} escapes.
func SubVariables(s string) []string {
	var names []string
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			return names
		}
		s = s[start+2:]
		end := strings.Index(s, "}")
		if end < 0 {
			return names
		}
		name := strings.TrimSpace(s[:end])
		s = s[end+1:]
		if name == "" || strings.HasPrefix(name, "!") {
			continue
		}
		names = append(names, name)
	}
}
