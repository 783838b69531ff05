// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package validate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when a value has no valid JSON encoding.
var ErrInvalidJSON = errors.New("invalid json")

// JSONShape returns a [Validator] which accepts any value whose JSON
// encoding contains all of the given gjson paths. The typed value
// produced by Parse is the raw JSON encoding.
func JSONShape(paths ...string) Validator {
	return jsonShape{paths: paths}
}

type jsonShape struct {
	paths []string
}

// Parse implements the [Validator] interface.
func (s jsonShape) Parse(v any) (any, error) {
	raw, err := encodeJSON(v)
	if err != nil {
		return nil, ParseError{Cause: err}
	}
	for _, path := range s.paths {
		if !gjson.GetBytes(raw, path).Exists() {
			return nil, ParseError{Cause: fmt.Errorf("missing field: %s", path)}
		}
	}
	return json.RawMessage(raw), nil
}

// Matches implements the [Validator] interface.
func (s jsonShape) Matches(v any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	_, err := s.Parse(v)
	return err == nil
}

// JSONField returns a [Validator] which accepts any value whose JSON
// encoding contains the given gjson path with the given string value.
func JSONField(path, value string) Validator {
	return jsonField{path: path, value: value}
}

type jsonField struct {
	path  string
	value string
}

// Parse implements the [Validator] interface.
func (f jsonField) Parse(v any) (any, error) {
	raw, err := encodeJSON(v)
	if err != nil {
		return nil, ParseError{Cause: err}
	}

	r := gjson.GetBytes(raw, f.path)
	if !r.Exists() {
		return nil, ParseError{Cause: fmt.Errorf("missing field: %s", f.path)}
	}
	if r.String() != f.value {
		return nil, ParseError{Cause: fmt.Errorf("field %s does not equal %q", f.path, f.value)}
	}
	return json.RawMessage(raw), nil
}

// Matches implements the [Validator] interface.
func (f jsonField) Matches(v any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	_, err := f.Parse(v)
	return err == nil
}

// encodeJSON returns the JSON encoding of v. Values which already
// carry valid JSON ([]byte, json.RawMessage, string) are used as is.
func encodeJSON(v any) ([]byte, error) {
	switch x := v.(type) {
	case json.RawMessage:
		if !gjson.ValidBytes(x) {
			return nil, ErrInvalidJSON
		}
		return x, nil
	case []byte:
		if !gjson.ValidBytes(x) {
			return nil, ErrInvalidJSON
		}
		return x, nil
	case string:
		if !gjson.Valid(x) {
			return nil, ErrInvalidJSON
		}
		return []byte(x), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, ErrInvalidJSON
		}
		return b, nil
	}
}
