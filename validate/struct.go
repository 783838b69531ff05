// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package validate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Validatable can be implemented by a [Struct] target type to
// apply custom validation rules after decoding.
type Validatable interface {
	Validate() error
}

type structValidator[T any] struct{}

// Struct returns a [Validator] whose typed value is T.
//
// Parse accepts a T directly, raw JSON ([]byte, json.RawMessage or
// string) or any map-like value which can be decoded into T. If T
// implements [Validatable], Validate is run after decoding.
//
// Matches additionally accepts error values when T (or *T) is an
// error type, identified with [errors.As]. This makes Struct usable
// for declaring the error shapes a procedure can return.
func Struct[T any]() Validator {
	return structValidator[T]{}
}

// Parse implements the [Validator] interface.
func (structValidator[T]) Parse(v any) (any, error) {
	var t T
	switch x := v.(type) {
	case T:
		t = x
	case error:
		tv, ok := errorAs[T](x)
		if !ok {
			return nil, ParseError{Cause: fmt.Errorf("error value does not match target type: %s", x)}
		}
		t = tv
	case json.RawMessage:
		err := json.Unmarshal(x, &t)
		if err != nil {
			return nil, ParseError{Cause: err}
		}
	case []byte:
		err := json.Unmarshal(x, &t)
		if err != nil {
			return nil, ParseError{Cause: err}
		}
	case string:
		err := json.Unmarshal([]byte(x), &t)
		if err != nil {
			return nil, ParseError{Cause: err}
		}
	default:
		err := decode(v, &t)
		if err != nil {
			return nil, ParseError{Cause: err}
		}
	}

	err := check(t)
	if err != nil {
		return nil, ParseError{Cause: err}
	}
	return t, nil
}

// Matches implements the [Validator] interface.
func (sv structValidator[T]) Matches(v any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	_, err := sv.Parse(v)
	return err == nil
}

func decode[T any](v any, t *T) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           t,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return err
	}
	return dec.Decode(v)
}

func check(v any) error {
	if c, ok := v.(Validatable); ok {
		return c.Validate()
	}
	return nil
}

// errorAs attempts to extract a T from the error chain of err.
// It supports both value and pointer receiver error implementations.
func errorAs[T any](err error) (T, bool) {
	var t T
	if _, ok := any(t).(error); ok {
		if errors.As(err, &t) {
			return t, true
		}
		return t, false
	}

	var p *T
	if _, ok := any(p).(error); ok {
		// The guard above ensures *T implements error, but vet cannot
		// prove that statically, so pass the target as an any value.
		var target any = &p
		if errors.As(err, target) && p != nil {
			return *p, true
		}
	}
	return t, false
}
