// Package validate holds the request checks applied before any persistence call.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error is a validation failure naming the offending field.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Message }

// IsValidation reports whether err is (or wraps) a validation failure.
func IsValidation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// ErrInvalidBody is returned when the body is not a JSON object.
var ErrInvalidBody = &Error{Message: "invalid JSON body"}

// Fields runs the two ordered passes over a JSON object body.
//
// Pass one walks required in order; the first field that is absent or null
// fails with "<field> is required.". Pass two runs only when pass one
// succeeded and fails on the first explicitly null key in document order
// with "<field> cannot be null.".
func Fields(body []byte, required []string) error {
	keys, values, err := objectMembers(body)
	if err != nil {
		return err
	}

	for _, f := range required {
		v, ok := values[f]
		if !ok || isNull(v) {
			return &Error{Field: f, Message: f + " is required."}
		}
	}
	for _, k := range keys {
		if isNull(values[k]) {
			return &Error{Field: k, Message: k + " cannot be null."}
		}
	}
	return nil
}

// objectMembers decodes a top-level object keeping key order. Repeated keys
// keep their first position and last value.
func objectMembers(body []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, ErrInvalidBody
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, ErrInvalidBody
	}

	var keys []string
	values := map[string]json.RawMessage{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, ErrInvalidBody
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, ErrInvalidBody
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, ErrInvalidBody
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, ErrInvalidBody
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, ErrInvalidBody
	}
	return keys, values, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// DecodeError turns a json decoding failure into a field-named validation error.
func DecodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &Error{Field: typeErr.Field, Message: typeErr.Field + " has an invalid value."}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return ErrInvalidBody
	}
	return &Error{Message: fmt.Sprintf("invalid request body: %v", err)}
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct checks the `validate` tags of v. The first failing field is reported
// with messages[field] when present, or a generic message otherwise.
// Fields are checked in declaration order.
func Struct(v any, messages map[string]string) error {
	err := structValidator.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	first := verrs[0]
	field := first.Field()
	if msg, ok := messages[field]; ok {
		return &Error{Field: field, Message: msg}
	}
	return &Error{Field: field, Message: fmt.Sprintf("%s failed on the '%s' rule.", field, first.Tag())}
}
