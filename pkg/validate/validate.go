// Package validate checks the runtime shape of values decoded from platform
// responses and of arguments handed to the facades.
package validate

import (
	"encoding/json"
	"fmt"
	"reflect"

	apperrors "github.com/DeBrosOfficial/supasaas/pkg/errors"
)

// Kind is the JSON-level type a value is expected to have.
type Kind int

const (
	Any Kind = iota
	List
	Object
	String
	Number
	Bool
)

func (k Kind) String() string {
	switch k {
	case List:
		return "list"
	case Object:
		return "object"
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	default:
		return "any"
	}
}

// Func is the validator signature the facades accept.
type Func func(value any, kind Kind) error

// Error classes. A ValueError means the value was missing or empty, a
// TypeError means it was present but of the wrong kind.
const (
	classValue = "value"
	classType  = "type"
)

// Error is returned by Validate and Named.
type Error struct {
	*apperrors.ValidationError
	Class string
	Kind  Kind
}

// Unwrap exposes the embedded validation error so apperrors.IsValidation works.
func (e *Error) Unwrap() error { return e.ValidationError }

// Error returns "<name> <message>" when a name is set.
func (e *Error) Error() string {
	if e.Field != "" {
		return e.Field + " " + e.Message()
	}
	return e.Message()
}

func newError(class, name string, kind Kind, message string, value any) *Error {
	return &Error{
		ValidationError: apperrors.NewValidationError(name, message, value),
		Class:           class,
		Kind:            kind,
	}
}

// IsTypeError reports whether err is a wrong-kind validation failure.
func IsTypeError(err error) bool {
	var e *Error
	return apperrors.As(err, &e) && e.Class == classType
}

// IsValueError reports whether err is a missing-value validation failure.
func IsValueError(err error) bool {
	var e *Error
	return apperrors.As(err, &e) && e.Class == classValue
}

// Validate checks that value is non-empty and of the given kind.
func Validate(value any, kind Kind) error {
	return Named("", value, kind)
}

// Named is Validate with the argument name prefixed to the message,
// e.g. "table_name must be string".
func Named(name string, value any, kind Kind) error {
	if isEmpty(value) {
		return newError(classValue, name, kind, "must have value", value)
	}
	if kind == Any {
		return nil
	}
	if kindOf(value) != kind {
		return newError(classType, name, kind, fmt.Sprintf("must be %s", kind), value)
	}
	return nil
}

// Default is the validator used when a facade is built without one.
var Default Func = Validate

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func kindOf(value any) Kind {
	if _, ok := value.(json.Number); ok {
		return Number
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Any
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return String
		}
		return List
	case reflect.Map, reflect.Struct:
		return Object
	case reflect.String:
		return String
	case reflect.Bool:
		return Bool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return Number
	}
	return Any
}
