package validate

import (
	"encoding/json"
	"testing"

	apperrors "github.com/DeBrosOfficial/supasaas/pkg/errors"
)

func TestValidate(t *testing.T) {
	var nilMap map[string]any

	tests := []struct {
		name      string
		value     any
		kind      Kind
		wantErr   bool
		typeErr   bool
		valueErr  bool
		wantError string
	}{
		{name: "list of rows", value: []any{map[string]any{"id": 1}}, kind: List},
		{name: "typed rows", value: []map[string]any{{"id": 1}}, kind: List},
		{name: "object", value: map[string]any{"id": 1}, kind: Object},
		{name: "string", value: "users", kind: String},
		{name: "int", value: 42, kind: Number},
		{name: "float", value: 4.2, kind: Number},
		{name: "json number", value: json.Number("7"), kind: Number},
		{name: "zero is a value", value: 0, kind: Number},
		{name: "false is a value", value: false, kind: Bool},
		{name: "any accepts anything", value: struct{}{}, kind: Any},
		{name: "nil", value: nil, kind: List, wantErr: true, valueErr: true, wantError: "must have value"},
		{name: "empty list", value: []any{}, kind: List, wantErr: true, valueErr: true, wantError: "must have value"},
		{name: "empty string", value: "", kind: String, wantErr: true, valueErr: true, wantError: "must have value"},
		{name: "nil map", value: nilMap, kind: Object, wantErr: true, valueErr: true, wantError: "must have value"},
		{name: "object is not list", value: map[string]any{"id": 1}, kind: List, wantErr: true, typeErr: true, wantError: "must be list"},
		{name: "string is not number", value: "42", kind: Number, wantErr: true, typeErr: true, wantError: "must be number"},
		{name: "list is not object", value: []any{"id"}, kind: Object, wantErr: true, typeErr: true, wantError: "must be object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.value, tt.kind)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			if err.Error() != tt.wantError {
				t.Errorf("Expected %q, got %q", tt.wantError, err.Error())
			}
			if IsTypeError(err) != tt.typeErr {
				t.Errorf("IsTypeError() = %v, want %v", IsTypeError(err), tt.typeErr)
			}
			if IsValueError(err) != tt.valueErr {
				t.Errorf("IsValueError() = %v, want %v", IsValueError(err), tt.valueErr)
			}
			if !apperrors.IsValidation(err) {
				t.Error("Expected a validation error")
			}
		})
	}
}

func TestNamed(t *testing.T) {
	if err := Named("age", "42", Number); err == nil || err.Error() != "age must be number" {
		t.Errorf("unexpected error %v", err)
	}
	if err := Named("table_name", "", String); err == nil || err.Error() != "table_name must have value" {
		t.Errorf("unexpected error %v", err)
	}
	if err := Named("match", map[string]any{"id": 1}, Object); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestKindString(t *testing.T) {
	kinds := map[Kind]string{List: "list", Object: "object", String: "string", Number: "number", Bool: "bool", Any: "any"}
	for k, want := range kinds {
		if k.String() != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, k.String(), want)
		}
	}
}
