package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "github.com/DeBrosOfficial/supasaas/pkg/errors"
	"github.com/DeBrosOfficial/supasaas/pkg/validate"
)

// formatFailure renders a command error, suffixed with its error code when
// the error carries one.
func formatFailure(err error) string {
	code := apperrors.GetErrorCode(err)
	if code == apperrors.CodeInternal || code == apperrors.CodeOK {
		return err.Error()
	}
	return fmt.Sprintf("%v (%s)", err, code)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseObject decodes a JSON object argument.
func parseObject(name, raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%s must be a JSON object: %w", name, err)
	}
	return m, nil
}

// parseKind maps a --kind flag onto a validate.Kind.
func parseKind(s string) (validate.Kind, error) {
	switch strings.ToLower(s) {
	case "", "any":
		return validate.Any, nil
	case "string":
		return validate.String, nil
	case "number":
		return validate.Number, nil
	case "bool":
		return validate.Bool, nil
	default:
		return validate.Any, fmt.Errorf("unknown kind %q; allowed: any, string, number, bool", s)
	}
}

// parseValue converts a filter value from the command line to kind.
func parseValue(raw string, kind validate.Kind) (any, error) {
	switch kind {
	case validate.Number:
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return nil, fmt.Errorf("value %q is not a number", raw)
		}
		return json.Number(raw), nil
	case validate.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a bool", raw)
		}
		return b, nil
	default:
		return raw, nil
	}
}
