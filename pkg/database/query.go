package database

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/DeBrosOfficial/supasaas/pkg/client"
	apperrors "github.com/DeBrosOfficial/supasaas/pkg/errors"
	"github.com/DeBrosOfficial/supasaas/pkg/validate"
)

// query builds the request for a table path such as /rest/v1/users.
type query func(path string) client.Request

// execute runs q on the selected handle. A handle closed underneath us is
// replaced once through RefreshClients.
func (d *DB) execute(ctx context.Context, useServiceRole bool, table string, q query) (any, error) {
	path := client.RestPath + "/" + url.PathEscape(table)

	for attempt := 0; ; attempt++ {
		h, err := d.client.SelectClient(useServiceRole)
		if err != nil {
			return nil, err
		}

		resp, err := h.Do(ctx, q(path))
		if apperrors.Is(err, apperrors.ErrClientClosed) && attempt == 0 {
			d.client.RefreshClients()
			continue
		}
		if err != nil {
			return nil, err
		}

		return resp.JSON()
	}
}

// getFilter checks that match names exactly one column and that its value
// has the expected kind. Failures are logged.
func (d *DB) getFilter(match Match, action, table string) (string, any, error) {
	fail := func(err error) (string, any, error) {
		d.log(zapcore.ErrorLevel, action,
			zap.Any("match", match.Filter),
			zap.String("table_name", table),
			zap.Error(err))
		return "", nil, err
	}

	if err := d.validate(match.Filter, validate.Object); err != nil {
		return fail(err)
	}
	if len(match.Filter) != 1 {
		return fail(apperrors.NewValidationError("match", "Match dictionary must have one key-value pair", match.Filter))
	}

	for key, value := range match.Filter {
		if err := d.validate(key, validate.String); err != nil {
			return fail(err)
		}
		if err := d.validate(value, match.Type); err != nil {
			return fail(apperrors.Wrapf(err, "Value for filter '%s' must be a %s", key, match.Type))
		}
		return key, value, nil
	}
	return fail(apperrors.ErrInvalidInput)
}

// validateResponse checks data is a list of objects. Failures are logged.
func (d *DB) validateResponse(data any, action, table string, fields ...zap.Field) bool {
	err := d.validate(data, validate.List)
	if err == nil {
		list, _ := data.([]any)
		for _, item := range list {
			if err = d.validate(item, validate.Object); err != nil {
				break
			}
		}
	}
	if err == nil {
		return true
	}

	fields = append([]zap.Field{
		zap.String("table_name", table),
		zap.Any("data", data),
	}, fields...)
	d.log(zapcore.ErrorLevel, action, append(fields, zap.Error(err))...)
	return false
}

func (d *DB) checkTable(table, action string) bool {
	if err := d.validate(table, validate.String); err != nil {
		d.log(zapcore.ErrorLevel, action, zap.String("table_name", table), zap.Error(err))
		return false
	}
	return true
}

// isEmptyResult reports a missing body or an empty list. Any other shape is
// left for validateResponse to reject.
func isEmptyResult(data any) bool {
	if data == nil {
		return true
	}
	list, ok := data.([]any)
	return ok && len(list) == 0
}

func toRows(data any) []Row {
	list, _ := data.([]any)
	rows := make([]Row, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			rows = append(rows, m)
		}
	}
	return rows
}

// formatValue renders a filter operand the way the REST interface expects.
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	case nil:
		return "null"
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// formatList renders values as an in.(...) operand, quoting items that carry
// reserved characters.
func formatList(values []any) string {
	items := make([]string, 0, len(values))
	for _, v := range values {
		s := formatValue(v)
		if strings.ContainsAny(s, ",()\" ") {
			s = `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
		}
		items = append(items, s)
	}
	return "in.(" + strings.Join(items, ",") + ")"
}

func eqQuery(column string, value any, sel string) url.Values {
	q := url.Values{}
	if sel != "" {
		q.Set("select", sel)
	}
	q.Set(column, "eq."+formatValue(value))
	return q
}

func sortedKeys(m map[string][]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
