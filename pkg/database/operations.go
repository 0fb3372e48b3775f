package database

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/DeBrosOfficial/supasaas/pkg/client"
	apperrors "github.com/DeBrosOfficial/supasaas/pkg/errors"
	"github.com/DeBrosOfficial/supasaas/pkg/validate"
)

func representation() http.Header {
	return http.Header{"Prefer": {"return=representation"}}
}

func emptyResult(action, table string) error {
	return apperrors.Newf("Failed to %s row into %s", action, table)
}

// InsertRow inserts data into table. It reports false when the platform
// rejects the row or returns nothing.
func (d *DB) InsertRow(ctx context.Context, table string, data Row, opts ...CallOption) bool {
	const action = "insert"
	o := resolve(opts)
	if !d.checkTable(table, action) {
		return false
	}
	fail := func(err error) bool {
		d.log(zapcore.ErrorLevel, action,
			zap.Any("data", data),
			zap.String("table_name", table),
			zap.Error(err))
		return false
	}
	if err := d.validate(data, validate.Object); err != nil {
		return fail(err)
	}

	result, err := d.execute(ctx, o.serviceRole, table, func(path string) client.Request {
		return client.Request{Method: http.MethodPost, Path: path, Header: representation(), JSON: data}
	})
	if err != nil {
		return fail(err)
	}
	if isEmptyResult(result) {
		return fail(emptyResult(action, table))
	}
	return d.validateResponse(result, action, table)
}

// SelectRow returns the rows of table matching match, or EmptyValue.
func (d *DB) SelectRow(ctx context.Context, table string, match Match, opts ...CallOption) []Row {
	const action = "select"
	o := resolve(opts)
	if !d.checkTable(table, action) {
		return EmptyValue()
	}
	column, value, err := d.getFilter(match, action, table)
	if err != nil {
		return EmptyValue()
	}
	sel := o.columnStr()

	result, err := d.execute(ctx, o.serviceRole, table, func(path string) client.Request {
		return client.Request{Method: http.MethodGet, Path: path, Query: eqQuery(column, value, sel)}
	})
	if err == nil && isEmptyResult(result) {
		d.log(zapcore.InfoLevel, action,
			zap.String("table_name", table),
			zap.String("column_str", sel),
			zap.Any("match", match.Filter),
			zap.Any("data", result))
		err = emptyResult(action, table)
	}
	if err != nil {
		d.log(zapcore.ErrorLevel, action,
			zap.String("table_name", table),
			zap.String("column_str", sel),
			zap.Any("match", match.Filter),
			zap.Error(err))
		return EmptyValue()
	}

	if !d.validateResponse(result, action, table, zap.String("column_str", sel), zap.Any("match", match.Filter)) {
		return EmptyValue()
	}
	return toRows(result)
}

// SelectRows returns the rows whose columns take any of the listed values:
// {"age": [30, 40]} selects rows with age 30 or 40.
func (d *DB) SelectRows(ctx context.Context, table string, matches map[string][]any, opts ...CallOption) []Row {
	const action = "select"
	o := resolve(opts)
	if !d.checkTable(table, action) {
		return EmptyValue()
	}
	fail := func(err error) []Row {
		d.log(zapcore.ErrorLevel, action,
			zap.Any("matches", matches),
			zap.String("table_name", table),
			zap.Error(err))
		return EmptyValue()
	}

	if len(matches) == 0 {
		return fail(apperrors.NewValidationError("matches", "must have value", matches))
	}
	keys := sortedKeys(matches)
	for _, key := range keys {
		if err := d.validate(matches[key], validate.List); err != nil {
			return fail(apperrors.Wrapf(err, "Value for filter '%s' must be a list", key))
		}
	}

	sel := o.columnStr()
	q := url.Values{"select": {sel}}
	for _, key := range keys {
		q.Set(key, formatList(matches[key]))
	}

	result, err := d.execute(ctx, o.serviceRole, table, func(path string) client.Request {
		return client.Request{Method: http.MethodGet, Path: path, Query: q}
	})
	if err != nil {
		return fail(err)
	}
	if isEmptyResult(result) {
		d.log(zapcore.InfoLevel, action,
			zap.String("table_name", table),
			zap.Any("matches", matches),
			zap.Any("data", result))
		return EmptyValue()
	}
	if !d.validateResponse(result, action, table, zap.String("column_str", sel), zap.Any("matches", matches)) {
		return EmptyValue()
	}
	return toRows(result)
}

// UpdateRow applies info to the rows matching match. It reports false when
// nothing was updated.
func (d *DB) UpdateRow(ctx context.Context, table string, info Row, match Match, opts ...CallOption) bool {
	const action = "update"
	o := resolve(opts)
	if !d.checkTable(table, action) {
		return false
	}
	column, value, err := d.getFilter(match, action, table)
	if err != nil {
		return false
	}
	fail := func(err error) bool {
		d.log(zapcore.ErrorLevel, action,
			zap.Any("updates", info),
			zap.Any("match", match.Filter),
			zap.String("table_name", table),
			zap.Error(err))
		return false
	}
	if err := d.validate(info, validate.Object); err != nil {
		return fail(err)
	}

	result, err := d.execute(ctx, o.serviceRole, table, func(path string) client.Request {
		return client.Request{
			Method: http.MethodPatch,
			Path:   path,
			Query:  eqQuery(column, value, ""),
			Header: representation(),
			JSON:   info,
		}
	})
	if err != nil {
		return fail(err)
	}
	if isEmptyResult(result) {
		return fail(emptyResult(action, table))
	}
	return d.validateResponse(result, action, table, zap.Any("match", match.Filter))
}

// DeleteRow deletes the rows matching match.
func (d *DB) DeleteRow(ctx context.Context, table string, match Match, opts ...CallOption) bool {
	const action = "delete"
	o := resolve(opts)
	if !d.checkTable(table, action) {
		return false
	}
	column, value, err := d.getFilter(match, action, table)
	if err != nil {
		return false
	}

	_, err = d.execute(ctx, o.serviceRole, table, func(path string) client.Request {
		return client.Request{Method: http.MethodDelete, Path: path, Query: eqQuery(column, value, "")}
	})
	if err != nil {
		d.log(zapcore.ErrorLevel, action,
			zap.String("table_name", table),
			zap.Any("match", match.Filter),
			zap.Error(err))
		return false
	}
	return true
}

// FindRow returns the rows whose matchColumn is at most withinPeriod, e.g.
// every row with an expiry before a timestamp.
func (d *DB) FindRow(ctx context.Context, table, matchColumn string, withinPeriod int64, opts ...CallOption) []Row {
	const action = "find row"
	o := resolve(opts)
	if !d.checkTable(table, action) {
		return EmptyValue()
	}
	sel := o.columnStr()
	fields := []zap.Field{
		zap.String("table_name", table),
		zap.String("match_column", matchColumn),
		zap.Int64("within_period", withinPeriod),
		zap.String("columns", sel),
	}
	if err := d.validate(matchColumn, validate.String); err != nil {
		d.log(zapcore.ErrorLevel, action, append(fields, zap.Error(err))...)
		return EmptyValue()
	}

	q := url.Values{"select": {sel}}
	q.Set(matchColumn, "lte."+strconv.FormatInt(withinPeriod, 10))

	result, err := d.execute(ctx, o.serviceRole, table, func(path string) client.Request {
		return client.Request{Method: http.MethodGet, Path: path, Query: q}
	})
	if err != nil {
		d.log(zapcore.ErrorLevel, action, append(fields, zap.Error(err))...)
		return EmptyValue()
	}
	if isEmptyResult(result) {
		d.log(zapcore.InfoLevel, action, append(fields, zap.Any("data", result))...)
		return EmptyValue()
	}
	if !d.validateResponse(result, action, table, fields[1:]...) {
		return EmptyValue()
	}
	return toRows(result)
}
