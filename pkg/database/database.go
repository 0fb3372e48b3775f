// Package database provides row-level CRUD over the platform's REST
// interface. Every operation logs its own failures and reports them as false
// or EmptyValue so callers can branch without inspecting errors.
package database

import (
	"strings"

	"github.com/DeBrosOfficial/supasaas/pkg/client"
	"github.com/DeBrosOfficial/supasaas/pkg/logging"
	"github.com/DeBrosOfficial/supasaas/pkg/validate"
)

// Row is one table row keyed by column name.
type Row = map[string]any

// Match selects rows by a single column. Type is the kind the filter value
// must have; the zero value accepts any non-empty value.
type Match struct {
	Filter map[string]any
	Type   validate.Kind
}

// Eq is shorthand for a single-column match.
func Eq(column string, value any, kind validate.Kind) Match {
	return Match{Filter: map[string]any{column: value}, Type: kind}
}

// EmptyValue is returned by the read operations on failure.
func EmptyValue() []Row {
	return []Row{{}}
}

// DB is the database facade.
type DB struct {
	client   *client.Client
	validate validate.Func
	log      logging.Func
}

// Option configures a DB.
type Option func(*DB)

// WithValidator replaces the response validator.
func WithValidator(v validate.Func) Option {
	return func(d *DB) {
		if v != nil {
			d.validate = v
		}
	}
}

// WithLogger replaces the log function.
func WithLogger(l logging.Func) Option {
	return func(d *DB) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDB builds the facade over c.
func NewDB(c *client.Client, opts ...Option) *DB {
	d := &DB{
		client:   c,
		validate: validate.Default,
		log:      logging.DefaultFunc(logging.ComponentDatabase),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type callOptions struct {
	serviceRole bool
	columns     []string
}

// CallOption adjusts a single operation.
type CallOption func(*callOptions)

// WithServiceRole runs the operation on the service-role handle, bypassing
// row level security.
func WithServiceRole() CallOption {
	return func(o *callOptions) { o.serviceRole = true }
}

// WithColumns limits the returned columns. The default is all columns.
func WithColumns(cols ...string) CallOption {
	return func(o *callOptions) { o.columns = cols }
}

func resolve(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o callOptions) columnStr() string {
	if len(o.columns) == 0 {
		return "*"
	}
	return strings.Join(o.columns, ",")
}
