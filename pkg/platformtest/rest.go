package platformtest

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// CreateTable registers an empty table.
func (s *Server) CreateTable(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[name]; !ok {
		s.tables[name] = []map[string]any{}
	}
}

// Seed creates the table when needed and appends rows.
func (s *Server) Seed(table string, rows ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		s.tables[table] = append(s.tables[table], copyRow(row))
	}
	if s.tables[table] == nil {
		s.tables[table] = []map[string]any{}
	}
}

// Protect enables row level security on table: requests without the
// service key see no rows and cannot insert.
func (s *Server) Protect(table string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.protected[table] = true
}

// Rows returns a copy of the table contents.
func (s *Server) Rows(table string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.tables[table]))
	for _, row := range s.tables[table] {
		out = append(out, copyRow(row))
	}
	return out
}

// lookupTable must be called with mu held.
func (s *Server) lookupTable(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "table")
	if _, ok := s.tables[name]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"code":    "PGRST205",
			"message": fmt.Sprintf("Could not find the table 'public.%s' in the schema cache", name),
			"details": nil,
			"hint":    nil,
		})
		return "", false
	}
	return name, true
}

func (s *Server) visible(r *http.Request, table string) bool {
	return !s.protected[table] || s.isService(r)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.lookupTable(w, r)
	if !ok {
		return
	}
	filters, err := parseFilters(r)
	if err != nil {
		writeFilterError(w, err)
		return
	}

	out := []map[string]any{}
	if s.visible(r, table) {
		for _, row := range s.tables[table] {
			if matchAll(row, filters) {
				out = append(out, project(row, r.URL.Query().Get("select")))
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var payload any
	if err := decodeBody(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": "PGRST102", "message": "Empty or invalid json"})
		return
	}
	var rows []map[string]any
	switch p := payload.(type) {
	case map[string]any:
		rows = []map[string]any{p}
	case []any:
		for _, item := range p {
			if m, ok := item.(map[string]any); ok {
				rows = append(rows, m)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.lookupTable(w, r)
	if !ok {
		return
	}
	if !s.visible(r, table) {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"code":    "42501",
			"message": fmt.Sprintf("new row violates row-level security policy for table \"%s\"", table),
		})
		return
	}

	for _, row := range rows {
		s.tables[table] = append(s.tables[table], copyRow(row))
	}
	respond(w, r, http.StatusCreated, rows)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decodeBody(r, &patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": "PGRST102", "message": "Empty or invalid json"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.lookupTable(w, r)
	if !ok {
		return
	}
	filters, err := parseFilters(r)
	if err != nil {
		writeFilterError(w, err)
		return
	}

	updated := []map[string]any{}
	if s.visible(r, table) {
		for _, row := range s.tables[table] {
			if !matchAll(row, filters) {
				continue
			}
			for k, v := range patch {
				row[k] = v
			}
			updated = append(updated, copyRow(row))
		}
	}
	respond(w, r, http.StatusOK, updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.lookupTable(w, r)
	if !ok {
		return
	}
	filters, err := parseFilters(r)
	if err != nil {
		writeFilterError(w, err)
		return
	}

	removed := []map[string]any{}
	if s.visible(r, table) {
		kept := s.tables[table][:0]
		for _, row := range s.tables[table] {
			if matchAll(row, filters) {
				removed = append(removed, row)
				continue
			}
			kept = append(kept, row)
		}
		s.tables[table] = kept
	}
	respond(w, r, http.StatusOK, removed)
}

func respond(w http.ResponseWriter, r *http.Request, status int, rows []map[string]any) {
	if strings.Contains(r.Header.Get("Prefer"), "return=representation") {
		writeJSON(w, status, rows)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type filter struct {
	column string
	op     string
	value  string
}

func parseFilters(r *http.Request) ([]filter, error) {
	var out []filter
	for col, vals := range r.URL.Query() {
		if col == "select" || col == "order" || col == "limit" || col == "offset" {
			continue
		}
		for _, v := range vals {
			op, value, ok := strings.Cut(v, ".")
			if !ok {
				return nil, fmt.Errorf("failed to parse filter (%s)", v)
			}
			switch op {
			case "eq", "neq", "lt", "lte", "gt", "gte", "in":
			default:
				return nil, fmt.Errorf("unknown operator %q", op)
			}
			out = append(out, filter{column: col, op: op, value: value})
		}
	}
	return out, nil
}

func writeFilterError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"code":    "PGRST100",
		"message": err.Error(),
		"hint":    "check the filter syntax",
	})
}

func matchAll(row map[string]any, filters []filter) bool {
	for _, f := range filters {
		if !f.match(row) {
			return false
		}
	}
	return true
}

func (f filter) match(row map[string]any) bool {
	v, ok := row[f.column]
	if !ok {
		return false
	}
	actual := fmt.Sprint(v)

	switch f.op {
	case "eq":
		return actual == f.value
	case "neq":
		return actual != f.value
	case "in":
		list := strings.TrimSuffix(strings.TrimPrefix(f.value, "("), ")")
		for _, item := range strings.Split(list, ",") {
			if strings.Trim(item, `"`) == actual {
				return true
			}
		}
		return false
	}

	a, err1 := strconv.ParseFloat(actual, 64)
	b, err2 := strconv.ParseFloat(f.value, 64)
	if err1 != nil || err2 != nil {
		return false
	}
	switch f.op {
	case "lt":
		return a < b
	case "lte":
		return a <= b
	case "gt":
		return a > b
	case "gte":
		return a >= b
	}
	return false
}

func project(row map[string]any, sel string) map[string]any {
	if sel == "" || sel == "*" {
		return copyRow(row)
	}
	out := make(map[string]any)
	for _, col := range strings.Split(sel, ",") {
		col = strings.TrimSpace(col)
		if v, ok := row[col]; ok {
			out[col] = v
		}
	}
	return out
}

func copyRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
