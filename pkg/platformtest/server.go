// Package platformtest runs an in-memory stand-in for the platform's auth,
// REST and storage endpoints so the facades can be tested end to end.
package platformtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DeBrosOfficial/supasaas/pkg/config"
)

// Keys accepted by the server.
const (
	AnonKey    = "anon-key"
	ServiceKey = "service-key"
)

// Recorded is a request as the server received it.
type Recorded struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

type fault struct {
	method string
	prefix string
	status int
	body   string
}

// Server is a fake project. All state is guarded by mu.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	tables    map[string][]map[string]any
	protected map[string]bool
	buckets   map[string]map[string]object
	users     map[string]*user // by email
	tokens    map[string]string // access token -> email
	refresh   map[string]string // refresh token -> email
	faults    []fault
	requests  []Recorded
}

// New starts a server and registers its shutdown with t.
func New(t testing.TB) *Server {
	s := &Server{
		tables:    make(map[string][]map[string]any),
		protected: make(map[string]bool),
		buckets:   make(map[string]map[string]object),
		users:     make(map[string]*user),
		tokens:    make(map[string]string),
		refresh:   make(map[string]string),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// Login returns credentials for the server, including the service-role key.
func (s *Server) Login() config.Login {
	return config.Login{URL: s.URL, Key: AnonKey, ServiceRole: ServiceKey}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.requireAPIKey)
	r.Use(s.injectFaults)

	r.Route("/auth/v1", func(r chi.Router) {
		r.Post("/signup", s.handleSignUp)
		r.Post("/token", s.handleToken)
		r.Post("/logout", s.handleLogout)
		r.Post("/recover", s.handleRecover)
		r.Get("/user", s.handleGetUser)
		r.Put("/user", s.handleUpdateUser)
	})

	r.Route("/rest/v1", func(r chi.Router) {
		r.Get("/{table}", s.handleSelect)
		r.Post("/{table}", s.handleInsert)
		r.Patch("/{table}", s.handleUpdate)
		r.Delete("/{table}", s.handleDelete)
	})

	r.Route("/storage/v1/object", func(r chi.Router) {
		r.Post("/list/{bucket}", s.handleList)
		r.Post("/sign/{bucket}/*", s.handleSign)
		r.Get("/sign/{bucket}/*", s.handleSignedDownload)
		r.Post("/{bucket}/*", s.handleUpload)
		r.Get("/{bucket}/*", s.handleDownload)
		r.Delete("/{bucket}", s.handleRemove)
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/storage/v1/object/sign/") && r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("apikey")
		if key != AnonKey && key != ServiceKey {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid API key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		for i, f := range s.faults {
			if f.method == r.Method && strings.HasPrefix(r.URL.Path, f.prefix) {
				s.faults = append(s.faults[:i], s.faults[i+1:]...)
				s.mu.Unlock()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(f.status)
				io.WriteString(w, f.body)
				return
			}
		}
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// FailNext makes the next request matching method and path prefix return
// status with body. Faults are consumed in the order they were added.
func (s *Server) FailNext(method, pathPrefix string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{method: method, prefix: pathPrefix, status: status, body: body})
}

// Requests returns every request received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Recorded, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request.
func (s *Server) LastRequest() Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Recorded{}
	}
	return s.requests[len(s.requests)-1]
}

func (s *Server) isService(r *http.Request) bool {
	return bearer(r) == ServiceKey
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
