package platformtest

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type object struct {
	id       string
	data     []byte
	mimetype string
	created  time.Time
}

// CreateBucket registers an empty bucket.
func (s *Server) CreateBucket(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[name]; !ok {
		s.buckets[name] = make(map[string]object)
	}
}

// PutObject stores data at bucket/name, creating the bucket when needed.
func (s *Server) PutObject(bucket, name string, data []byte, mimetype string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string]object)
	}
	s.buckets[bucket][name] = object{id: uuid.NewString(), data: data, mimetype: mimetype, created: time.Now()}
}

// Object returns the stored bytes and mimetype of bucket/name.
func (s *Server) Object(bucket, name string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.buckets[bucket][name]
	return obj.data, obj.mimetype, ok
}

func storageError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"statusCode": fmt.Sprint(status),
		"error":      code,
		"message":    message,
	})
}

// lookupBucket must be called with mu held.
func (s *Server) lookupBucket(w http.ResponseWriter, r *http.Request) (map[string]object, string, bool) {
	name := chi.URLParam(r, "bucket")
	b, ok := s.buckets[name]
	if !ok {
		storageError(w, http.StatusNotFound, "Bucket not found", "Bucket not found")
		return nil, "", false
	}
	return b, name, true
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	file, header, err := r.FormFile("file")
	if err != nil {
		storageError(w, http.StatusBadRequest, "invalid_request", "missing file field")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		storageError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, name, ok := s.lookupBucket(w, r)
	if !ok {
		return
	}
	if _, exists := b[key]; exists && r.Header.Get("x-upsert") != "true" {
		storageError(w, http.StatusBadRequest, "Duplicate", "The resource already exists")
		return
	}
	obj := object{
		id:       uuid.NewString(),
		data:     data,
		mimetype: header.Header.Get("Content-Type"),
		created:  time.Now(),
	}
	b[key] = obj
	writeJSON(w, http.StatusOK, map[string]any{"Key": name + "/" + key, "Id": obj.id})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	s.mu.Lock()
	defer s.mu.Unlock()
	b, _, ok := s.lookupBucket(w, r)
	if !ok {
		return
	}
	obj, ok := b[key]
	if !ok {
		storageError(w, http.StatusNotFound, "not_found", "Object not found")
		return
	}
	writeObject(w, obj)
}

func writeObject(w http.ResponseWriter, obj object) {
	if obj.mimetype != "" {
		w.Header().Set("Content-Type", obj.mimetype)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(obj.data)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Prefixes []string `json:"prefixes"`
	}
	if err := decodeBody(r, &body); err != nil || len(body.Prefixes) == 0 {
		storageError(w, http.StatusBadRequest, "invalid_request", "prefixes is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, name, ok := s.lookupBucket(w, r)
	if !ok {
		return
	}
	removed := []map[string]any{}
	for _, p := range body.Prefixes {
		if obj, ok := b[p]; ok {
			delete(b, p)
			removed = append(removed, map[string]any{"name": p, "bucket_id": name, "id": obj.id})
		}
	}
	writeJSON(w, http.StatusOK, removed)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Prefix string `json:"prefix"`
		Limit  int    `json:"limit"`
		Offset int    `json:"offset"`
	}
	if err := decodeBody(r, &body); err != nil {
		storageError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, _, ok := s.lookupBucket(w, r)
	if !ok {
		return
	}

	prefix := strings.Trim(body.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	folders := map[string]bool{}
	var out []map[string]any
	for key, obj := range b {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		if dir, _, nested := strings.Cut(rest, "/"); nested {
			if !folders[dir] {
				folders[dir] = true
				out = append(out, map[string]any{"name": dir, "id": nil, "metadata": nil})
			}
			continue
		}
		ts := obj.created.UTC().Format(time.RFC3339)
		out = append(out, map[string]any{
			"name":             path.Base(key),
			"id":               obj.id,
			"created_at":       ts,
			"updated_at":       ts,
			"last_accessed_at": ts,
			"metadata": map[string]any{
				"size":     len(obj.data),
				"mimetype": obj.mimetype,
			},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i]["name"].(string) < out[j]["name"].(string) })

	if body.Offset > 0 && body.Offset < len(out) {
		out = out[body.Offset:]
	} else if body.Offset >= len(out) {
		out = nil
	}
	if body.Limit > 0 && len(out) > body.Limit {
		out = out[:body.Limit]
	}
	if out == nil {
		out = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	var body struct {
		ExpiresIn int `json:"expiresIn"`
	}
	if err := decodeBody(r, &body); err != nil || body.ExpiresIn <= 0 {
		storageError(w, http.StatusBadRequest, "invalid_request", "expiresIn must be positive")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, name, ok := s.lookupBucket(w, r)
	if !ok {
		return
	}
	if _, ok := b[key]; !ok {
		storageError(w, http.StatusNotFound, "not_found", "Object not found")
		return
	}
	token := fmt.Sprintf("%s.%d", uuid.NewString(), time.Now().Add(time.Duration(body.ExpiresIn)*time.Second).Unix())
	writeJSON(w, http.StatusOK, map[string]any{
		"signedURL": fmt.Sprintf("/object/sign/%s/%s?token=%s", name, key, token),
	})
}

func (s *Server) handleSignedDownload(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("token") == "" {
		storageError(w, http.StatusBadRequest, "invalid_request", "missing token")
		return
	}
	key := chi.URLParam(r, "*")
	s.mu.Lock()
	defer s.mu.Unlock()
	b, _, ok := s.lookupBucket(w, r)
	if !ok {
		return
	}
	obj, ok := b[key]
	if !ok {
		storageError(w, http.StatusNotFound, "not_found", "Object not found")
		return
	}
	writeObject(w, obj)
}
