// Package storage uploads, downloads, lists and signs objects in the
// platform's storage buckets.
package storage

import (
	"context"
	"net/url"
	"strings"

	"github.com/DeBrosOfficial/supasaas/pkg/client"
	apperrors "github.com/DeBrosOfficial/supasaas/pkg/errors"
	"github.com/DeBrosOfficial/supasaas/pkg/logging"
	"github.com/DeBrosOfficial/supasaas/pkg/validate"
)

// DefaultSignedURLExpiry is used when CreateSignedURL gets no expiry.
const DefaultSignedURLExpiry = 3600

// listLimit is the page size for ListFiles.
const listLimit = 100

// FileObject is one entry of a bucket listing.
type FileObject = map[string]any

// EmptyValue is returned by ListFiles on failure.
func EmptyValue() []FileObject {
	return []FileObject{{}}
}

// Storage is the object-storage facade. It always uses the default handle.
type Storage struct {
	client       *client.Client
	validate     validate.Func
	log          logging.Func
	signedURLTTL int
}

// Option configures a Storage.
type Option func(*Storage)

// WithValidator replaces the response validator.
func WithValidator(v validate.Func) Option {
	return func(s *Storage) {
		if v != nil {
			s.validate = v
		}
	}
}

// WithLogger replaces the log function.
func WithLogger(l logging.Func) Option {
	return func(s *Storage) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSignedURLExpiry sets the expiry, in seconds, used when a caller
// passes zero to CreateSignedURL.
func WithSignedURLExpiry(seconds int) Option {
	return func(s *Storage) {
		if seconds > 0 {
			s.signedURLTTL = seconds
		}
	}
}

// NewStorage builds the facade over c.
func NewStorage(c *client.Client, opts ...Option) *Storage {
	s := &Storage{
		client:       c,
		validate:     validate.Default,
		log:          logging.DefaultFunc(logging.ComponentStorage),
		signedURLTTL: DefaultSignedURLExpiry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// do sends r on the default handle, rebuilding the handles once if they were
// closed underneath us.
func (s *Storage) do(ctx context.Context, r client.Request) (*client.Response, error) {
	for attempt := 0; ; attempt++ {
		h, err := s.client.SelectClient(false)
		if err != nil {
			return nil, err
		}
		resp, err := h.Do(ctx, r)
		if apperrors.Is(err, apperrors.ErrClientClosed) && attempt == 0 {
			s.client.RefreshClients()
			continue
		}
		return resp, err
	}
}

// objectPath joins the service prefix, an optional verb, the bucket and the
// object key, escaping each key segment.
func objectPath(verb, bucket, key string) string {
	parts := []string{client.StoragePath, "object"}
	if verb != "" {
		parts = append(parts, verb)
	}
	parts = append(parts, url.PathEscape(bucket))
	if key = strings.Trim(key, "/"); key != "" {
		segs := strings.Split(key, "/")
		for i, seg := range segs {
			segs[i] = url.PathEscape(seg)
		}
		parts = append(parts, segs...)
	}
	return strings.Join(parts, "/")
}
