// Package objectstore is the blob storage collaborator behind the gallery
// and the JSON ledgers. Blob names are opaque strings; media blobs follow
// the `{timestampMs}-{randomSuffix}-{sanitizedOriginalName}` convention
// owned by the media package.
package objectstore

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
)

var (
	// ErrNotFound is returned when the named blob does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrPreconditionFailed is returned when a conditional upload loses
	// against a concurrent writer.
	ErrPreconditionFailed = errors.New("object generation precondition failed")
)

// Object describes a stored blob.
type Object struct {
	Name        string
	Size        int64
	ContentType string
	Created     time.Time
	Generation  int64
	Metadata    map[string]string
}

// UploadOptions controls how a blob is written.
type UploadOptions struct {
	ContentType  string
	CacheControl string
	Metadata     map[string]string
	// IfGeneration makes the write conditional when non-nil. Zero means
	// the blob must not exist yet.
	IfGeneration *int64
}

// Store is the contract every backend implements.
type Store interface {
	List(ctx context.Context, prefix string) ([]Object, error)
	// Upload writes the blob and returns its new generation.
	Upload(ctx context.Context, name string, data []byte, opts UploadOptions) (int64, error)
	// Download returns the blob contents and the generation that was read.
	Download(ctx context.Context, name string) ([]byte, int64, error)
	Delete(ctx context.Context, name string) error
	SignedURL(ctx context.Context, name string, expiry time.Duration) (string, error)
	PublicURL(name string) string
}

// Generation is a helper for building conditional UploadOptions.
func Generation(g int64) *int64 {
	return &g
}

// IsTransient reports whether a failed call is worth retrying. API errors
// are retried only for timeouts, throttling and server faults; other
// errors (dropped connections, attempt timeouts) are assumed transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPreconditionFailed) || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusRequestTimeout ||
			apiErr.Code == http.StatusTooManyRequests ||
			apiErr.Code >= http.StatusInternalServerError
	}
	return true
}

// mediaPath is where the local backends expose blobs over HTTP.
const mediaPath = "/api/media/"

func localURL(baseURL, name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimSuffix(baseURL, "/") + mediaPath + strings.Join(segments, "/")
}

func copyMetadata(in map[string]string) map[string]string {
	if in == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
