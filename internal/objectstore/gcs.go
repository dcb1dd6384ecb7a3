package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSConfig configures the Google Cloud Storage backend.
type GCSConfig struct {
	Bucket    string
	ProjectID string
	// CredentialsJSON is a service-account key. When empty the client
	// falls back to application default credentials.
	CredentialsJSON []byte
}

// GCS is the production Store backed by a single bucket.
type GCS struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
}

// NewGCS opens a client for the configured bucket.
func NewGCS(ctx context.Context, cfg GCSConfig) (*GCS, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("GOOGLE_CLOUD_BUCKET_NAME environment variable is not set")
	}
	var opts []option.ClientOption
	if len(cfg.CredentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCS{client: client, bucket: client.Bucket(cfg.Bucket), name: cfg.Bucket}, nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}

func (g *GCS) List(ctx context.Context, prefix string) ([]Object, error) {
	it := g.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	var out []Object
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", mapGCSError(err))
		}
		out = append(out, Object{
			Name:        attrs.Name,
			Size:        attrs.Size,
			ContentType: attrs.ContentType,
			Created:     attrs.Created,
			Generation:  attrs.Generation,
			Metadata:    copyMetadata(attrs.Metadata),
		})
	}
	return out, nil
}

func (g *GCS) Upload(ctx context.Context, name string, data []byte, opts UploadOptions) (int64, error) {
	obj := g.bucket.Object(name)
	if opts.IfGeneration != nil {
		if *opts.IfGeneration == 0 {
			obj = obj.If(storage.Conditions{DoesNotExist: true})
		} else {
			obj = obj.If(storage.Conditions{GenerationMatch: *opts.IfGeneration})
		}
	}

	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := obj.NewWriter(writeCtx)
	w.ContentType = opts.ContentType
	w.CacheControl = opts.CacheControl
	w.Metadata = opts.Metadata
	// Single-request upload; the payloads are bounded by the upload limits.
	w.ChunkSize = 0

	if _, err := w.Write(data); err != nil {
		cancel()
		_ = w.Close()
		return 0, fmt.Errorf("failed to write object %s: %w", name, mapGCSError(err))
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("failed to upload object %s: %w", name, mapGCSError(err))
	}
	return w.Attrs().Generation, nil
}

func (g *GCS) Download(ctx context.Context, name string) ([]byte, int64, error) {
	r, err := g.bucket.Object(name).NewReader(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open object %s: %w", name, mapGCSError(err))
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read object %s: %w", name, mapGCSError(err))
	}
	return data, r.Attrs.Generation, nil
}

func (g *GCS) Delete(ctx context.Context, name string) error {
	if err := g.bucket.Object(name).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", name, mapGCSError(err))
	}
	return nil
}

func (g *GCS) SignedURL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	url, err := g.bucket.SignedURL(name, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(expiry),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign url for %s: %w", name, err)
	}
	return url, nil
}

func (g *GCS) PublicURL(name string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.name, name)
}

// mapGCSError folds the client's not-found and precondition errors into
// the package sentinels while keeping the original error in the chain.
func mapGCSError(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return errors.Join(ErrNotFound, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return errors.Join(ErrNotFound, err)
		case http.StatusPreconditionFailed:
			return errors.Join(ErrPreconditionFailed, err)
		}
	}
	return err
}
