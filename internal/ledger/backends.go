package ledger

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/AlexTLDR/memories/internal/objectstore"
)

type objectBackend struct {
	store objectstore.Store
	path  string
}

// ObjectBackend keeps the document as a blob; the blob generation is the
// version token.
func ObjectBackend(store objectstore.Store, path string) Backend {
	return &objectBackend{store: store, path: path}
}

func (b *objectBackend) Location() string { return b.path }

func (b *objectBackend) Load(ctx context.Context) ([]byte, string, error) {
	data, generation, err := b.store.Download(ctx, b.path)
	if errors.Is(err, objectstore.ErrNotFound) {
		return nil, "", ErrMissing
	}
	if err != nil {
		return nil, "", err
	}
	return data, strconv.FormatInt(generation, 10), nil
}

func (b *objectBackend) Save(ctx context.Context, data []byte, version string) (string, error) {
	var expected int64
	if version != "" {
		parsed, err := strconv.ParseInt(version, 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid version %q: %w", version, err)
		}
		expected = parsed
	}
	generation, err := b.store.Upload(ctx, b.path, data, objectstore.UploadOptions{
		ContentType:  "application/json",
		IfGeneration: objectstore.Generation(expected),
	})
	if errors.Is(err, objectstore.ErrPreconditionFailed) {
		return b.resolvePrecondition(ctx, data)
	}
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(generation, 10), nil
}

// resolvePrecondition handles a failed generation check. When a retried
// upload already landed, the stored bytes are ours and the save succeeded;
// anything else is a real conflict.
func (b *objectBackend) resolvePrecondition(ctx context.Context, data []byte) (string, error) {
	current, generation, err := b.store.Download(ctx, b.path)
	if err != nil || !bytes.Equal(current, data) {
		return "", ErrConflict
	}
	return strconv.FormatInt(generation, 10), nil
}

type fileBackend struct {
	path string
}

// FileBackend keeps the document in a local file; a hash of the contents
// is the version token.
func FileBackend(path string) Backend {
	return &fileBackend{path: path}
}

func (b *fileBackend) Location() string { return b.path }

func (b *fileBackend) Load(ctx context.Context) ([]byte, string, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", ErrMissing
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	return data, contentVersion(data), nil
}

func (b *fileBackend) Save(ctx context.Context, data []byte, version string) (string, error) {
	current, err := os.ReadFile(b.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if version != "" {
			return "", ErrConflict
		}
	case err != nil:
		return "", fmt.Errorf("failed to read file: %w", err)
	default:
		if contentVersion(current) != version {
			return "", ErrConflict
		}
	}

	if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".ledger-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to replace file: %w", err)
	}
	return contentVersion(data), nil
}

func contentVersion(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
