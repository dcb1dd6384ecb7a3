package objectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const sidecarDir = ".meta"

// sidecar holds the attributes the filesystem cannot carry itself.
type sidecar struct {
	ContentType  string            `json:"contentType"`
	CacheControl string            `json:"cacheControl,omitempty"`
	Created      time.Time         `json:"created"`
	Generation   int64             `json:"generation"`
	Metadata     map[string]string `json:"metadata"`
}

// Disk stores blobs under a local directory with a JSON sidecar per blob.
// It is intended for single-process development deployments.
type Disk struct {
	mu      sync.Mutex
	root    string
	baseURL string
	now     func() time.Time
}

// NewDisk creates the root directory if needed.
func NewDisk(root, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Join(root, sidecarDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Disk{root: root, baseURL: baseURL, now: time.Now}, nil
}

func (d *Disk) blobPath(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	if clean == sidecarDir || strings.HasPrefix(clean, sidecarDir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return filepath.Join(d.root, clean), nil
}

func (d *Disk) sidecarPath(name string) string {
	return filepath.Join(d.root, sidecarDir, filepath.FromSlash(name)+".json")
}

func (d *Disk) readSidecar(name string) (*sidecar, error) {
	data, err := os.ReadFile(d.sidecarPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sidecar: %w", err)
	}
	var sc sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to decode sidecar: %w", err)
	}
	return &sc, nil
}

func (d *Disk) List(ctx context.Context, prefix string) ([]Object, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []Object
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			if entry.Name() == sidecarDir && filepath.Dir(path) == filepath.Clean(d.root) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		obj := Object{Name: name, Size: info.Size(), Created: info.ModTime(), Metadata: map[string]string{}}
		sc, err := d.readSidecar(name)
		if err != nil {
			return err
		}
		if sc != nil {
			obj.ContentType = sc.ContentType
			obj.Created = sc.Created
			obj.Generation = sc.Generation
			obj.Metadata = copyMetadata(sc.Metadata)
		}
		out = append(out, obj)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *Disk) Upload(ctx context.Context, name string, data []byte, opts UploadOptions) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	path, err := d.blobPath(name)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	existing, err := d.readSidecar(name)
	if err != nil {
		return 0, err
	}
	var current int64
	if existing != nil {
		current = existing.Generation
	}
	if opts.IfGeneration != nil && current != *opts.IfGeneration {
		return 0, fmt.Errorf("upload %s: %w", name, ErrPreconditionFailed)
	}

	if err := writeFileAtomic(path, data); err != nil {
		return 0, fmt.Errorf("failed to write object: %w", err)
	}
	sc := sidecar{
		ContentType:  opts.ContentType,
		CacheControl: opts.CacheControl,
		Created:      d.now().UTC(),
		Generation:   current + 1,
		Metadata:     copyMetadata(opts.Metadata),
	}
	encoded, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to encode sidecar: %w", err)
	}
	if err := writeFileAtomic(d.sidecarPath(name), encoded); err != nil {
		return 0, fmt.Errorf("failed to write sidecar: %w", err)
	}
	return sc.Generation, nil
}

func (d *Disk) Download(ctx context.Context, name string) ([]byte, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	path, err := d.blobPath(name)
	if err != nil {
		return nil, 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, fmt.Errorf("download %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read object: %w", err)
	}
	sc, err := d.readSidecar(name)
	if err != nil {
		return nil, 0, err
	}
	var generation int64
	if sc != nil {
		generation = sc.Generation
	}
	return data, generation, nil
}

func (d *Disk) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := d.blobPath(name)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", name, ErrNotFound)
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	if err := os.Remove(d.sidecarPath(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete sidecar: %w", err)
	}
	return nil
}

// SignedURL returns the local media URL; the HTTP layer enforces auth on it.
func (d *Disk) SignedURL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	path, err := d.blobPath(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("sign %s: %w", name, ErrNotFound)
	}
	return fmt.Sprintf("%s?expires=%d", d.PublicURL(name), d.now().Add(expiry).Unix()), nil
}

func (d *Disk) PublicURL(name string) string {
	return localURL(d.baseURL, name)
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
