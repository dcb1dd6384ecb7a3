package objectstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type memObject struct {
	data  []byte
	attrs Object
}

// Memory is an in-process Store used in development and tests. The hooks
// let tests inject failures for individual blob names.
type Memory struct {
	mu         sync.Mutex
	objects    map[string]*memObject
	generation int64
	baseURL    string
	now        func() time.Time

	UploadHook   func(name string) error
	DownloadHook func(name string) error
	DeleteHook   func(name string) error
}

// NewMemory returns an empty in-memory store.
func NewMemory(baseURL string) *Memory {
	return &Memory{
		objects: make(map[string]*memObject),
		baseURL: baseURL,
		now:     time.Now,
	}
}

// SetClock overrides the creation timestamp source.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Put stores a blob unconditionally with an explicit creation time. It is
// meant for seeding fixtures.
func (m *Memory) Put(name string, data []byte, contentType string, created time.Time, metadata map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.objects[name] = &memObject{
		data: append([]byte(nil), data...),
		attrs: Object{
			Name:        name,
			Size:        int64(len(data)),
			ContentType: contentType,
			Created:     created,
			Generation:  m.generation,
			Metadata:    copyMetadata(metadata),
		},
	}
}

// Has reports whether the blob exists.
func (m *Memory) Has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[name]
	return ok
}

func (m *Memory) List(ctx context.Context, prefix string) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Object, 0, len(m.objects))
	for name, obj := range m.objects {
		if strings.HasPrefix(name, prefix) {
			attrs := obj.attrs
			attrs.Metadata = copyMetadata(attrs.Metadata)
			out = append(out, attrs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) Upload(ctx context.Context, name string, data []byte, opts UploadOptions) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UploadHook != nil {
		if err := m.UploadHook(name); err != nil {
			return 0, err
		}
	}
	if opts.IfGeneration != nil {
		var current int64
		if existing, ok := m.objects[name]; ok {
			current = existing.attrs.Generation
		}
		if current != *opts.IfGeneration {
			return 0, fmt.Errorf("upload %s: %w", name, ErrPreconditionFailed)
		}
	}

	m.generation++
	m.objects[name] = &memObject{
		data: append([]byte(nil), data...),
		attrs: Object{
			Name:        name,
			Size:        int64(len(data)),
			ContentType: opts.ContentType,
			Created:     m.now(),
			Generation:  m.generation,
			Metadata:    copyMetadata(opts.Metadata),
		},
	}
	return m.generation, nil
}

func (m *Memory) Download(ctx context.Context, name string) ([]byte, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DownloadHook != nil {
		if err := m.DownloadHook(name); err != nil {
			return nil, 0, err
		}
	}
	obj, ok := m.objects[name]
	if !ok {
		return nil, 0, fmt.Errorf("download %s: %w", name, ErrNotFound)
	}
	return append([]byte(nil), obj.data...), obj.attrs.Generation, nil
}

func (m *Memory) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteHook != nil {
		if err := m.DeleteHook(name); err != nil {
			return err
		}
	}
	if _, ok := m.objects[name]; !ok {
		return fmt.Errorf("delete %s: %w", name, ErrNotFound)
	}
	delete(m.objects, name)
	return nil
}

func (m *Memory) SignedURL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	if !m.Has(name) {
		return "", fmt.Errorf("sign %s: %w", name, ErrNotFound)
	}
	return fmt.Sprintf("%s?expires=%d", m.PublicURL(name), m.now().Add(expiry).Unix()), nil
}

func (m *Memory) PublicURL(name string) string {
	return localURL(m.baseURL, name)
}
