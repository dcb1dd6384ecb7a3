// Package ledger persists a whole collection as a single pretty-printed
// JSON document and serializes read-modify-write cycles against it.
//
// Writes carry the version that was read. A backend that sees a different
// version rejects the write with ErrConflict and the cycle is replayed on
// fresh data, so concurrent writers never silently discard each other.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/AlexTLDR/memories/internal/apperrors"
)

var (
	// ErrMissing is returned by a Backend when the document does not exist.
	ErrMissing = errors.New("ledger document does not exist")
	// ErrConflict is returned by a Backend when the stored version no longer
	// matches the version the caller read.
	ErrConflict = errors.New("ledger version conflict")
	// ErrSkip may be returned by an Update callback to leave the document
	// untouched without reporting an error.
	ErrSkip = errors.New("ledger update skipped")
)

// Backend reads and writes the raw document.
type Backend interface {
	// Load returns the document and an opaque version token.
	Load(ctx context.Context) ([]byte, string, error)
	// Save writes data if the stored version still equals version. An
	// empty version means the document must not exist yet.
	Save(ctx context.Context, data []byte, version string) (string, error)
	// Location names the document for logs and errors.
	Location() string
}

// Document is a typed view over a Backend.
type Document[T any] struct {
	backend Backend
	log     zerolog.Logger
	retries uint64

	mu sync.Mutex
}

// New returns a document that replays conflicting updates up to five times.
func New[T any](backend Backend, log zerolog.Logger) *Document[T] {
	return &Document[T]{
		backend: backend,
		log:     log.With().Str("document", backend.Location()).Logger(),
		retries: 5,
	}
}

// Read returns the whole collection. A document that does not exist yet
// reads as an empty collection; any other backend failure is reported as
// storage unavailable.
func (d *Document[T]) Read(ctx context.Context) ([]T, error) {
	items, _, err := d.load(ctx)
	return items, err
}

// Update runs fn on the current collection and persists what it returns.
// fn may run more than once when a concurrent write is detected, so it must
// derive its result from the items it is given.
func (d *Document[T]) Update(ctx context.Context, fn func(items []T) ([]T, error)) ([]T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var result []T
	backoff := retry.WithMaxRetries(d.retries, retry.WithJitter(5*time.Millisecond, retry.NewExponential(10*time.Millisecond)))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		items, version, err := d.load(ctx)
		if err != nil {
			return err
		}
		updated, err := fn(items)
		if errors.Is(err, ErrSkip) {
			result = items
			return nil
		}
		if err != nil {
			return err
		}
		if updated == nil {
			updated = []T{}
		}
		data, err := json.MarshalIndent(updated, "", "  ")
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "encode "+d.backend.Location(), err)
		}
		if _, err := d.backend.Save(ctx, data, version); err != nil {
			if errors.Is(err, ErrConflict) {
				d.log.Debug().Msg("concurrent write detected, replaying update")
				return retry.RetryableError(err)
			}
			return apperrors.Wrap(apperrors.CodeStorageUnavailable, "write "+d.backend.Location(), err)
		}
		result = updated
		return nil
	})
	if errors.Is(err, ErrConflict) {
		return nil, apperrors.Wrap(apperrors.CodeConflict, "too many concurrent writes to "+d.backend.Location(), err)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (d *Document[T]) load(ctx context.Context) ([]T, string, error) {
	data, version, err := d.backend.Load(ctx)
	if errors.Is(err, ErrMissing) {
		return []T{}, "", nil
	}
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeStorageUnavailable, "read "+d.backend.Location(), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, version, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeInternal, "decode "+d.backend.Location(), err)
	}
	if items == nil {
		items = []T{}
	}
	return items, version, nil
}
