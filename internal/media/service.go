package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/AlexTLDR/memories/internal/apperrors"
	"github.com/AlexTLDR/memories/internal/auth"
	"github.com/AlexTLDR/memories/internal/guests"
	"github.com/AlexTLDR/memories/internal/objectstore"
)

// Upload limits and cache policy.
const (
	DefaultMaxImageBytes = 10 << 20
	DefaultMaxVideoBytes = 200 << 20
	CacheControl         = "public, max-age=31536000"
)

// Counters receives upload counts for guests.
type Counters interface {
	AddToCounter(ctx context.Context, id string, kind guests.Counter, n int)
}

// Config tunes the service.
type Config struct {
	MaxImageBytes int64
	MaxVideoBytes int64
	// SignedURLTTL is the lifetime of gallery links. Zero serves public
	// URLs only.
	SignedURLTTL time.Duration
	// Concurrency bounds parallel store calls in uploads and bulk deletes.
	Concurrency int
}

func (c Config) withDefaults() Config {
	if c.MaxImageBytes <= 0 {
		c.MaxImageBytes = DefaultMaxImageBytes
	}
	if c.MaxVideoBytes <= 0 {
		c.MaxVideoBytes = DefaultMaxVideoBytes
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return c
}

// Item is a gallery entry.
type Item struct {
	Name           string      `json:"name"`
	URL            string      `json:"publicUrl"`
	Size           int64       `json:"size"`
	ContentType    string      `json:"contentType"`
	TimeCreated    time.Time   `json:"timeCreated"`
	UploadedBy     string      `json:"uploadedBy"`
	UploadedByID   string      `json:"uploadedById,omitempty"`
	UploadedByType string      `json:"uploadedByType"`
	IsImage        bool        `json:"isImage"`
	IsVideo        bool        `json:"isVideo"`
	LabelDerived   bool        `json:"labelDerived,omitempty"`
	Attribution    Attribution `json:"attribution,omitempty"`
	LowConfidence  bool        `json:"lowConfidence,omitempty"`
}

// File is one file of an upload request.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploaded describes a stored upload.
type Uploaded struct {
	FileName       string    `json:"fileName"`
	OriginalName   string    `json:"originalName"`
	URL            string    `json:"url"`
	Size           int64     `json:"size"`
	Type           string    `json:"type"`
	UploadedBy     string    `json:"uploadedBy"`
	UploadedByID   string    `json:"uploadedById"`
	UploadedByType string    `json:"uploadedByType"`
	UploadedAt     time.Time `json:"uploadedAt"`
}

// Failure is a file a bulk delete could not remove.
type Failure struct {
	FileName string `json:"fileName"`
	Error    string `json:"error"`
}

// BulkResult partitions the requested names of a bulk delete.
type BulkResult struct {
	Deleted []string  `json:"deleted"`
	Failed  []Failure `json:"failed"`
}

// Service runs gallery operations against the object store.
type Service struct {
	store    objectstore.Store
	counters Counters
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
	suffix   func() string
}

// NewService wires the media service. counters may be nil.
func NewService(store objectstore.Store, counters Counters, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		counters: counters,
		cfg:      cfg.withDefaults(),
		log:      log.With().Str("component", "media").Logger(),
		now:      time.Now,
		suffix:   randomSuffix,
	}
}

// SetClock overrides the clock used for blob names and upload metadata.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ListMedia returns every photo and video in the store.
func (s *Service) ListMedia(ctx context.Context) ([]objectstore.Object, error) {
	all, err := s.store.List(ctx, "")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageUnavailable, "failed to list media", err)
	}
	out := all[:0:0]
	for _, obj := range all {
		if IsMedia(obj.ContentType) {
			out = append(out, obj)
		}
	}
	return out, nil
}

// Gallery lists media newest first. A non-empty guestID keeps only the
// blobs attributed to that guest; hints extend the name-based rules.
func (s *Service) Gallery(ctx context.Context, guestID string, hints ...string) ([]Item, error) {
	objects, err := s.ListMedia(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(objects))
	for _, obj := range objects {
		var attribution Attribution
		if guestID != "" {
			a, ok := MatchGuest(obj, guestID, hints...)
			if !ok {
				continue
			}
			attribution = a
		}
		items = append(items, s.item(ctx, obj, attribution))
	}
	SortNewestFirst(items)
	return items, nil
}

func (s *Service) item(ctx context.Context, obj objectstore.Object, attribution Attribution) Item {
	label, derived := UploaderLabel(obj)
	uploaderType := obj.Metadata[MetaUploadedByType]
	if uploaderType == "" {
		uploaderType = string(auth.KindGuest)
	}
	return Item{
		Name:           obj.Name,
		URL:            s.resolveURL(ctx, obj.Name),
		Size:           obj.Size,
		ContentType:    obj.ContentType,
		TimeCreated:    obj.Created,
		UploadedBy:     label,
		UploadedByID:   obj.Metadata[MetaUploadedByID],
		UploadedByType: uploaderType,
		IsImage:        IsImage(obj),
		IsVideo:        IsVideo(obj),
		LabelDerived:   derived,
		Attribution:    attribution,
		LowConfidence:  attribution.LowConfidence(),
	}
}

// resolveURL prefers a signed link and falls back to the public one.
func (s *Service) resolveURL(ctx context.Context, name string) string {
	if s.cfg.SignedURLTTL > 0 {
		signed, err := s.store.SignedURL(ctx, name, s.cfg.SignedURLTTL)
		if err == nil {
			return signed
		}
		s.log.Warn().Err(err).Str("file", name).Msg("signed url unavailable, using public url")
	}
	return s.store.PublicURL(name)
}

// Validate checks every file of an upload before anything is written.
func (s *Service) Validate(files []File) error {
	if len(files) == 0 {
		return apperrors.Validation("files", "no files uploaded")
	}
	for _, f := range files {
		size := int64(len(f.Data))
		switch {
		case strings.HasPrefix(f.ContentType, "image/"):
			if size > s.cfg.MaxImageBytes {
				return apperrors.WithMetadata(apperrors.CodeValidation,
					"image is too large",
					map[string]string{"Field": "files", "File": f.Name, "Limit": fmt.Sprint(s.cfg.MaxImageBytes)})
			}
		case strings.HasPrefix(f.ContentType, "video/"):
			if size > s.cfg.MaxVideoBytes {
				return apperrors.WithMetadata(apperrors.CodeValidation,
					"video is too large",
					map[string]string{"Field": "files", "File": f.Name, "Limit": fmt.Sprint(s.cfg.MaxVideoBytes)})
			}
		default:
			return apperrors.WithMetadata(apperrors.CodeValidation,
				"only images and videos can be uploaded",
				map[string]string{"Field": "files", "File": f.Name})
		}
	}
	return nil
}

// Upload stores the files with uploader metadata and, for guests, bumps
// the upload counter by the number of stored files.
func (s *Service) Upload(ctx context.Context, who auth.Identity, files []File) ([]Uploaded, error) {
	if err := s.Validate(files); err != nil {
		return nil, err
	}

	results := make([]Uploaded, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, f := range files {
		g.Go(func() error {
			now := s.now().UTC()
			name := ObjectName(now, s.suffix(), f.Name)
			meta := map[string]string{
				MetaUploadedBy:     who.DisplayName(),
				MetaUploadedByID:   who.SubjectID(),
				MetaUploadedByType: who.KindLabel(),
				MetaOriginalName:   f.Name,
				MetaUploadedAt:     now.Format(time.RFC3339Nano),
			}
			_, err := s.store.Upload(gctx, name, f.Data, objectstore.UploadOptions{
				ContentType:  f.ContentType,
				CacheControl: CacheControl,
				Metadata:     meta,
			})
			if err != nil {
				return fmt.Errorf("failed to upload %s: %w", f.Name, err)
			}
			results[i] = Uploaded{
				FileName:       name,
				OriginalName:   f.Name,
				URL:            s.store.PublicURL(name),
				Size:           int64(len(f.Data)),
				Type:           f.ContentType,
				UploadedBy:     meta[MetaUploadedBy],
				UploadedByID:   meta[MetaUploadedByID],
				UploadedByType: meta[MetaUploadedByType],
				UploadedAt:     now,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageUnavailable, "failed to upload files", err)
	}

	s.log.Info().Str("uploader", who.DisplayName()).Int("files", len(results)).Msg("files uploaded")
	if who.IsGuest() && s.counters != nil {
		s.counters.AddToCounter(ctx, who.GuestID, guests.CounterUpload, len(results))
	}
	return results, nil
}

// Delete removes one blob.
func (s *Service) Delete(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.Validation("fileName", "file name is required")
	}
	if err := s.store.Delete(ctx, name); err != nil {
		return storeError(name, err)
	}
	s.log.Info().Str("file", name).Msg("file deleted")
	return nil
}

// BulkDelete attempts every name independently. The result lists each
// requested name exactly once, in request order.
func (s *Service) BulkDelete(ctx context.Context, names []string) (BulkResult, error) {
	if len(names) == 0 {
		return BulkResult{}, apperrors.Validation("fileNames", "file names array is required")
	}

	errs := make([]error, len(names))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, name := range names {
		g.Go(func() error {
			errs[i] = s.Delete(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	result := BulkResult{Deleted: []string{}, Failed: []Failure{}}
	for i, name := range names {
		if errs[i] != nil {
			result.Failed = append(result.Failed, Failure{FileName: name, Error: errs[i].Error()})
			continue
		}
		result.Deleted = append(result.Deleted, name)
	}
	s.log.Info().Int("deleted", len(result.Deleted)).Int("failed", len(result.Failed)).Msg("bulk delete finished")
	return result, nil
}

// DeleteForGuest removes every blob whose uploadedById is guestID and
// returns how many were removed. It keeps going past individual failures
// and reports them together.
func (s *Service) DeleteForGuest(ctx context.Context, guestID string) (int, error) {
	if guestID == "" {
		return 0, nil
	}
	all, err := s.store.List(ctx, "")
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeStorageUnavailable, "failed to list media", err)
	}

	var (
		deleted int
		errs    error
	)
	for _, obj := range all {
		if obj.Metadata[MetaUploadedByID] != guestID {
			continue
		}
		if err := s.store.Delete(ctx, obj.Name); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
			errs = multierr.Append(errs, fmt.Errorf("failed to delete %s: %w", obj.Name, err))
			continue
		}
		deleted++
	}
	if errs != nil {
		s.log.Warn().Err(errs).Str("guest_id", guestID).Int("deleted", deleted).Msg("guest media cascade incomplete")
		return deleted, apperrors.Wrap(apperrors.CodePartialFailure, "failed to delete some guest files", errs)
	}
	s.log.Info().Str("guest_id", guestID).Int("deleted", deleted).Msg("guest media deleted")
	return deleted, nil
}

// Open returns a blob's bytes and content type.
func (s *Service) Open(ctx context.Context, name string) ([]byte, string, error) {
	if strings.TrimSpace(name) == "" {
		return nil, "", apperrors.Validation("file", "file name is required")
	}
	data, _, err := s.store.Download(ctx, name)
	if err != nil {
		return nil, "", storeError(name, err)
	}

	contentType := "application/octet-stream"
	if matches, err := s.store.List(ctx, name); err == nil {
		for _, obj := range matches {
			if obj.Name == name && obj.ContentType != "" {
				contentType = obj.ContentType
				break
			}
		}
	}
	return data, contentType, nil
}

// Counts tallies media per uploader ID. See GuestMediaCounts.
func (s *Service) Counts(ctx context.Context) (map[string]int, error) {
	objects, err := s.ListMedia(ctx)
	if err != nil {
		return nil, err
	}
	return GuestMediaCounts(objects), nil
}

func storeError(name string, err error) error {
	if errors.Is(err, objectstore.ErrNotFound) {
		return apperrors.WithMetadata(apperrors.CodeNotFound, "file not found", map[string]string{"File": name})
	}
	return apperrors.Wrap(apperrors.CodeStorageUnavailable, "storage request failed", err)
}
