package media

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/klauspost/compress/zip"

	"github.com/AlexTLDR/memories/internal/objectstore"
)

// WriteArchive streams the objects into a zip written to w. Blobs that
// fail to download are logged and left out. It returns the number of
// entries written.
func (s *Service) WriteArchive(ctx context.Context, w io.Writer, objects []objectstore.Object) (int, error) {
	zw := zip.NewWriter(w)
	added := 0
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return added, err
		}
		data, _, err := s.store.Download(ctx, obj.Name)
		if err != nil {
			s.log.Warn().Err(err).Str("file", obj.Name).Msg("skipping file in archive")
			continue
		}
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     path.Base(obj.Name),
			Method:   zip.Deflate,
			Modified: obj.Created,
		})
		if err != nil {
			return added, fmt.Errorf("failed to create archive entry: %w", err)
		}
		if _, err := entry.Write(data); err != nil {
			return added, fmt.Errorf("failed to write archive entry: %w", err)
		}
		added++
	}
	if err := zw.Close(); err != nil {
		return added, fmt.Errorf("failed to finish archive: %w", err)
	}
	return added, nil
}
