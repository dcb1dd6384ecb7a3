// Package media attributes gallery blobs to guests and runs the gallery
// operations (listing, uploads, deletes, archives) against the object
// store.
package media

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/AlexTLDR/memories/internal/objectstore"
)

// Metadata keys written on every upload.
const (
	MetaUploadedBy     = "uploadedBy"
	MetaUploadedByID   = "uploadedById"
	MetaUploadedByType = "uploadedByType"
	MetaOriginalName   = "originalName"
	MetaUploadedAt     = "uploadedAt"
)

// Attribution records which rule tied a blob to a guest.
type Attribution string

const (
	AttributionMetadataID   Attribution = "metadata-id"
	AttributionMetadataName Attribution = "metadata-name"
	AttributionFilename     Attribution = "filename"
)

// LowConfidence is true for attributions guessed from the blob name.
func (a Attribution) LowConfidence() bool {
	return a == AttributionFilename
}

var videoExt = regexp.MustCompile(`(?i)\.(mp4|avi|mov|wmv|flv|webm|mkv)$`)

// IsMedia reports whether a content type is a photo or a video.
func IsMedia(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "video/")
}

// IsImage reports whether the blob is a photo.
func IsImage(obj objectstore.Object) bool {
	return strings.HasPrefix(obj.ContentType, "image/")
}

// IsVideo reports whether the blob is a video, by type or by extension.
func IsVideo(obj objectstore.Object) bool {
	return strings.HasPrefix(obj.ContentType, "video/") || videoExt.MatchString(obj.Name)
}

// hasUploaderMetadata is false for blobs written before uploads carried
// metadata.
func hasUploaderMetadata(obj objectstore.Object) bool {
	by := obj.Metadata[MetaUploadedBy]
	return obj.Metadata[MetaUploadedByID] != "" || (by != "" && by != "unknown")
}

// MatchGuest decides whether a media blob belongs to the guest identified
// by ident. An exact uploadedById match wins, then a case-insensitive
// substring of uploadedBy, and only for blobs without any uploader
// metadata a case-insensitive substring of the blob name. Extra hints
// (for example the guest's display name) are tried by the substring rules.
func MatchGuest(obj objectstore.Object, ident string, hints ...string) (Attribution, bool) {
	if ident == "" || !IsMedia(obj.ContentType) {
		return "", false
	}
	if obj.Metadata[MetaUploadedByID] == ident {
		return AttributionMetadataID, true
	}

	needles := make([]string, 0, 1+len(hints))
	for _, s := range append([]string{ident}, hints...) {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			needles = append(needles, s)
		}
	}

	if by := strings.ToLower(obj.Metadata[MetaUploadedBy]); by != "" {
		for _, n := range needles {
			if strings.Contains(by, n) {
				return AttributionMetadataName, true
			}
		}
	}
	if hasUploaderMetadata(obj) {
		return "", false
	}
	name := strings.ToLower(obj.Name)
	for _, n := range needles {
		if strings.Contains(name, n) {
			return AttributionFilename, true
		}
	}
	return "", false
}

// FilesForGuest keeps the media blobs attributed to the guest, in input
// order.
func FilesForGuest(files []objectstore.Object, guestID string, hints ...string) []objectstore.Object {
	var out []objectstore.Object
	for _, f := range files {
		if _, ok := MatchGuest(f, guestID, hints...); ok {
			out = append(out, f)
		}
	}
	return out
}

// UploaderLabel returns the name to show for a blob. Blobs without
// uploader metadata get a label derived from the blob name, reported by
// the second return value.
func UploaderLabel(obj objectstore.Object) (string, bool) {
	if by := obj.Metadata[MetaUploadedBy]; by != "" && by != "unknown" {
		return by, false
	}
	parts := strings.Split(obj.Name, "-")
	if len(parts) < 3 {
		return "Guest", true
	}
	label := strings.Join(parts[2:], "-")
	label = strings.TrimSuffix(label, path.Ext(label))
	label = strings.ReplaceAll(label, "_", " ")
	if strings.TrimSpace(label) == "" {
		return "Guest", true
	}
	return label, true
}

// GuestMediaCounts counts media blobs per uploader ID. Blobs without an
// uploadedById are counted against the second dash-separated segment of
// their name, which makes the result approximate for legacy uploads; use
// it to repair counters, not as an authoritative tally.
func GuestMediaCounts(files []objectstore.Object) map[string]int {
	counts := make(map[string]int)
	for _, f := range files {
		if !IsMedia(f.ContentType) {
			continue
		}
		if id := f.Metadata[MetaUploadedByID]; id != "" {
			counts[id]++
			continue
		}
		parts := strings.Split(f.Name, "-")
		if len(parts) >= 3 && parts[1] != "" {
			counts[parts[1]]++
		}
	}
	return counts
}

// SortNewestFirst orders gallery items by creation time, newest first.
func SortNewestFirst(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].TimeCreated.After(items[j].TimeCreated)
	})
}
