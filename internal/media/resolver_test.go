package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AlexTLDR/memories/internal/objectstore"
)

func obj(name, contentType string, meta map[string]string) objectstore.Object {
	return objectstore.Object{Name: name, ContentType: contentType, Metadata: meta}
}

func TestMatchGuest(t *testing.T) {
	tests := []struct {
		name      string
		object    objectstore.Object
		ident     string
		hints     []string
		wantMatch bool
		want      Attribution
	}{
		{
			name:      "exact id",
			object:    obj("1-abc-a.jpg", "image/jpeg", map[string]string{MetaUploadedByID: "g1", MetaUploadedBy: "Amy"}),
			ident:     "g1",
			wantMatch: true,
			want:      AttributionMetadataID,
		},
		{
			name:   "id mismatch and name mismatch",
			object: obj("1-abc-g1.jpg", "image/jpeg", map[string]string{MetaUploadedByID: "g2", MetaUploadedBy: "Bob"}),
			ident:  "g1",
		},
		{
			name:      "uploader name substring",
			object:    obj("1-abc-a.jpg", "image/jpeg", map[string]string{MetaUploadedBy: "Amy Pond"}),
			ident:     "g9",
			hints:     []string{"amy"},
			wantMatch: true,
			want:      AttributionMetadataName,
		},
		{
			name:      "filename fallback without metadata",
			object:    obj("1700000000000-x1y2z3-g1_photo.jpg", "image/jpeg", nil),
			ident:     "g1",
			wantMatch: true,
			want:      AttributionFilename,
		},
		{
			name:      "unknown uploader still falls back to filename",
			object:    obj("1-abc-amy.jpg", "image/jpeg", map[string]string{MetaUploadedBy: "unknown"}),
			ident:     "amy",
			wantMatch: true,
			want:      AttributionFilename,
		},
		{
			name:   "filename ignored when metadata exists",
			object: obj("1-abc-g1.jpg", "image/jpeg", map[string]string{MetaUploadedByID: "g2"}),
			ident:  "g1",
		},
		{
			name:   "non media never matches",
			object: obj("wedding-guests/guests.json", "application/json", map[string]string{MetaUploadedByID: "g1"}),
			ident:  "g1",
		},
		{
			name:   "empty identifier matches nothing",
			object: obj("1-abc-a.jpg", "image/jpeg", nil),
			ident:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchGuest(tt.object, tt.ident, tt.hints...)
			assert.Equal(t, tt.wantMatch, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want == AttributionFilename, got.LowConfidence())
		})
	}
}

func TestFilesForGuestAttributesByID(t *testing.T) {
	files := []objectstore.Object{
		obj("1-a-x.jpg", "image/jpeg", map[string]string{MetaUploadedByID: "g1", MetaUploadedBy: "Amy"}),
		obj("2-b-y.jpg", "image/jpeg", map[string]string{MetaUploadedByID: "g2", MetaUploadedBy: "Bob"}),
	}

	g1 := FilesForGuest(files, "g1")
	g2 := FilesForGuest(files, "g2")

	assert.Len(t, g1, 1)
	assert.Equal(t, "1-a-x.jpg", g1[0].Name)
	assert.Len(t, g2, 1)
	assert.Equal(t, "2-b-y.jpg", g2[0].Name)
}

func TestUploaderLabel(t *testing.T) {
	tests := []struct {
		name        string
		object      objectstore.Object
		want        string
		wantDerived bool
	}{
		{"metadata", obj("1-abc-x.jpg", "image/jpeg", map[string]string{MetaUploadedBy: "Amy"}), "Amy", false},
		{"derived from name", obj("1700000000000-abc123-Amy_Pond.jpg", "image/jpeg", nil), "Amy Pond", true},
		{"unknown is absent", obj("1-abc-Rory.png", "image/png", map[string]string{MetaUploadedBy: "unknown"}), "Rory", true},
		{"too few segments", obj("photo.jpg", "image/jpeg", nil), "Guest", true},
		{"dashes kept", obj("1-abc-the-doctor.mp4", "video/mp4", nil), "the-doctor", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, derived := UploaderLabel(tt.object)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantDerived, derived)
		})
	}
}

func TestGuestMediaCounts(t *testing.T) {
	files := []objectstore.Object{
		obj("1-abc-x.jpg", "image/jpeg", map[string]string{MetaUploadedByID: "5"}),
		obj("2-abc-y.jpg", "image/jpeg", map[string]string{MetaUploadedByID: "5"}),
		obj("3-7-z.jpg", "image/jpeg", nil),
		obj("notes.txt", "text/plain", map[string]string{MetaUploadedByID: "5"}),
		obj("short.jpg", "image/jpeg", nil),
	}

	counts := GuestMediaCounts(files)

	assert.Equal(t, map[string]int{"5": 2, "7": 1}, counts)
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)
	items := []Item{
		{Name: "old", TimeCreated: base},
		{Name: "new", TimeCreated: base.Add(2 * time.Hour)},
		{Name: "mid", TimeCreated: base.Add(time.Hour)},
	}

	SortNewestFirst(items)

	assert.Equal(t, []string{"new", "mid", "old"}, []string{items[0].Name, items[1].Name, items[2].Name})
}

func TestObjectName(t *testing.T) {
	now := time.UnixMilli(1718366400123)

	got := ObjectName(now, "a1b2c3", "my photo (1).JPG")

	assert.Equal(t, "1718366400123-a1b2c3-my_photo__1_.JPG", got)
	assert.Len(t, randomSuffix(), 6)
}

func TestIsVideoByExtension(t *testing.T) {
	assert.True(t, IsVideo(obj("clip.MOV", "application/octet-stream", nil)))
	assert.True(t, IsVideo(obj("clip", "video/mp4", nil)))
	assert.False(t, IsVideo(obj("pic.jpg", "image/jpeg", nil)))
}
