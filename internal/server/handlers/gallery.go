package handlers

import (
	"net/http"
	"strings"
	"time"
)

// HandleGallery lists media newest first, optionally for one guest.
func HandleGallery(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guestID := strings.TrimSpace(r.URL.Query().Get("guestId"))

		items, err := s.GetMedia().Gallery(r.Context(), guestID)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, r, http.StatusOK, map[string]any{
			"success":    true,
			"files":      items,
			"totalCount": len(items),
		})
	}
}

type debugFile struct {
	Name        string            `json:"name"`
	ContentType string            `json:"contentType"`
	Size        int64             `json:"size"`
	TimeCreated time.Time         `json:"timeCreated"`
	Metadata    map[string]string `json:"metadata"`
	HasMetadata bool              `json:"hasMetadata"`
}

// HandleDebugFiles dumps the raw media index with metadata.
func HandleDebugFiles(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		objects, err := s.GetMedia().ListMedia(r.Context())
		if err != nil {
			WriteError(w, r, err)
			return
		}

		files := make([]debugFile, 0, len(objects))
		for _, o := range objects {
			files = append(files, debugFile{
				Name:        o.Name,
				ContentType: o.ContentType,
				Size:        o.Size,
				TimeCreated: o.Created,
				Metadata:    o.Metadata,
				HasMetadata: len(o.Metadata) > 0,
			})
		}
		WriteJSON(w, r, http.StatusOK, map[string]any{
			"totalFiles": len(files),
			"files":      files,
		})
	}
}
