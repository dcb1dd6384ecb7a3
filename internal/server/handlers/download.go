package handlers

import (
	"fmt"
	"mime"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/AlexTLDR/memories/internal/apperrors"
	"github.com/AlexTLDR/memories/internal/media"
)

// HandleDownloadFile sends one blob as an attachment.
func HandleDownloadFile(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("file")

		data, contentType, err := openMedia(s, r, name)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		filename := path.Base(name)
		if filename == "." || filename == "/" {
			filename = "download"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		_, _ = w.Write(data)
	}
}

// HandleDownloadAll streams every photo and video as a zip archive.
func HandleDownloadAll(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		objects, err := s.GetMedia().ListMedia(r.Context())
		if err != nil {
			WriteError(w, r, err)
			return
		}
		if len(objects) == 0 {
			WriteError(w, r, apperrors.New(apperrors.CodeNotFound, "no files found"))
			return
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="wedding-gallery-%s.zip"`, time.Now().Format("2006-01-02")))

		added, err := s.GetMedia().WriteArchive(r.Context(), w, objects)
		log := hlog.FromRequest(r)
		if err != nil {
			// Headers are already sent.
			log.Error().Err(err).Int("added", added).Msg("archive interrupted")
			return
		}
		log.Info().Int("files", added).Int("requested", len(objects)).Msg("archive sent")
	}
}

// HandleMedia serves media blobs at the URLs the local backends hand out.
func HandleMedia(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")

		data, contentType, err := openMedia(s, r, name)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", media.CacheControl)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		_, _ = w.Write(data)
	}
}

// openMedia reads a photo or video. Other blobs, such as the ledger
// documents, read as missing.
func openMedia(s Server, r *http.Request, name string) ([]byte, string, error) {
	data, contentType, err := s.GetMedia().Open(r.Context(), name)
	if err != nil {
		return nil, "", err
	}
	if !media.IsMedia(contentType) {
		return nil, "", apperrors.New(apperrors.CodeNotFound, "file not found")
	}
	return data, contentType, nil
}
