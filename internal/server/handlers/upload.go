package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/AlexTLDR/memories/internal/apperrors"
	"github.com/AlexTLDR/memories/internal/media"
)

// maxUploadFiles bounds the number of files in one request.
const maxUploadFiles = 20

// HandleUpload stores the multipart "files" parts.
func HandleUpload(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := s.GetConfig()
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxVideoBytes*maxUploadFiles)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			WriteError(w, r, apperrors.Wrap(apperrors.CodeValidation, "invalid request body", err))
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		headers := r.MultipartForm.File["files"]
		if len(headers) > maxUploadFiles {
			WriteError(w, r, apperrors.Validation("files", "too many files"))
			return
		}

		files := make([]media.File, 0, len(headers))
		for _, fh := range headers {
			data, err := readPart(fh)
			if err != nil {
				WriteError(w, r, apperrors.Wrap(apperrors.CodeValidation, "invalid request body", err))
				return
			}
			files = append(files, media.File{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        data,
			})
		}

		who := identity(r)
		uploaded, err := s.GetMedia().Upload(r.Context(), who, files)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, r, http.StatusOK, map[string]any{
			"success":    true,
			"files":      uploaded,
			"uploadedBy": who.DisplayName(),
			"message":    fmt.Sprintf("%d file(s) uploaded successfully", len(uploaded)),
		})
	}
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
