package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/AlexTLDR/memories/internal/apperrors"
)

// HandleDeleteFile removes one blob.
func HandleDeleteFile(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FileName string `json:"fileName"`
		}
		if err := DecodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}

		if err := s.GetMedia().Delete(r.Context(), req.FileName); err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, r, http.StatusOK, map[string]any{
			"success": true,
			"message": "File deleted successfully",
		})
	}
}

// HandleDeleteFiles removes many blobs, reporting each failure.
func HandleDeleteFiles(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FileNames []string `json:"fileNames"`
		}
		if err := DecodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}

		result, err := s.GetMedia().BulkDelete(r.Context(), req.FileNames)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, r, http.StatusOK, map[string]any{
			"success": true,
			"message": fmt.Sprintf("Successfully deleted %d file(s)", len(result.Deleted)),
			"deleted": result.Deleted,
			"failed":  result.Failed,
			"summary": map[string]int{
				"total":      len(req.FileNames),
				"successful": len(result.Deleted),
				"failed":     len(result.Failed),
			},
		})
	}
}

// HandleDeleteGuest removes a guest and every blob they uploaded. Media
// cleanup is best-effort once the profile is gone.
func HandleDeleteGuest(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			GuestID string `json:"guestId"`
		}
		if err := DecodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}
		if strings.TrimSpace(req.GuestID) == "" {
			WriteError(w, r, apperrors.Validation("guestId", "guest id is required"))
			return
		}

		guest, err := s.GetGuests().Delete(r.Context(), req.GuestID)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		deleted, err := s.GetMedia().DeleteForGuest(r.Context(), guest.ID)
		if err != nil {
			hlog.FromRequest(r).Warn().Err(err).Str("guest_id", guest.ID).Msg("guest media not fully deleted")
		}
		WriteJSON(w, r, http.StatusOK, map[string]any{
			"success":      true,
			"message":      fmt.Sprintf("Guest %s and all associated data deleted successfully", guest.Name),
			"deletedFiles": deleted,
		})
	}
}

// HandleDeleteWish removes a wish by ID, or by position when wishId (or
// index) is a number.
func HandleDeleteWish(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			WishID json.RawMessage `json:"wishId"`
			Index  *int            `json:"index"`
		}
		if err := DecodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}

		index := req.Index
		var id string
		if len(req.WishID) > 0 && string(req.WishID) != "null" {
			var n int
			if err := json.Unmarshal(req.WishID, &n); err == nil {
				index = &n
			} else if err := json.Unmarshal(req.WishID, &id); err != nil {
				WriteError(w, r, apperrors.Validation("wishId", "wish id is required"))
				return
			}
		}

		ledger := s.GetWishes()
		var err error
		switch {
		case id != "":
			_, err = ledger.Delete(r.Context(), id)
		case index != nil:
			_, err = ledger.DeleteAt(r.Context(), *index)
		default:
			err = apperrors.Validation("wishId", "wish id is required")
		}
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, r, http.StatusOK, map[string]any{
			"success": true,
			"message": "Wish deleted successfully",
		})
	}
}

// HandleReconcileCounts rewrites guest upload counters from the media
// listing.
func HandleReconcileCounts(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := s.GetMedia().Counts(r.Context())
		if err != nil {
			WriteError(w, r, err)
			return
		}
		changed, err := s.GetGuests().ReconcileCounts(r.Context(), counts)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, r, http.StatusOK, map[string]any{
			"success": true,
			"updated": changed,
		})
	}
}
