package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/AlexTLDR/memories/internal/apperrors"
	"github.com/AlexTLDR/memories/internal/guests"
)

// HandleGuests lists the public guest profiles.
func HandleGuests(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.GetGuests().List(r.Context())
		if err != nil {
			WriteError(w, r, err)
			return
		}

		public := make([]guests.PublicGuest, 0, len(list))
		for _, g := range list {
			public = append(public, g.Public())
		}
		WriteJSON(w, r, http.StatusOK, map[string]any{
			"success": true,
			"guests":  public,
		})
	}
}

// HandleGuestFiles lists the media attributed to one guest. The guest's
// registered name, when known, widens the uploader-name match.
func HandleGuestFiles(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guestID := strings.TrimSpace(r.PathValue("guestId"))
		if guestID == "" {
			WriteError(w, r, apperrors.Validation("guestId", "guest id is required"))
			return
		}

		var hints []string
		guest, err := s.GetGuests().Get(r.Context(), guestID)
		switch {
		case err == nil:
			hints = append(hints, guest.Name)
		case !errors.Is(err, apperrors.ErrNotFound):
			WriteError(w, r, err)
			return
		}

		items, err := s.GetMedia().Gallery(r.Context(), guestID, hints...)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, r, http.StatusOK, map[string]any{
			"success": true,
			"files":   items,
			"count":   len(items),
		})
	}
}
