package handlers

import (
	"net/http"

	"github.com/AlexTLDR/memories/internal/rsvp"
)

// HandleRSVPSubmit records or replaces the RSVP for a guest name.
func HandleRSVPSubmit(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub rsvp.Submission
		if err := DecodeJSON(w, r, &sub); err != nil {
			WriteError(w, r, err)
			return
		}

		record, err := s.GetRSVPs().Submit(r.Context(), sub, clientIP(r))
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, r, http.StatusOK, map[string]any{
			"success": true,
			"message": "RSVP submitted successfully",
			"rsvp":    record,
		})
	}
}

type rsvpListResponse struct {
	Success bool          `json:"success"`
	RSVPs   []rsvp.Record `json:"rsvps"`
	rsvp.Summary
}

// HandleRSVPList returns every RSVP with the attendance summary.
func HandleRSVPList(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := s.GetRSVPs().List(r.Context())
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, r, http.StatusOK, rsvpListResponse{
			Success: true,
			RSVPs:   records,
			Summary: rsvp.Summarize(records),
		})
	}
}
