package handlers

import (
	"net/http"
)

// HandleListWishes returns every wish in submission order.
func HandleListWishes(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.GetWishes().List(r.Context())
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, r, http.StatusOK, map[string]any{
			"success": true,
			"wishes":  list,
		})
	}
}

// HandleCreateWish appends a wish signed by the caller.
func HandleCreateWish(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name    string `json:"name"`
			Message string `json:"message"`
		}
		if err := DecodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}

		wish, err := s.GetWishes().Append(r.Context(), identity(r), req.Name, req.Message)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, r, http.StatusOK, map[string]any{
			"success": true,
			"wish":    wish,
			"message": "Wish submitted successfully",
		})
	}
}
