package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/AlexTLDR/memories/internal/apperrors"
	"github.com/AlexTLDR/memories/internal/auth"
	"github.com/AlexTLDR/memories/internal/config"
	"github.com/AlexTLDR/memories/internal/guests"
	"github.com/AlexTLDR/memories/internal/i18n"
	"github.com/AlexTLDR/memories/internal/media"
	"github.com/AlexTLDR/memories/internal/rsvp"
	"github.com/AlexTLDR/memories/internal/wishes"
)

// Server interface defines the methods needed by handlers
type Server interface {
	GetConfig() *config.Config
	GetGuests() *guests.Registry
	GetMedia() *media.Service
	GetWishes() *wishes.Ledger
	GetRSVPs() *rsvp.Ledger
}

// maxJSONBody caps request bodies of the JSON endpoints. Guest login
// carries a selfie as a data URL.
const maxJSONBody = 8 << 20

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("failed to write response")
	}
}

// WriteError maps err to its status and a localized message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()

	event := hlog.FromRequest(r).Debug()
	if status >= http.StatusInternalServerError {
		event = hlog.FromRequest(r).Error()
	}
	event.Err(err).Str("code", string(code)).Msg("request failed")

	body := map[string]any{
		"success": false,
		"error":   i18n.ErrorMessage(i18n.GetLanguageFromRequest(r), err),
		"code":    code,
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Metadata["Field"] != "" {
		body["field"] = appErr.Metadata["Field"]
	}
	WriteJSON(w, r, status, body)
}

// DecodeJSON reads a JSON body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.Wrap(apperrors.CodeValidation, "invalid request body", err)
	}
	return nil
}

// identity returns the caller set by the auth middleware.
func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

// clientIP is the first address of X-Forwarded-For, then X-Real-IP.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return "unknown"
}
