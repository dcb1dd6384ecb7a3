package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/AlexTLDR/memories/internal/apperrors"
	"github.com/AlexTLDR/memories/internal/auth"
	"github.com/AlexTLDR/memories/internal/i18n"
	"github.com/AlexTLDR/memories/internal/server/handlers"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Type     string `json:"type"`
}

func viewOf(id auth.Identity) userView {
	return userView{ID: id.SubjectID(), Username: id.DisplayName(), Type: id.KindLabel()}
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := handlers.DecodeJSON(w, r, &req); err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	account, err := s.accounts.Authenticate(req.Username, req.Password)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	token, err := s.issuer.IssueAdmin(account.ID, account.Username)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	if err := s.saveSessionToken(w, r, token, adminSessionMaxAge); err != nil {
		handlers.WriteError(w, r, apperrors.Wrap(apperrors.CodeInternal, "failed to save session", err))
		return
	}

	hlog.FromRequest(r).Info().Str("username", account.Username).Msg("admin logged in")
	handlers.WriteJSON(w, r, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    map[string]string{"id": account.ID, "username": account.Username},
		"token":   token,
	})
}

func (s *Server) handleGuestLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GuestName   string `json:"guestName"`
		Passcode    string `json:"passcode"`
		SelfiePhoto string `json:"selfiePhoto"`
	}
	if err := handlers.DecodeJSON(w, r, &req); err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	if strings.TrimSpace(req.GuestName) == "" {
		handlers.WriteError(w, r, apperrors.Validation("guestName", "guest name is required"))
		return
	}
	if req.SelfiePhoto == "" {
		handlers.WriteError(w, r, apperrors.Validation("selfiePhoto", "selfie is required"))
		return
	}
	if strings.TrimSpace(req.Passcode) == "" {
		handlers.WriteError(w, r, apperrors.Validation("passcode", "invalid wedding passcode"))
		return
	}
	if err := auth.CheckPasscode(s.config.WeddingPasscode, req.Passcode); err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	guest, _, err := s.guests.UpsertOnLogin(r.Context(), req.GuestName, req.SelfiePhoto)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	token, err := s.issuer.IssueGuest(guest.ID, guest.Name)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	if err := s.saveSessionToken(w, r, token, guestSessionMaxAge); err != nil {
		handlers.WriteError(w, r, apperrors.Wrap(apperrors.CodeInternal, "failed to save session", err))
		return
	}

	handlers.WriteJSON(w, r, http.StatusOK, map[string]any{
		"success": true,
		"message": "Welcome to the wedding!",
		"guest":   map[string]string{"id": guest.ID, "name": guest.Name, "type": string(auth.KindGuest)},
		"token":   token,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	id, err := s.identify(r)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, map[string]any{
		"message": "Token valid",
		"user":    viewOf(id),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessionStore.Get(r, sessionName)
	delete(session.Values, tokenKey)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("failed to clear session")
	}

	handlers.WriteJSON(w, r, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}

// handleUserStatus reports the caller without ever failing on a bad token.
func (s *Server) handleUserStatus(w http.ResponseWriter, r *http.Request) {
	id, err := s.identify(r)
	if err != nil {
		handlers.WriteJSON(w, r, http.StatusOK, map[string]any{
			"message": i18n.ErrorMessage(i18n.GetLanguageFromRequest(r), err),
			"user":    nil,
		})
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, map[string]any{
		"message":        "Current user status",
		"user":           viewOf(id),
		"canAccessAdmin": id.IsAdmin(),
	})
}

func (s *Server) getGoogleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.config.GoogleClientID,
		ClientSecret: s.config.GoogleClientSecret,
		RedirectURL:  s.config.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.config.GoogleOAuthEnabled() {
		handlers.WriteError(w, r, apperrors.New(apperrors.CodeNotFound, "google sign-in is not configured"))
		return
	}

	state := uuid.NewString()
	session, _ := s.sessionStore.Get(r, sessionName)
	session.Values[stateKey] = state
	if err := session.Save(r, w); err != nil {
		handlers.WriteError(w, r, apperrors.Wrap(apperrors.CodeInternal, "failed to save session", err))
		return
	}

	url := s.getGoogleOAuthConfig().AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if !s.config.GoogleOAuthEnabled() {
		handlers.WriteError(w, r, apperrors.New(apperrors.CodeNotFound, "google sign-in is not configured"))
		return
	}

	session, _ := s.sessionStore.Get(r, sessionName)
	want, _ := session.Values[stateKey].(string)
	if want == "" || r.URL.Query().Get("state") != want {
		handlers.WriteError(w, r, apperrors.New(apperrors.CodeUnauthorized, "invalid token"))
		return
	}
	delete(session.Values, stateKey)

	code := r.URL.Query().Get("code")
	if code == "" {
		handlers.WriteError(w, r, apperrors.Validation("code", "code not found"))
		return
	}

	email, name, err := s.fetchGoogleUser(r, code)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	// Check if email is in whitelist
	if !s.config.IsAdminEmail(email) {
		hlog.FromRequest(r).Warn().Str("email", email).Msg("google sign-in from non-admin email")
		handlers.WriteError(w, r, apperrors.New(apperrors.CodeForbidden, "admin access required"))
		return
	}

	if name == "" {
		name = email
	}
	token, err := s.issuer.IssueAdmin("google:"+email, name)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	session.Values[tokenKey] = token
	session.Options.MaxAge = adminSessionMaxAge
	if err := session.Save(r, w); err != nil {
		handlers.WriteError(w, r, apperrors.Wrap(apperrors.CodeInternal, "failed to save session", err))
		return
	}

	hlog.FromRequest(r).Info().Str("email", email).Msg("admin logged in with google")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) fetchGoogleUser(r *http.Request, code string) (email, name string, err error) {
	oauthConfig := s.getGoogleOAuthConfig()
	token, err := oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.CodeUnauthorized, "invalid credentials", err)
	}

	resp, err := oauthConfig.Client(r.Context(), token).Get(googleUserInfoURL)
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.CodeInternal, "failed to get user info", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", apperrors.New(apperrors.CodeInternal, fmt.Sprintf("user info returned %d", resp.StatusCode))
	}

	var userInfo struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return "", "", apperrors.Wrap(apperrors.CodeInternal, "failed to parse user info", err)
	}
	return userInfo.Email, userInfo.Name, nil
}
