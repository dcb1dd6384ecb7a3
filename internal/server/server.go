package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/AlexTLDR/memories/internal/apperrors"
	"github.com/AlexTLDR/memories/internal/auth"
	"github.com/AlexTLDR/memories/internal/config"
	"github.com/AlexTLDR/memories/internal/guests"
	"github.com/AlexTLDR/memories/internal/media"
	"github.com/AlexTLDR/memories/internal/rsvp"
	"github.com/AlexTLDR/memories/internal/server/handlers"
	"github.com/AlexTLDR/memories/internal/wishes"
)

const (
	// sessionName is the cookie carrying the bearer token.
	sessionName = "auth-token"
	tokenKey    = "token"
	stateKey    = "oauth-state"

	guestSessionMaxAge = 7 * 24 * 60 * 60
	adminSessionMaxAge = 24 * 60 * 60
)

// Deps are the collaborators the HTTP layer dispatches to.
type Deps struct {
	Config   *config.Config
	Guests   *guests.Registry
	Media    *media.Service
	Wishes   *wishes.Ledger
	RSVPs    *rsvp.Ledger
	Issuer   *auth.Issuer
	Accounts *auth.Accounts
	Logger   zerolog.Logger
}

type Server struct {
	config       *config.Config
	guests       *guests.Registry
	media        *media.Service
	wishes       *wishes.Ledger
	rsvps        *rsvp.Ledger
	issuer       *auth.Issuer
	accounts     *auth.Accounts
	log          zerolog.Logger
	sessionStore *sessions.CookieStore
	router       *http.ServeMux
}

// GetConfig implements handlers.Server interface
func (s *Server) GetConfig() *config.Config { return s.config }

// GetGuests implements handlers.Server interface
func (s *Server) GetGuests() *guests.Registry { return s.guests }

// GetMedia implements handlers.Server interface
func (s *Server) GetMedia() *media.Service { return s.media }

// GetWishes implements handlers.Server interface
func (s *Server) GetWishes() *wishes.Ledger { return s.wishes }

// GetRSVPs implements handlers.Server interface
func (s *Server) GetRSVPs() *rsvp.Ledger { return s.rsvps }

func New(d Deps) *Server {
	store := sessions.NewCookieStore([]byte(d.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   guestSessionMaxAge,
		HttpOnly: true,
		Secure:   d.Config.Production,
		SameSite: http.SameSiteLaxMode,
	}

	s := &Server{
		config:       d.Config,
		guests:       d.Guests,
		media:        d.Media,
		wishes:       d.Wishes,
		rsvps:        d.RSVPs,
		issuer:       d.Issuer,
		accounts:     d.Accounts,
		log:          d.Logger.With().Str("component", "http").Logger(),
		sessionStore: store,
		router:       http.NewServeMux(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Auth routes
	s.router.HandleFunc("POST /api/auth/login", s.handleAdminLogin)
	s.router.HandleFunc("POST /api/auth/guest-login", s.handleGuestLogin)
	s.router.HandleFunc("GET /api/auth/verify", s.handleVerify)
	s.router.HandleFunc("POST /api/auth/force-logout", s.handleLogout)
	s.router.HandleFunc("GET /api/debug/user-status", s.handleUserStatus)
	s.router.HandleFunc("GET /auth/google", s.handleGoogleLogin)
	s.router.HandleFunc("GET /auth/google/callback", s.handleGoogleCallback)

	// Public routes
	s.router.HandleFunc("POST /api/rsvp", handlers.HandleRSVPSubmit(s))
	s.router.HandleFunc("GET /api/media/{name...}", handlers.HandleMedia(s))

	// Guest and admin routes
	s.router.HandleFunc("GET /api/gallery", s.requireAuth(handlers.HandleGallery(s)))
	s.router.HandleFunc("POST /api/upload", s.requireAuth(handlers.HandleUpload(s)))
	s.router.HandleFunc("GET /api/guests", s.requireAuth(handlers.HandleGuests(s)))
	s.router.HandleFunc("GET /api/guests/{guestId}/files", s.requireAuth(handlers.HandleGuestFiles(s)))
	s.router.HandleFunc("GET /api/wishes", s.requireAuth(handlers.HandleListWishes(s)))
	s.router.HandleFunc("POST /api/wishes", s.requireAuth(handlers.HandleCreateWish(s)))
	s.router.HandleFunc("GET /api/download/file", s.requireAuth(handlers.HandleDownloadFile(s)))
	s.router.HandleFunc("GET /api/download/all", s.requireAuth(handlers.HandleDownloadAll(s)))

	// Admin routes (protected)
	s.router.HandleFunc("GET /api/rsvp", s.requireAdmin(handlers.HandleRSVPList(s)))
	s.router.HandleFunc("GET /api/debug/files", s.requireAdmin(handlers.HandleDebugFiles(s)))
	s.router.HandleFunc("DELETE /api/admin/delete-file", s.requireAdmin(handlers.HandleDeleteFile(s)))
	s.router.HandleFunc("DELETE /api/admin/delete-files", s.requireAdmin(handlers.HandleDeleteFiles(s)))
	s.router.HandleFunc("DELETE /api/admin/delete-guest", s.requireAdmin(handlers.HandleDeleteGuest(s)))
	s.router.HandleFunc("DELETE /api/admin/delete-wish", s.requireAdmin(handlers.HandleDeleteWish(s)))
	s.router.HandleFunc("POST /api/admin/reconcile-counts", s.requireAdmin(handlers.HandleReconcileCounts(s)))
	s.router.HandleFunc("GET /api/admin/rsvp.csv", s.requireAdmin(handlers.HandleAdminDownloadCSV(s)))
}

// Handler returns the router wrapped with request logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(h)
	h = hlog.RemoteAddrHandler("ip")(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	h = hlog.NewHandler(s.log)(h)
	return h
}

// requireAuth is a middleware that resolves the caller's token
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := s.identify(r)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		next(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	}
}

// requireAdmin rejects guest tokens
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		if !id.IsAdmin() {
			handlers.WriteError(w, r, apperrors.New(apperrors.CodeForbidden, "admin access required"))
			return
		}
		next(w, r)
	})
}

// identify verifies the bearer header, falling back to the session cookie.
func (s *Server) identify(r *http.Request) (auth.Identity, error) {
	token := bearerToken(r)
	if token == "" {
		token = s.sessionToken(r)
	}
	if token == "" {
		return auth.Identity{}, apperrors.New(apperrors.CodeUnauthorized, "no token provided")
	}
	return s.issuer.Verify(token)
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (s *Server) sessionToken(r *http.Request) string {
	session, _ := s.sessionStore.Get(r, sessionName)
	token, _ := session.Values[tokenKey].(string)
	return token
}

func (s *Server) saveSessionToken(w http.ResponseWriter, r *http.Request, token string, maxAge int) error {
	session, _ := s.sessionStore.Get(r, sessionName)
	session.Values[tokenKey] = token
	session.Options.MaxAge = maxAge
	return session.Save(r, w)
}
