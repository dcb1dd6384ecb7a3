package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends.
const (
	StorageGCS    = "gcs"
	StorageDisk   = "disk"
	StorageMemory = "memory"
)

const defaultSessionSecret = "change-me-in-production"

type Config struct {
	// App
	Port       string `env:"PORT"       envDefault:"8080"`
	BaseURL    string `env:"BASE_URL"   envDefault:"http://localhost:8080"`
	Production bool   `env:"PRODUCTION" envDefault:"false"`

	// Session and tokens
	SessionSecret string        `env:"SESSION_SECRET"  envDefault:"change-me-in-production"`
	JWTSecret     string        `env:"JWT_SECRET"`
	GuestTokenTTL time.Duration `env:"GUEST_TOKEN_TTL" envDefault:"720h"`
	AdminTokenTTL time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"24h"`

	// Guest and admin credentials
	WeddingPasscode string   `env:"WEDDING_PASSCODE"`
	AdminUsers      []string `env:"ADMIN_USERS"  envSeparator:","`
	AdminEmails     []string `env:"ADMIN_EMAILS" envSeparator:","`

	// Google OAuth
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	// Object storage
	StorageBackend  string        `env:"STORAGE_BACKEND" envDefault:"disk"`
	StorageDir      string        `env:"STORAGE_DIR"     envDefault:"storage"`
	StorageTimeout  time.Duration `env:"STORAGE_TIMEOUT" envDefault:"30s"`
	StorageRetries  uint64        `env:"STORAGE_RETRIES" envDefault:"3"`
	SignedURLTTL    time.Duration `env:"SIGNED_URL_TTL"  envDefault:"1h"`
	Bucket          string        `env:"GOOGLE_CLOUD_BUCKET_NAME"`
	GCSProjectID    string        `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GCSClientEmail  string        `env:"GOOGLE_CLOUD_CLIENT_EMAIL"`
	GCSPrivateKey   string        `env:"GOOGLE_CLOUD_PRIVATE_KEY"`
	GCSPrivateKeyID string        `env:"GOOGLE_CLOUD_PRIVATE_KEY_ID"`
	GCSClientID     string        `env:"GOOGLE_CLOUD_CLIENT_ID"`

	// Uploads
	MaxImageBytes int64 `env:"MAX_IMAGE_BYTES" envDefault:"10485760"`
	MaxVideoBytes int64 `env:"MAX_VIDEO_BYTES" envDefault:"209715200"`

	// RSVP
	PhoneRegion  string    `env:"PHONE_REGION"  envDefault:"RO"`
	RSVPDeadline time.Time `env:"RSVP_DEADLINE"`
	Timezone     string    `env:"TIMEZONE"      envDefault:"Europe/Bucharest"`

	// Snapshot database
	DatabaseURL string `env:"DATABASE_URL" envDefault:"memories.db"`

	DefaultLang string `env:"DEFAULT_LANG" envDefault:"ro"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT"   envDefault:"json"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.AdminUsers = trimAll(cfg.AdminUsers)
	cfg.AdminEmails = trimAll(cfg.AdminEmails)
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))

	if !cfg.RSVPDeadline.IsZero() {
		if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
			cfg.RSVPDeadline = cfg.RSVPDeadline.In(loc)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.StorageBackend {
	case StorageGCS:
		if c.Bucket == "" {
			errs = append(errs, errors.New("GOOGLE_CLOUD_BUCKET_NAME is required for the gcs backend"))
		}
	case StorageDisk:
		if c.StorageDir == "" {
			errs = append(errs, errors.New("STORAGE_DIR is required for the disk backend"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("invalid STORAGE_BACKEND %q", c.StorageBackend))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat))
	}
	if c.Production && c.SessionSecret == defaultSessionSecret {
		errs = append(errs, errors.New("SESSION_SECRET must be set in production"))
	}
	if c.MaxImageBytes <= 0 || c.MaxVideoBytes <= 0 {
		errs = append(errs, errors.New("upload limits must be positive"))
	}
	return errors.Join(errs...)
}

// GoogleOAuthEnabled reports whether admin Google sign-in is configured.
func (c *Config) GoogleOAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

// IsAdminEmail checks the Google sign-in whitelist.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// GCSCredentialsJSON assembles a service-account key from the individual
// GOOGLE_CLOUD_* variables. It returns nil when no key is configured so
// the client uses application default credentials.
func (c *Config) GCSCredentialsJSON() ([]byte, error) {
	if c.GCSClientEmail == "" || c.GCSPrivateKey == "" {
		return nil, nil
	}
	key := map[string]string{
		"type":           "service_account",
		"project_id":     c.GCSProjectID,
		"private_key_id": c.GCSPrivateKeyID,
		"private_key":    strings.ReplaceAll(c.GCSPrivateKey, `\n`, "\n"),
		"client_email":   c.GCSClientEmail,
		"client_id":      c.GCSClientID,
		"token_uri":      "https://oauth2.googleapis.com/token",
	}
	data, err := json.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("failed to encode service account key: %w", err)
	}
	return data, nil
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
