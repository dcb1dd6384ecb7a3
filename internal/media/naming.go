package media

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SanitizeName replaces everything but letters, digits, dots and dashes.
func SanitizeName(original string) string {
	return unsafeChars.ReplaceAllString(original, "_")
}

// ObjectName builds `{timestampMs}-{suffix}-{sanitizedOriginalName}`.
func ObjectName(now time.Time, suffix, original string) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix + "-" + SanitizeName(original)
}

// randomSuffix returns six lowercase hex characters.
func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}
