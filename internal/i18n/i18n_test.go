package i18n

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AlexTLDR/memories/internal/apperrors"
)

func TestGetLanguageFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		cookie string
		accept string
		want   Language
	}{
		{name: "query wins", query: "en", cookie: "ro", accept: "ro-RO", want: English},
		{name: "unknown query falls through to cookie", query: "fr", cookie: "en", want: English},
		{name: "cookie", cookie: "ro", accept: "en-US", want: Romanian},
		{name: "accept language english", accept: "en-GB,en;q=0.9", want: English},
		{name: "accept language romanian", accept: "ro-RO,ro;q=0.9,en;q=0.5", want: Romanian},
		{name: "unsupported accept language", accept: "ja", want: Romanian},
		{name: "nothing", want: Romanian},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?lang="+tt.query, nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: "lang", Value: tt.cookie})
			}
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}

			assert.Equal(t, tt.want, GetLanguageFromRequest(r))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		lang Language
		err  error
		want string
	}{
		{"validation english", English, apperrors.Validation("name", "name is required"), "name is required"},
		{"validation romanian", Romanian, apperrors.Validation("name", "name is required"), "Numele este obligatoriu"},
		{"storage hides cause", English, apperrors.Wrap(apperrors.CodeStorageUnavailable, "read guests", fmt.Errorf("dial tcp")), "storage is temporarily unavailable"},
		{"plain error", Romanian, fmt.Errorf("boom"), "A apărut o eroare"},
		{"untranslated message passes through", Romanian, apperrors.New(apperrors.CodeNotFound, "nothing here"), "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.lang, tt.err))
		})
	}
}
