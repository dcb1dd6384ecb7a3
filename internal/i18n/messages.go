package i18n

import (
	"errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/AlexTLDR/memories/internal/apperrors"
)

// Romanian texts keyed by the English message.
var romanian = map[string]string{
	"name is required":                       "Numele este obligatoriu",
	"message is required":                    "Mesajul este obligatoriu",
	"guest name is required":                 "Numele invitatului este obligatoriu",
	"selfie is required":                     "Selfie-ul este obligatoriu",
	"rsvp status must be yes, maybe or no":   "Răspunsul trebuie să fie da, poate sau nu",
	"invalid phone number format":            "Număr de telefon invalid",
	"rsvp deadline has passed":               "Termenul limită pentru confirmare a trecut",
	"no files uploaded":                      "Nu a fost încărcat niciun fișier",
	"image is too large":                     "Imaginea este prea mare",
	"video is too large":                     "Videoclipul este prea mare",
	"only images and videos can be uploaded": "Se pot încărca doar imagini și videoclipuri",
	"too many files":                         "Prea multe fișiere",
	"code not found":                         "Codul de autorizare lipsește",
	"file name is required":                  "Numele fișierului este obligatoriu",
	"file names array is required":           "Lista de fișiere este obligatorie",
	"wish id is required":                    "ID-ul urării este obligatoriu",
	"guest id is required":                   "ID-ul invitatului este obligatoriu",
	"username and password are required":     "Utilizatorul și parola sunt obligatorii",
	"invalid request body":                   "Cerere invalidă",
	"file not found":                         "Fișierul nu a fost găsit",
	"no files found":                         "Nu au fost găsite fișiere",
	"wish not found":                         "Urarea nu a fost găsită",
	"guest not found":                        "Invitatul nu a fost găsit",
	"invalid credentials":                    "Date de autentificare invalide",
	"invalid wedding passcode":               "Codul nunții este greșit",
	"wedding passcode not configured":        "Codul nunții nu este configurat",
	"no token provided":                      "Nu sunteți autentificat",
	"token expired":                          "Sesiunea a expirat",
	"invalid token":                          "Sesiune invalidă",
	"admin access required":                  "Este necesar accesul de administrator",
	"google sign-in is not configured":       "Autentificarea Google nu este configurată",
	"storage is temporarily unavailable":     "Stocarea este temporar indisponibilă",
	"please try again":                       "Vă rugăm să încercați din nou",
	"something went wrong":                   "A apărut o eroare",
	"some operations failed":                 "Unele operații au eșuat",
}

var messages = func() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range romanian {
		if err := b.SetString(language.Romanian, key, text); err != nil {
			panic(err)
		}
	}
	return b
}()

// T translates an English message key.
func T(lang Language, key string) string {
	return message.NewPrinter(lang.Tag(), message.Catalog(messages)).Sprintf(key)
}

// ErrorMessage is the user-facing text for an error. Messages of client
// errors are shown translated; server-side failures get a generic text so
// causes are not leaked.
func ErrorMessage(lang Language, err error) string {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		return T(lang, "something went wrong")
	}
	switch appErr.Code {
	case apperrors.CodeValidation, apperrors.CodeNotFound, apperrors.CodeUnauthorized, apperrors.CodeForbidden:
		return T(lang, appErr.Message)
	case apperrors.CodeStorageUnavailable:
		return T(lang, "storage is temporarily unavailable")
	case apperrors.CodeConflict:
		return T(lang, "please try again")
	case apperrors.CodePartialFailure:
		return T(lang, "some operations failed")
	default:
		return T(lang, "something went wrong")
	}
}
