package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AlexTLDR/memories/internal/i18n"
	"github.com/AlexTLDR/memories/internal/rsvp"
)

// csvRowData holds formatted data for a single CSV row
type csvRowData struct {
	name             string
	email            string
	phone            string
	status           string
	additionalGuests string
	message          string
	submittedAt      string
}

var csvHeaders = map[i18n.Language]string{
	i18n.Romanian: "Nume,Email,Telefon,Participă,Însoțitori,Mesaj,Trimis la\n",
	i18n.English:  "Name,Email,Phone,Attending,Additional guests,Message,Submitted at\n",
}

var csvStatus = map[i18n.Language]map[rsvp.Status]string{
	i18n.Romanian: {rsvp.StatusYes: "Da", rsvp.StatusNo: "Nu", rsvp.StatusMaybe: "Poate"},
	i18n.English:  {rsvp.StatusYes: "Yes", rsvp.StatusNo: "No", rsvp.StatusMaybe: "Maybe"},
}

// escapeCSVField escapes a string for CSV format
func escapeCSVField(field string) string {
	escaped := strings.ReplaceAll(field, "\"", "\"\"")
	// Newlines in messages would break rows in spreadsheet imports
	escaped = strings.ReplaceAll(escaped, "\r\n", " ")
	escaped = strings.ReplaceAll(escaped, "\n", " ")
	return escaped
}

// formatRSVPForCSV converts an RSVP record to CSV row data
func formatRSVPForCSV(rec rsvp.Record, lang i18n.Language) csvRowData {
	row := csvRowData{
		name:             escapeCSVField(rec.GuestName),
		email:            "-",
		phone:            "-",
		status:           csvStatus[lang][rec.RSVPStatus],
		additionalGuests: "-",
		message:          "-",
		submittedAt:      rec.SubmittedAt.Format(time.RFC3339),
	}
	if rec.Email != "" {
		row.email = escapeCSVField(rec.Email)
	}
	if rec.Phone != "" {
		row.phone = escapeCSVField(rec.Phone)
	}
	if row.status == "" {
		row.status = escapeCSVField(string(rec.RSVPStatus))
	}
	if len(rec.AdditionalGuests) > 0 {
		row.additionalGuests = escapeCSVField(strings.Join(rec.AdditionalGuests, "; "))
	}
	if rec.Message != "" {
		row.message = escapeCSVField(rec.Message)
	}
	return row
}

// buildCSVRow creates a CSV line from row data
func buildCSVRow(row csvRowData) string {
	return fmt.Sprintf("\"%s\",\"%s\",\"%s\",\"%s\",\"%s\",\"%s\",\"%s\"\n",
		row.name, row.email, row.phone, row.status,
		row.additionalGuests, row.message, row.submittedAt)
}

// writeCSVHeaders sets HTTP headers and writes CSV header row
func writeCSVHeaders(w http.ResponseWriter, lang i18n.Language) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=rsvp-list.csv")

	// UTF-8 BOM for Excel
	_, _ = w.Write([]byte{0xEF, 0xBB, 0xBF})
	_, _ = w.Write([]byte(csvHeaders[lang]))
}

// HandleAdminDownloadCSV exports the RSVPs to CSV
func HandleAdminDownloadCSV(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := s.GetRSVPs().List(r.Context())
		if err != nil {
			WriteError(w, r, err)
			return
		}

		lang := i18n.GetLanguageFromRequest(r)
		writeCSVHeaders(w, lang)
		for _, rec := range records {
			_, _ = w.Write([]byte(buildCSVRow(formatRSVPForCSV(rec, lang))))
		}
	}
}
