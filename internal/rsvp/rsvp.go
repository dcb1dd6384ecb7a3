// Package rsvp keeps one attendance answer per guest name in a local JSON
// file and derives the attendance summary from it.
package rsvp

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"

	"github.com/AlexTLDR/memories/internal/apperrors"
	"github.com/AlexTLDR/memories/internal/ledger"
	"github.com/AlexTLDR/memories/internal/utils"
)

// DocumentPath is the RSVP file, relative to the working directory.
const DocumentPath = "data/rsvp.json"

// Status is a guest's answer.
type Status string

const (
	StatusYes   Status = "yes"
	StatusMaybe Status = "maybe"
	StatusNo    Status = "no"
)

// ParseStatus accepts yes, maybe or no in any case.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusYes:
		return StatusYes, nil
	case StatusMaybe:
		return StatusMaybe, nil
	case StatusNo:
		return StatusNo, nil
	}
	return "", apperrors.Validation("rsvpStatus", "rsvp status must be yes, maybe or no")
}

// Record is a stored RSVP.
type Record struct {
	ID               string    `json:"id"`
	GuestName        string    `json:"guestName"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	RSVPStatus       Status    `json:"rsvpStatus"`
	AdditionalGuests []string  `json:"additionalGuests"`
	Message          string    `json:"message"`
	SubmittedAt      time.Time `json:"submittedAt"`
	IPAddress        string    `json:"ipAddress"`
}

// Submission is an RSVP as sent by the form.
type Submission struct {
	GuestName        string   `json:"guestName"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone"`
	RSVPStatus       string   `json:"rsvpStatus"`
	AdditionalGuests []string `json:"additionalGuests"`
	Message          string   `json:"message"`
}

// Summary is the attendance tally shown to admins.
type Summary struct {
	TotalCount int `json:"totalCount"`
	YesCount   int `json:"yesCount"`
	NoCount    int `json:"noCount"`
	MaybeCount int `json:"maybeCount"`
}

// Summarize counts records by status.
func Summarize(records []Record) Summary {
	s := Summary{TotalCount: len(records)}
	for _, r := range records {
		switch r.RSVPStatus {
		case StatusYes:
			s.YesCount++
		case StatusNo:
			s.NoCount++
		case StatusMaybe:
			s.MaybeCount++
		}
	}
	return s
}

// Options configures submission checks.
type Options struct {
	// PhoneRegion is used for numbers without a country code.
	PhoneRegion string
	// Deadline rejects submissions after it, unless zero.
	Deadline time.Time
}

// Ledger is the RSVP collection.
type Ledger struct {
	doc  *ledger.Document[Record]
	opts Options
	log  zerolog.Logger
	now  func() time.Time
}

// NewLedger wires the ledger.
func NewLedger(doc *ledger.Document[Record], opts Options, log zerolog.Logger) *Ledger {
	if opts.PhoneRegion == "" {
		opts.PhoneRegion = utils.DefaultRegion
	}
	return &Ledger{
		doc:  doc,
		opts: opts,
		log:  log.With().Str("component", "rsvp").Logger(),
		now:  time.Now,
	}
}

// SetClock overrides the clock used for deadlines and timestamps.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// Deadline returns the configured deadline, zero when there is none.
func (l *Ledger) Deadline() time.Time {
	return l.opts.Deadline
}

// List returns every RSVP in submission order.
func (l *Ledger) List(ctx context.Context) ([]Record, error) {
	return l.doc.Read(ctx)
}

// Submit validates a form submission and upserts it.
func (l *Ledger) Submit(ctx context.Context, sub Submission, ipAddress string) (Record, error) {
	now := l.now()
	if !l.opts.Deadline.IsZero() && now.After(l.opts.Deadline) {
		return Record{}, apperrors.WithMetadata(apperrors.CodeForbidden, "rsvp deadline has passed",
			map[string]string{"Deadline": l.opts.Deadline.Format(time.RFC3339)})
	}

	name := strings.TrimSpace(sub.GuestName)
	if name == "" {
		return Record{}, apperrors.Validation("guestName", "guest name is required")
	}
	status, err := ParseStatus(sub.RSVPStatus)
	if err != nil {
		return Record{}, err
	}

	phone := strings.TrimSpace(sub.Phone)
	if phone != "" {
		phone, err = utils.NormalizePhoneNumberIn(phone, l.opts.PhoneRegion)
		if err != nil {
			return Record{}, apperrors.Validation("phone", "invalid phone number format")
		}
	}

	additional := make([]string, 0, len(sub.AdditionalGuests))
	for _, g := range sub.AdditionalGuests {
		if g = strings.TrimSpace(g); g != "" {
			additional = append(additional, g)
		}
	}
	if ipAddress == "" {
		ipAddress = "unknown"
	}

	return l.Upsert(ctx, Record{
		ID:               uuid.NewString(),
		GuestName:        name,
		Email:            strings.TrimSpace(sub.Email),
		Phone:            phone,
		RSVPStatus:       status,
		AdditionalGuests: additional,
		Message:          strings.TrimSpace(sub.Message),
		SubmittedAt:      now.UTC(),
		IPAddress:        ipAddress,
	})
}

// Upsert replaces the record whose guest name matches case-insensitively,
// keeping its ID and position, or appends rec. It returns the stored
// record.
func (l *Ledger) Upsert(ctx context.Context, rec Record) (Record, error) {
	if rec.AdditionalGuests == nil {
		rec.AdditionalGuests = []string{}
	}
	key := nameKey(rec.GuestName)
	stored := rec
	updated := false

	_, err := l.doc.Update(ctx, func(records []Record) ([]Record, error) {
		stored, updated = rec, false
		for i := range records {
			if nameKey(records[i].GuestName) != key {
				continue
			}
			if records[i].ID != "" {
				stored.ID = records[i].ID
			}
			records[i] = stored
			updated = true
			return records, nil
		}
		return append(records, stored), nil
	})
	if err != nil {
		return Record{}, err
	}

	l.log.Info().Str("rsvp_id", stored.ID).Str("status", string(stored.RSVPStatus)).Bool("updated", updated).Msg("rsvp saved")
	return stored, nil
}

// PhoneReport summarizes a NormalizePhones run.
type PhoneReport struct {
	Total     int
	Updated   int
	Failed    int
	Unchanged int
	Failures  map[string]string
}

// NormalizePhones rewrites every stored phone to E.164. Numbers that do not
// parse are left as they are and reported by guest name.
func (l *Ledger) NormalizePhones(ctx context.Context) (PhoneReport, error) {
	var report PhoneReport
	_, err := l.doc.Update(ctx, func(records []Record) ([]Record, error) {
		report = PhoneReport{Total: len(records), Failures: map[string]string{}}
		for i := range records {
			phone := records[i].Phone
			if strings.TrimSpace(phone) == "" {
				report.Unchanged++
				continue
			}
			normalized, err := utils.NormalizePhoneNumberIn(phone, l.opts.PhoneRegion)
			if err != nil {
				report.Failed++
				report.Failures[records[i].GuestName] = phone
				continue
			}
			if normalized == phone {
				report.Unchanged++
				continue
			}
			records[i].Phone = normalized
			report.Updated++
		}
		if report.Updated == 0 {
			return nil, ledger.ErrSkip
		}
		return records, nil
	})
	return report, err
}

func nameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
