// Package contact handles contact form submissions.
package contact

import (
	"encoding/json"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/arsarazi/realty/internal/property"
)

// Subject is the topic picked on the contact form.
type Subject string

const (
	PropertySearch Subject = "property_search"
	PriceInfo      Subject = "price_info"
	Appointment    Subject = "appointment"
	Valuation      Subject = "valuation"
	Other          Subject = "other"
)

// ValidSubjects is the set of allowed subjects, in form order.
var ValidSubjects = []Subject{PropertySearch, PriceInfo, Appointment, Valuation, Other}

// ParseSubject accepts a canonical subject or the slug the website form posts.
func ParseSubject(s string) (Subject, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "arsa-arama":
		return PropertySearch, true
	case "fiyat-bilgisi":
		return PriceInfo, true
	case "randevu":
		return Appointment, true
	case "degerlendirme":
		return Valuation, true
	case "diger":
		return Other, true
	}
	key = strings.ReplaceAll(key, "-", "_")
	for _, v := range ValidSubjects {
		if Subject(key) == v {
			return v, true
		}
	}
	return "", false
}

// Label returns the display name shown to office staff.
func (s Subject) Label() string {
	switch s {
	case PropertySearch:
		return "Property search"
	case PriceInfo:
		return "Price information"
	case Appointment:
		return "Appointment request"
	case Valuation:
		return "Valuation"
	default:
		return "Other"
	}
}

// Status tracks how the office handled a submission.
type Status string

const (
	New       Status = "new"
	Responded Status = "responded"
	Closed    Status = "closed"
)

// ValidStatuses is the set of allowed statuses.
var ValidStatuses = []Status{New, Responded, Closed}

// IsValid checks if a status is recognized.
func (s Status) IsValid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Submission is one message sent through the contact form.
type Submission struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Subject       Subject   `json:"subject"`
	Message       string    `json:"message"`
	PropertyID    *int64    `json:"property_id,omitempty"`
	PropertyTitle string    `json:"property_title,omitempty"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// MarshalJSON adds subject_display to the encoded submission.
func (s Submission) MarshalJSON() ([]byte, error) {
	type plain Submission
	return json.Marshal(struct {
		plain
		SubjectDisplay string `json:"subject_display"`
	}{plain(s), s.Subject.Label()})
}

// Validate checks a submission as it arrives from the form.
func (s *Submission) Validate() error {
	var verr property.ValidationError

	if n := utf8.RuneCountInString(strings.TrimSpace(s.Name)); n < 2 || n > 100 {
		verr.Add("name", "must be 2-100 characters")
	}
	if s.Email == "" && s.Phone == "" {
		verr.Add("email", "email or phone is required")
	}
	if s.Email != "" {
		if _, err := mail.ParseAddress(s.Email); err != nil {
			verr.Add("email", "must be a valid address")
		}
	}
	if s.Phone != "" {
		if n := utf8.RuneCountInString(strings.TrimSpace(s.Phone)); n < 10 || n > 20 {
			verr.Add("phone", "must be 10-20 characters")
		}
	}
	if subject, ok := ParseSubject(string(s.Subject)); ok {
		s.Subject = subject
	} else {
		verr.Add("subject", "unknown subject %q", s.Subject)
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(s.Message)); n < 10 || n > 1000 {
		verr.Add("message", "must be 10-1000 characters")
	}
	if s.PropertyID != nil && *s.PropertyID < 1 {
		verr.Add("property_id", "must be a positive id")
	}

	return verr.Err()
}

// Stats summarizes all submissions.
type Stats struct {
	ByStatus  map[Status]int  `json:"by_status"`
	BySubject map[Subject]int `json:"by_subject"`
	Recent    int             `json:"recent_count"`
	Total     int             `json:"total_count"`
}
