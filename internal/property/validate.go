package property

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when input is rejected at the boundary.
// It collects every failing field instead of stopping at the first.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a failing field.
func (e *ValidationError) Add(field, format string, args ...interface{}) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err returns e if any field failed, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Validate checks a property before it is written.
func (p *Property) Validate() error {
	var verr ValidationError

	if n := utf8.RuneCountInString(strings.TrimSpace(p.Title)); n < 5 || n > 255 {
		verr.Add("title", "must be 5-255 characters")
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(p.Location)); n < 3 || n > 255 {
		verr.Add("location", "must be 3-255 characters")
	}
	if utf8.RuneCountInString(p.Address) > 500 {
		verr.Add("address", "must be at most 500 characters")
	}
	if utf8.RuneCountInString(p.Description) > 2000 {
		verr.Add("description", "must be at most 2000 characters")
	}
	if !p.Type.Valid() {
		verr.Add("type", "unknown type %q", p.Type)
	}
	if !p.Status.Valid() {
		verr.Add("status", "unknown status %q", p.Status)
	}
	if !p.InvestmentPotential.Valid() {
		verr.Add("investment_potential", "unknown rating %q", p.InvestmentPotential)
	}
	if p.Area <= 0 {
		verr.Add("area", "must be positive")
	}
	if p.Price <= 0 {
		verr.Add("price", "must be positive")
	}
	if p.ViewCount < 0 {
		verr.Add("view_count", "must not be negative")
	}

	return verr.Err()
}

// foldMarks strips combining marks after canonical decomposition. The chain
// keeps state between calls, so each caller needs its own.
func foldMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Slugify turns a title into a URL-safe slug. Accented letters are reduced
// to their ASCII base; anything else outside [a-z0-9] becomes a separator.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = strings.NewReplacer("ı", "i", "İ", "i", "ß", "ss").Replace(s)
	if folded, _, err := transform.String(foldMarks(), s); err == nil {
		s = folded
	}

	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
