// Package customer provides the customer domain model and data access.
package customer

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/arsarazi/realty/internal/property"
)

// Type classifies a customer.
type Type string

const (
	Buyer             Type = "buyer"
	Seller            Type = "seller"
	Investor          Type = "investor"
	ProspectiveBuyer  Type = "prospective_buyer"
	ProspectiveSeller Type = "prospective_seller"
)

// ValidTypes is the set of allowed customer types.
var ValidTypes = []Type{Buyer, Seller, Investor, ProspectiveBuyer, ProspectiveSeller}

// IsValid checks if a customer type is recognized.
func (t Type) IsValid() bool {
	for _, v := range ValidTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable label for the customer type.
func (t Type) Label() string {
	switch t {
	case Buyer:
		return "Buyer"
	case Seller:
		return "Seller"
	case Investor:
		return "Investor"
	case ProspectiveBuyer:
		return "Prospective buyer"
	case ProspectiveSeller:
		return "Prospective seller"
	default:
		return string(t)
	}
}

// Status is the relationship state of a customer.
type Status string

const (
	Active    Status = "active"
	Inactive  Status = "inactive"
	New       Status = "new"
	Converted Status = "converted"
)

// ValidStatuses is the set of allowed customer states.
var ValidStatuses = []Status{Active, Inactive, New, Converted}

// IsValid checks if a status is recognized.
func (s Status) IsValid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// DefaultSource marks customers entered through the website.
const DefaultSource = "website"

// Customer is a buyer, seller or investor the office works with.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone"`
	Type      Type      `json:"type"`
	Status    Status    `json:"status"`
	Interests []string  `json:"interests"`
	BudgetMin *float64  `json:"budget_min,omitempty"`
	BudgetMax *float64  `json:"budget_max,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApplyDefaults fills the values a new customer gets when left empty.
func (c *Customer) ApplyDefaults() {
	if c.Status == "" {
		c.Status = Active
	}
	if c.Source == "" {
		c.Source = DefaultSource
	}
	if c.Interests == nil {
		c.Interests = []string{}
	}
}

// Validate checks a customer before it is written.
func (c *Customer) Validate() error {
	var verr property.ValidationError

	if n := utf8.RuneCountInString(strings.TrimSpace(c.Name)); n < 2 || n > 255 {
		verr.Add("name", "must be 2-255 characters")
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(c.Phone)); n < 10 || n > 50 {
		verr.Add("phone", "must be 10-50 characters")
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			verr.Add("email", "must be a valid address")
		}
	}
	if !c.Type.IsValid() {
		verr.Add("type", "unknown type %q", c.Type)
	}
	if !c.Status.IsValid() {
		verr.Add("status", "unknown status %q", c.Status)
	}
	if c.BudgetMin != nil && *c.BudgetMin < 0 {
		verr.Add("budget_min", "must not be negative")
	}
	if c.BudgetMax != nil && *c.BudgetMax < 0 {
		verr.Add("budget_max", "must not be negative")
	}
	if c.BudgetMin != nil && c.BudgetMax != nil && *c.BudgetMin > *c.BudgetMax {
		verr.Add("budget_max", "must not be below budget_min")
	}
	if utf8.RuneCountInString(c.Notes) > 2000 {
		verr.Add("notes", "must be at most 2000 characters")
	}
	if utf8.RuneCountInString(c.Source) > 100 {
		verr.Add("source", "must be at most 100 characters")
	}

	return verr.Err()
}
