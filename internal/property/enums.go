package property

import (
	"strings"
)

// Type is the listing category.
type Type string

const (
	TypeResidential  Type = "residential"
	TypeVilla        Type = "villa"
	TypeIndustrial   Type = "industrial"
	TypeCommercial   Type = "commercial"
	TypeAgricultural Type = "agricultural"
)

// Types is the closed set of listing categories.
var Types = []Type{TypeResidential, TypeVilla, TypeIndustrial, TypeCommercial, TypeAgricultural}

// Status is the lifecycle state of a listing.
type Status string

const (
	StatusListed   Status = "listed"
	StatusSold     Status = "sold"
	StatusReserved Status = "reserved"
	StatusInactive Status = "inactive"
)

// Statuses is the closed set of lifecycle states.
var Statuses = []Status{StatusListed, StatusSold, StatusReserved, StatusInactive}

// Investment is the editorial investment-potential rating.
type Investment string

const (
	InvestmentVeryHigh Investment = "very_high"
	InvestmentHigh     Investment = "high"
	InvestmentMedium   Investment = "medium"
	InvestmentLow      Investment = "low"
)

// Investments is ordered from highest to lowest.
var Investments = []Investment{InvestmentVeryHigh, InvestmentHigh, InvestmentMedium, InvestmentLow}

// Legacy labels used by the portfolio spreadsheets and older clients.
var (
	typeLabels = map[string]Type{
		"konut":  TypeResidential,
		"villa":  TypeVilla,
		"sanayi": TypeIndustrial,
		"ticari": TypeCommercial,
		"tarım":  TypeAgricultural,
		"tarim":  TypeAgricultural,
	}
	statusLabels = map[string]Status{
		"satılık": StatusListed,
		"satilik": StatusListed,
		"satıldı": StatusSold,
		"satildi": StatusSold,
		"rezerve": StatusReserved,
		"pasif":   StatusInactive,
	}
	investmentLabels = map[string]Investment{
		"çok yüksek": InvestmentVeryHigh,
		"cok yuksek": InvestmentVeryHigh,
		"yüksek":     InvestmentHigh,
		"yuksek":     InvestmentHigh,
		"orta":       InvestmentMedium,
		"düşük":      InvestmentLow,
		"dusuk":      InvestmentLow,
	}
)

// normalizeLabel lowercases s and maps dashes and spaces to underscores.
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// ParseType resolves s to a Type. It accepts canonical values in any case
// and the legacy Turkish labels.
func ParseType(s string) (Type, bool) {
	n := normalizeLabel(s)
	for _, t := range Types {
		if string(t) == n {
			return t, true
		}
	}
	t, ok := typeLabels[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// ParseStatus resolves s to a Status.
func ParseStatus(s string) (Status, bool) {
	n := normalizeLabel(s)
	for _, st := range Statuses {
		if string(st) == n {
			return st, true
		}
	}
	st, ok := statusLabels[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

// ParseInvestment resolves s to an Investment rating.
func ParseInvestment(s string) (Investment, bool) {
	n := normalizeLabel(s)
	for _, i := range Investments {
		if string(i) == n {
			return i, true
		}
	}
	i, ok := investmentLabels[strings.ToLower(strings.TrimSpace(s))]
	return i, ok
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	for _, v := range Types {
		if t == v {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Valid reports whether i is a known rating. The empty rating is valid.
func (i Investment) Valid() bool {
	if i == "" {
		return true
	}
	for _, v := range Investments {
		if i == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable label.
func (t Type) Label() string {
	switch t {
	case TypeResidential:
		return "Residential"
	case TypeVilla:
		return "Villa"
	case TypeIndustrial:
		return "Industrial"
	case TypeCommercial:
		return "Commercial"
	case TypeAgricultural:
		return "Agricultural"
	default:
		return string(t)
	}
}

// Label returns a human-readable label.
func (i Investment) Label() string {
	switch i {
	case InvestmentVeryHigh:
		return "Very high"
	case InvestmentHigh:
		return "High"
	case InvestmentMedium:
		return "Medium"
	case InvestmentLow:
		return "Low"
	default:
		return string(i)
	}
}

// NormalizeLabels rewrites legacy or loosely spelled enum values to their
// canonical form. Unrecognized values are left for Validate to reject.
func (p *Property) NormalizeLabels() {
	if t, ok := ParseType(string(p.Type)); ok {
		p.Type = t
	}
	if s, ok := ParseStatus(string(p.Status)); ok {
		p.Status = s
	}
	if i, ok := ParseInvestment(string(p.InvestmentPotential)); ok {
		p.InvestmentPotential = i
	}
}
