package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/arsarazi/realty/internal/contact"
	"github.com/arsarazi/realty/internal/customer"
	"github.com/arsarazi/realty/internal/property"
	"github.com/arsarazi/realty/internal/query"
)

// numbers groups digits the way the office writes prices.
var numbers = message.NewPrinter(language.Turkish)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPropertySummary prints a single property in text format.
func printPropertySummary(w io.Writer, p *property.Property) {
	fmt.Fprintf(w, "Property #%d  %s\n", p.ID, p.Title)
	fmt.Fprintf(w, "  Location:   %s\n", p.Location)
	if p.Address != "" {
		fmt.Fprintf(w, "  Address:    %s\n", p.Address)
	}
	fmt.Fprintf(w, "  Type:       %s\n", p.Type)
	fmt.Fprintf(w, "  Status:     %s\n", p.Status)
	fmt.Fprintf(w, "  Area:       %s\n", formatArea(p.Area))
	fmt.Fprintf(w, "  Price:      %s\n", formatPrice(p.Price))
	fmt.Fprintf(w, "  Per m²:     %s\n", formatPrice(p.PricePerArea()))
	if p.InvestmentPotential != "" {
		fmt.Fprintf(w, "  Investment: %s\n", p.InvestmentPotential)
	}
	if p.Zoning != "" {
		fmt.Fprintf(w, "  Zoning:     %s\n", p.Zoning)
	}
	if len(p.Features) > 0 {
		fmt.Fprintf(w, "  Features:   %s\n", strings.Join(p.Features, ", "))
	}
	if p.ContactPerson != "" || p.ContactPhone != "" {
		fmt.Fprintf(w, "  Contact:    %s %s\n", p.ContactPerson, p.ContactPhone)
	}
	if p.IsFeatured {
		fmt.Fprintln(w, "  Featured:   yes")
	}
	fmt.Fprintf(w, "  Views:      %d\n", p.ViewCount)
	if p.Description != "" {
		fmt.Fprintf(w, "\n  %s\n", p.Description)
	}
}

// printPropertyTable prints properties as a formatted table.
func printPropertyTable(w io.Writer, props []property.Property) error {
	if len(props) == 0 {
		fmt.Fprintln(w, "No properties found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tLOCATION\tAREA\tPRICE\t"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "--\t-----\t----\t--------\t----\t-----\t"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, p := range props {
		mark := ""
		if p.IsFeatured {
			mark = "★"
		}
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, truncate(p.Title, 40), p.Type, truncate(p.Location, 30),
			formatArea(p.Area), formatPrice(p.Price), mark); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

// printResult prints one search page with its position.
func printResult(w io.Writer, res *query.Result) error {
	if err := printPropertyTable(w, res.Items); err != nil {
		return err
	}
	if res.TotalItems > 0 {
		fmt.Fprintf(w, "\nPage %d of %d, %d properties\n", res.Page, res.TotalPages, res.TotalItems)
	}
	return nil
}

// printStats prints listing statistics.
func printStats(w io.Writer, st *query.Stats) {
	fmt.Fprintf(w, "Listings:      %d\n", st.Count)
	fmt.Fprintf(w, "Total area:    %s\n", formatArea(st.TotalArea))
	fmt.Fprintf(w, "Total value:   %s\n", formatPrice(st.TotalValue))
	fmt.Fprintf(w, "Average price: %s\n", formatPrice(st.AveragePrice))
	printCounts(w, "By type", st.ByType)
	printCounts(w, "By region", st.ByRegion)
	printCounts(w, "By status", st.ByStatus)
}

// printCounts prints a labeled count map, largest first.
func printCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	fmt.Fprintf(w, "\n%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-16s %d\n", k, counts[k])
	}
}

// printContactTable prints contact submissions.
func printContactTable(w io.Writer, items []*contact.Submission) error {
	if len(items) == 0 {
		fmt.Fprintln(w, "No submissions found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tDATE\tNAME\tSUBJECT\tSTATUS\tREACH"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, s := range items {
		reach := s.Phone
		if reach == "" {
			reach = s.Email
		}
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.CreatedAt.Format("2006-01-02 15:04"), truncate(s.Name, 30),
			s.Subject.Label(), s.Status, reach); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return tw.Flush()
}

// printCustomerTable prints customers.
func printCustomerTable(w io.Writer, items []*customer.Customer) error {
	if len(items) == 0 {
		fmt.Fprintln(w, "No customers found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tNAME\tPHONE\tTYPE\tSTATUS\tSOURCE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, c := range items {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, truncate(c.Name, 30), c.Phone, c.Type.Label(), c.Status, c.Source); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return tw.Flush()
}

// formatPrice formats an amount in lira with digit grouping.
func formatPrice(v float64) string {
	return numbers.Sprintf("%d TL", int64(math.Round(v)))
}

// formatArea formats square meters with digit grouping.
func formatArea(v float64) string {
	return numbers.Sprintf("%d m²", int64(math.Round(v)))
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
