package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arsarazi/realty/internal/property"
)

func newAddCmd() *cobra.Command {
	var (
		p          property.Property
		typ        string
		status     string
		investment string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a listing",
		Long:  "Create a listing on the server. Type, status and investment accept the canonical values or the office's Turkish labels.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Title = strings.Join(args, " ")
			p.Type = property.Type(typ)
			p.Status = property.Status(status)
			p.InvestmentPotential = property.Investment(investment)
			p.NormalizeLabels()

			saved, err := newAPIClient().CreateProperty(cmd.Context(), &p)
			if err != nil {
				return fmt.Errorf("adding property: %w", err)
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), saved)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Property added.")
			printPropertySummary(cmd.OutOrStdout(), saved)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&p.Location, "location", "", "city and district, e.g. \"Izmir, Urla\"")
	f.StringVar(&p.Address, "address", "", "street address")
	f.StringVar(&p.Description, "description", "", "free-text description")
	f.StringVar(&typ, "type", "", "listing type")
	f.StringVar(&status, "status", "", "listing status (default listed)")
	f.StringVar(&investment, "investment", "", "investment potential")
	f.Float64Var(&p.Area, "area", 0, "area in m²")
	f.Float64Var(&p.Price, "price", 0, "asking price")
	f.StringSliceVar(&p.Features, "feature", nil, "feature, repeatable")
	f.StringSliceVar(&p.Images, "image", nil, "image URL, repeatable")
	f.StringVar(&p.Zoning, "zoning", "", "zoning status")
	f.StringVar(&p.ContactPerson, "contact-person", "", "agent in charge")
	f.StringVar(&p.ContactPhone, "contact-phone", "", "agent phone")
	f.BoolVar(&p.IsFeatured, "featured", false, "feature on the home page")

	return cmd
}
