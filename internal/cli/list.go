package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/arsarazi/realty/internal/query"
)

// searchFlags are the filter flags shared by list and stats.
type searchFlags struct {
	search        string
	typ           string
	minArea       float64
	maxPrice      float64
	investment    string
	location      string
	status        string
	sort          string
	featuredFirst bool
	page          int
	limit         int
}

func (f *searchFlags) register(fs *pflag.FlagSet, paging bool) {
	fs.StringVar(&f.search, "search", "", "text to find in title, location, description or features")
	fs.StringVar(&f.typ, "type", "", "listing type (residential|villa|industrial|commercial|agricultural)")
	fs.Float64Var(&f.minArea, "min-area", 0, "minimum area in m²")
	fs.Float64Var(&f.maxPrice, "max-price", 0, "maximum price")
	fs.StringVar(&f.investment, "investment", "", "investment potential (very_high|high|medium|low)")
	fs.StringVar(&f.location, "location", "", "text to find in the location")
	fs.StringVar(&f.status, "status", "", "listing status (default listed)")
	if !paging {
		return
	}
	fs.StringVar(&f.sort, "sort", "", "order (newest|price_low|price_high|area_large|area_small)")
	fs.BoolVar(&f.featuredFirst, "featured-first", false, "rank featured listings first")
	fs.IntVar(&f.page, "page", 1, "page number")
	fs.IntVar(&f.limit, "limit", 0, "page size (default 12, max 100)")
}

// spec validates the flags through the same parser the API uses.
func (f *searchFlags) spec(fs *pflag.FlagSet) (query.Spec, error) {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("search", f.search)
	set("type", f.typ)
	set("investment_potential", f.investment)
	set("location", f.location)
	set("status", f.status)
	set("sort", f.sort)
	if fs.Changed("min-area") {
		v.Set("min_area", strconv.FormatFloat(f.minArea, 'f', -1, 64))
	}
	if fs.Changed("max-price") {
		v.Set("max_price", strconv.FormatFloat(f.maxPrice, 'f', -1, 64))
	}
	if fs.Changed("featured-first") {
		v.Set("featured_first", strconv.FormatBool(f.featuredFirst))
	}
	if fs.Changed("page") {
		v.Set("page", strconv.Itoa(f.page))
	}
	if fs.Changed("limit") {
		v.Set("limit", strconv.Itoa(f.limit))
	}

	s, err := query.Parse(v)
	if err != nil {
		return query.Spec{}, fmt.Errorf("invalid search: %w", err)
	}
	return s, nil
}

func newListCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search listings",
		Long:  "Search listings on the server. Without filters the featured listings come first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.spec(cmd.Flags())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("featured-first") && s.Unfiltered() {
				s.FeaturedFirst = true
			}

			res, err := newAPIClient().ListProperties(cmd.Context(), s)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), res)
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}

	flags.register(cmd.Flags(), true)
	return cmd
}

func newStatsCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize listings",
		Long:  "Count, total area, total value and breakdowns of the listings matching the filters.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.spec(cmd.Flags())
			if err != nil {
				return err
			}

			st, err := newAPIClient().Stats(cmd.Context(), s)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), st)
			}
			printStats(cmd.OutOrStdout(), st)
			return nil
		},
	}

	flags.register(cmd.Flags(), false)
	return cmd
}
