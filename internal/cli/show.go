package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func parsePropertyID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid property ID: %s", raw)
	}
	return id, nil
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show property details",
		Long:  "Show full details for a listing and the related listings suggested with it. Counts as a view.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePropertyID(args[0])
			if err != nil {
				return err
			}

			d, err := newAPIClient().GetProperty(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, d)
			}

			printPropertySummary(out, &d.Property)
			if len(d.Related) > 0 {
				fmt.Fprintf(out, "\nRelated (%d):\n", len(d.Related))
				return printPropertyTable(out, d.Related)
			}
			return nil
		},
	}
}

func newFeaturedCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "featured",
		Short: "List featured listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := newAPIClient().Featured(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), props)
			}
			return printPropertyTable(cmd.OutOrStdout(), props)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "number of listings (default 6)")
	return cmd
}

func newSimilarCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "similar <id>",
		Short: "List listings similar to one listing",
		Long:  "List listed properties sharing the type or region of a listing, best match first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePropertyID(args[0])
			if err != nil {
				return err
			}

			props, err := newAPIClient().Similar(cmd.Context(), id, limit)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), props)
			}
			return printPropertyTable(cmd.OutOrStdout(), props)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "number of listings (default 4)")
	return cmd
}
