package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePropertyID(args[0])
			if err != nil {
				return err
			}

			if err := newAPIClient().DeleteProperty(cmd.Context(), id); err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"id":      id,
					"removed": true,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Property #%d removed.\n", id)
			return nil
		},
	}
}
