// Package cli defines the cobra command tree for realty.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/arsarazi/realty/internal/client"
)

var (
	flagFormat string
	flagConfig string
	flagDB     string
	flagServer string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "realty",
		Short:         "Run and query the brokerage listing service",
		Long:          "Serve the listing, customer, contact and blog API, or query a running server from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "server config file (default: ~/.config/realty/config.yaml)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path, overrides store.sqlite_path")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "API server URL for client commands")

	root.AddCommand(
		newServeCmd(),
		newListCmd(),
		newShowCmd(),
		newFeaturedCmd(),
		newSimilarCmd(),
		newStatsCmd(),
		newAddCmd(),
		newRemoveCmd(),
		newImportCmd(),
		newExportCmd(),
		newRestoreCmd(),
		newContactsCmd(),
		newCustomersCmd(),
		newRemoteCmd(),
		newVersionCmd(),
	)

	return root
}

// newAPIClient creates an HTTP client for the realty API.
func newAPIClient() *client.Client {
	return client.New(getServerURL())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}
