package cli

import (
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"
)

func newRemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Show the API server and check the connection",
		Long:  "Print the server used by the client commands and check that it answers.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemote(cmd, cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <url>",
		Short: "Save the API server URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(args[0])
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("invalid server URL: %s", args[0])
			}

			cfg, err := loadCLIConfig()
			if err != nil {
				return err
			}
			cfg.ServerURL = args[0]
			if err := saveCLIConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Server set to %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func runRemote(cmd *cobra.Command, out io.Writer) error {
	fmt.Fprintf(out, "Server:  %s\n", getServerURL())

	if err := newAPIClient().Health(cmd.Context()); err != nil {
		fmt.Fprintf(out, "Status:  ✗ %v\n", err)
		return nil
	}
	fmt.Fprintln(out, "Status:  ✓ connected")
	return nil
}
