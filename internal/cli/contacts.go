package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arsarazi/realty/internal/contact"
	"github.com/arsarazi/realty/internal/customer"
)

func newContactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Work with contact form submissions",
	}
	cmd.AddCommand(
		newContactsListCmd(),
		newContactsStatusCmd(),
		newContactsStatsCmd(),
		newContactsSendCmd(),
	)
	return cmd
}

func newContactsListCmd() *cobra.Command {
	var opts contact.ListOptions
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submissions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Status = contact.Status(status)
			if status != "" && status != "all" && !opts.Status.IsValid() {
				return fmt.Errorf("status must be all, new, responded or closed")
			}

			page, err := newAPIClient().ListContacts(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, page)
			}
			if err := printContactTable(out, page.Items); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nPage %d of %d. new: %d, responded: %d, closed: %d\n",
				page.Page, page.TotalPages,
				page.Counts[contact.New], page.Counts[contact.Responded], page.Counts[contact.Closed])
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (all|new|responded|closed)")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "page size (default 20)")
	return cmd
}

func newContactsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <new|responded|closed>",
		Short: "Change the status of a submission",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePropertyID(args[0])
			if err != nil {
				return fmt.Errorf("invalid submission ID: %s", args[0])
			}
			status := contact.Status(strings.ToLower(args[1]))
			if !status.IsValid() {
				return fmt.Errorf("status must be new, responded or closed")
			}

			s, err := newAPIClient().SetContactStatus(cmd.Context(), id, status)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), s)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submission #%d is now %s.\n", s.ID, s.Status)
			return nil
		},
	}
}

func newContactsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show submission counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newAPIClient().ContactStats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, st)
			}
			fmt.Fprintf(out, "Total:        %d\n", st.Total)
			fmt.Fprintf(out, "Last 7 days:  %d\n", st.Recent)

			byStatus := make(map[string]int, len(st.ByStatus))
			for k, v := range st.ByStatus {
				byStatus[string(k)] = v
			}
			printCounts(out, "By status", byStatus)

			bySubject := make(map[string]int, len(st.BySubject))
			for k, v := range st.BySubject {
				bySubject[k.Label()] = v
			}
			printCounts(out, "By subject", bySubject)
			return nil
		},
	}
}

func newContactsSendCmd() *cobra.Command {
	var (
		in         contact.Submission
		subject    string
		propertyID int64
	)

	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Submit the contact form",
		Long:  "Submit the contact form as a visitor would, e.g. to log a phone call.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Message = strings.Join(args, " ")
			in.Subject = contact.Subject(subject)
			if propertyID > 0 {
				in.PropertyID = &propertyID
			}

			saved, err := newAPIClient().SubmitContact(cmd.Context(), &in)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), saved)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submission #%d recorded (%s).\n", saved.ID, saved.Subject.Label())
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "visitor name")
	cmd.Flags().StringVar(&in.Email, "email", "", "visitor email")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "visitor phone")
	cmd.Flags().StringVar(&subject, "subject", string(contact.Other), "subject (property_search|price_info|appointment|valuation|other)")
	cmd.Flags().Int64Var(&propertyID, "property", 0, "listing the message is about")
	return cmd
}

func newCustomersCmd() *cobra.Command {
	var (
		opts   customer.ListOptions
		typ    string
		status string
	)

	cmd := &cobra.Command{
		Use:   "customers",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Type = customer.Type(typ)
			opts.Status = customer.Status(status)
			if typ != "" && !opts.Type.IsValid() {
				return fmt.Errorf("unknown customer type %q", typ)
			}
			if status != "" && !opts.Status.IsValid() {
				return fmt.Errorf("unknown customer status %q", status)
			}

			page, err := newAPIClient().ListCustomers(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, page)
			}
			if err := printCustomerTable(out, page.Items); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nPage %d of %d, %d customers\n", page.Page, page.TotalPages, page.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Search, "search", "", "text to find in name, email or phone")
	cmd.Flags().StringVar(&typ, "type", "", "customer type")
	cmd.Flags().StringVar(&status, "status", "", "customer status (active|inactive|new|converted)")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "page size (default 20)")
	return cmd
}
