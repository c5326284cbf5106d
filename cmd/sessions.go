package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent Lightning sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		records, err := st.ListSessions(ctx, sessionsLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTEP\tIDENTIFIER\tUPDATED")
		for _, rec := range records {
			identifier := rec.Inputs.Website
			if identifier == "" {
				identifier = rec.Inputs.Email
			}
			if identifier == "" {
				identifier = rec.Inputs.LinkedIn
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				rec.ID, rec.Step, identifier, rec.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

func init() {
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "maximum sessions to list")
	rootCmd.AddCommand(sessionsCmd)
}
