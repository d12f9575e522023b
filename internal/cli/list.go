package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored events ordered by start time",
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := svc.List(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUID\tSTART\tEND\tCADENCE\tLEAD\tTITLE")
		for _, e := range events {
			loc := zones.Location(e.Timezone)
			lead := "-"
			if e.ReminderLead != nil {
				lead = fmt.Sprintf("%dm", *e.ReminderLead)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.UID,
				e.Start.In(loc).Format("2006-01-02 15:04"),
				e.End.In(loc).Format("2006-01-02 15:04"),
				e.Cadence.String(), lead, e.Title)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
