package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	editUID         string
	editTitle       string
	editDescription string
	editLocation    string
	editStart       string
	editEnd         string
	editLead        int
	editNoLead      bool
	editCadence     int
	editRings       bool
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit an event; the whole series is regenerated",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := svc.GetByUID(cmd.Context(), editUID)
		if err != nil {
			return fmt.Errorf("event %s: %w", editUID, err)
		}
		loc := zones.Location(e.Timezone)

		flags := cmd.Flags()
		if flags.Changed("title") {
			e.Title = editTitle
		}
		if flags.Changed("description") {
			e.Description = editDescription
		}
		if flags.Changed("location") {
			e.Location = editLocation
		}
		if flags.Changed("start") {
			if e.Start, err = parseWhen(editStart, loc); err != nil {
				return err
			}
		}
		if flags.Changed("end") {
			if e.End, err = parseWhen(editEnd, loc); err != nil {
				return err
			}
		}
		if flags.Changed("ring") {
			e.RingsAloud = editRings
		}
		e.NormalizeRange()

		lead := e.ReminderLead
		if flags.Changed("lead") {
			lead = &editLead
		}
		if editNoLead {
			lead = nil
		}

		cadence := e.Cadence.Code()
		if flags.Changed("cadence") {
			cadence = editCadence
		}

		id, err := svc.SaveSeries(cmd.Context(), *e, lead, cadence)
		if err != nil {
			return err
		}
		fmt.Printf("updated event %d (uid %s)\n", id, e.UID)
		return nil
	},
}

func init() {
	editCmd.Flags().StringVar(&editUID, "uid", "", "uid of the event to edit (required)")
	editCmd.Flags().StringVar(&editTitle, "title", "", "event title")
	editCmd.Flags().StringVar(&editDescription, "description", "", "event description")
	editCmd.Flags().StringVar(&editLocation, "location", "", "event location")
	editCmd.Flags().StringVar(&editStart, "start", "", "start time")
	editCmd.Flags().StringVar(&editEnd, "end", "", "end time")
	editCmd.Flags().IntVar(&editLead, "lead", 0, "reminder lead in minutes")
	editCmd.Flags().BoolVar(&editNoLead, "no-lead", false, "remove the reminder")
	editCmd.Flags().IntVar(&editCadence, "cadence", 0, "recurrence: 0=none 1=daily 7=weekly 30=monthly")
	editCmd.Flags().BoolVar(&editRings, "ring", false, "ring aloud when the reminder fires")
	_ = editCmd.MarkFlagRequired("uid")
	rootCmd.AddCommand(editCmd)
}
