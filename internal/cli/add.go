package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"caldesk/internal/model"
)

var (
	addTitle       string
	addDescription string
	addLocation    string
	addStart       string
	addEnd         string
	addZone        string
	addLead        int
	addCadence     int
	addRings       bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an event (optionally recurring)",
	RunE: func(cmd *cobra.Command, args []string) error {
		zone := addZone
		if zone == "" {
			zone = cfg.Timezone
		}
		loc := zones.Location(zone)

		start, err := parseWhen(addStart, loc)
		if err != nil {
			return err
		}

		e := model.Event{
			UID:         uuid.NewString(),
			Title:       addTitle,
			Description: addDescription,
			Location:    addLocation,
			Start:       start,
			End:         start,
			Timezone:    zone,
			RingsAloud:  addRings,
		}
		if addEnd != "" {
			if e.End, err = parseWhen(addEnd, loc); err != nil {
				return err
			}
		}
		// Editor-side invariant: a non-positive range is bumped to one hour.
		e.NormalizeRange()

		var lead *int
		if cmd.Flags().Changed("lead") {
			lead = &addLead
		}

		id, err := svc.SaveSeries(cmd.Context(), e, lead, addCadence)
		if err != nil {
			return err
		}
		fmt.Printf("created event %d (uid %s)\n", id, e.UID)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addTitle, "title", "", "event title (required)")
	addCmd.Flags().StringVar(&addDescription, "description", "", "event description")
	addCmd.Flags().StringVar(&addLocation, "location", "", "event location")
	addCmd.Flags().StringVar(&addStart, "start", "", "start time, e.g. \"2024-06-03 09:00\" (required)")
	addCmd.Flags().StringVar(&addEnd, "end", "", "end time; defaults to start + 1h")
	addCmd.Flags().StringVar(&addZone, "zone", "", "IANA timezone (defaults to the configured zone)")
	addCmd.Flags().IntVar(&addLead, "lead", 0, "reminder lead in minutes")
	addCmd.Flags().IntVar(&addCadence, "cadence", 0, "recurrence: 0=none 1=daily 7=weekly 30=monthly")
	addCmd.Flags().BoolVar(&addRings, "ring", false, "ring aloud when the reminder fires")
	_ = addCmd.MarkFlagRequired("title")
	_ = addCmd.MarkFlagRequired("start")
	rootCmd.AddCommand(addCmd)
}
