package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteUID string

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete an event and its entire series",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := svc.GetByUID(cmd.Context(), deleteUID)
		if err != nil {
			return fmt.Errorf("event %s: %w", deleteUID, err)
		}
		if err := svc.DeleteSeries(cmd.Context(), *e); err != nil {
			return err
		}
		fmt.Printf("deleted series %s\n", deleteUID)
		return nil
	},
}

func init() {
	deleteCmd.Flags().StringVar(&deleteUID, "uid", "", "uid of any occurrence of the series (required)")
	_ = deleteCmd.MarkFlagRequired("uid")
	rootCmd.AddCommand(deleteCmd)
}
