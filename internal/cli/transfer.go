package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var importOverwrite bool

var importCmd = &cobra.Command{
	Use:   "import <file.ics>",
	Short: "Import events from an iCalendar file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		res := svc.Import(cmd.Context(), string(data), importOverwrite)
		fmt.Printf("total %d, imported %d, skipped %d\n", res.Total, res.Imported, res.Skipped)
		for _, msg := range res.Errors {
			fmt.Fprintf(os.Stderr, "error: %s\n", msg)
		}
		return nil
	},
}

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all events as an iCalendar document",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := svc.Export(cmd.Context())
		if err != nil {
			return err
		}
		if exportOut == "" {
			fmt.Print(text)
			return nil
		}
		return os.WriteFile(exportOut, []byte(text), 0o644)
	},
}

func init() {
	importCmd.Flags().BoolVar(&importOverwrite, "overwrite", false, "replace stored events on uid conflicts")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}
