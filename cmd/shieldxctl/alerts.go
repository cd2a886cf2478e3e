package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	alertsCmd := &cobra.Command{Use: "alerts", Short: "Alert history operations"}

	listCmd := &cobra.Command{
		Use:   "list USER_ID",
		Short: "List alert history for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("/api/sos/history/%s", args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	alertsCmd.AddCommand(listCmd)

	rootCmd.AddCommand(alertsCmd)
}
