package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	sosCmd := &cobra.Command{Use: "sos", Short: "SOS operations"}

	var user string
	var lat, lng float64
	var contacts []string
	triggerCmd := &cobra.Command{
		Use:   "trigger",
		Short: "Trigger a manual SOS",
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				return fmt.Errorf("--user required")
			}
			if len(contacts) == 0 {
				return fmt.Errorf("--contact required at least once")
			}
			data, err := doPostJSON("/api/sos", map[string]interface{}{
				"userId":    user,
				"latitude":  lat,
				"longitude": lng,
				"contacts":  contacts,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	triggerCmd.Flags().StringVarP(&user, "user", "u", "", "User ID (required)")
	triggerCmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	triggerCmd.Flags().Float64Var(&lng, "lng", 0, "Longitude")
	triggerCmd.Flags().StringArrayVarP(&contacts, "contact", "c", nil, "Emergency contact (repeatable)")
	_ = triggerCmd.MarkFlagRequired("user")
	sosCmd.AddCommand(triggerCmd)

	rootCmd.AddCommand(sosCmd)
}
