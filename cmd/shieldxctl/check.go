package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	checkCmd := &cobra.Command{Use: "check", Short: "Security check operations"}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the pending security challenge, if any",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/api/security-check/status")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	checkCmd.AddCommand(statusCmd)

	initiateCmd := &cobra.Command{
		Use:   "initiate",
		Short: "Issue a security challenge to eligible users now",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doPostJSON("/api/security-check/initiate", nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	checkCmd.AddCommand(initiateCmd)

	var user, code string
	var contacts []string
	respondCmd := &cobra.Command{
		Use:   "respond",
		Short: "Answer the pending security challenge",
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" || code == "" {
				return fmt.Errorf("--user and --code required")
			}
			payload := map[string]interface{}{
				"userEmail": user,
				"code":      code,
			}
			if len(contacts) > 0 {
				payload["emergencyContacts"] = contacts
			}
			data, err := doPostJSON("/api/security-check/respond", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	respondCmd.Flags().StringVarP(&user, "user", "u", "", "User email (required)")
	respondCmd.Flags().StringVarP(&code, "code", "p", "", "Security code (required)")
	respondCmd.Flags().StringArrayVarP(&contacts, "contact", "c", nil, "Override emergency contact (repeatable)")
	_ = respondCmd.MarkFlagRequired("user")
	_ = respondCmd.MarkFlagRequired("code")
	checkCmd.AddCommand(respondCmd)

	rootCmd.AddCommand(checkCmd)
}
