package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	var style string
	var includeMedia, includeSentiment bool

	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a biography generation job",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user required")
			}
			payload := map[string]interface{}{
				"userId": userFlag,
				"style":  style,
				"options": map[string]interface{}{
					"includeMedia":     includeMedia,
					"includeSentiment": includeSentiment,
				},
			}
			data, err := doPostJSON(apiFlag+"/api/biographies", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	submitCmd.Flags().StringVarP(&userFlag, "user", "u", "", "User ID (required)")
	submitCmd.Flags().StringVarP(&style, "style", "s", "CHRONOLOGICAL", "Narrative style")
	submitCmd.Flags().BoolVar(&includeMedia, "media", true, "Place media in chapters")
	submitCmd.Flags().BoolVar(&includeSentiment, "sentiment", true, "Run sentiment analysis")
	_ = submitCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(submitCmd)

	statusCmd := &cobra.Command{
		Use:   "status JOB_ID",
		Short: "Show the status of a generation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/jobs/%s", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	rootCmd.AddCommand(statusCmd)
}
