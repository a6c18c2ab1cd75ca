package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	var period string

	moodCmd := &cobra.Command{
		Use:   "mood USER_ID",
		Short: "Show a user's mood timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/users/%s/mood?period=%s", apiFlag, args[0], period))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	moodCmd.Flags().StringVarP(&period, "period", "p", "weekly", "Bucket period: daily, weekly, monthly")
	rootCmd.AddCommand(moodCmd)
}
