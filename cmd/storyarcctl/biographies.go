package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	biosCmd := &cobra.Command{Use: "biographies", Short: "Biography operations"}

	listCmd := &cobra.Command{
		Use:   "list USER_ID",
		Short: "List a user's biographies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/users/%s/biographies", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	biosCmd.AddCommand(listCmd)

	getCmd := &cobra.Command{
		Use:   "get USER_ID BIOGRAPHY_ID",
		Short: "Fetch one biography",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/users/%s/biographies/%s", apiFlag, args[0], args[1]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	biosCmd.AddCommand(getCmd)

	rootCmd.AddCommand(biosCmd)
}
