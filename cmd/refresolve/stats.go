// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refresolve/internal/recordstore"
)

var statsCmd = &cobra.Command{
	Use:   "stats <records-file>",
	Short: "Print coverage statistics for a records file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := loadRecords(args[0])
		if err != nil {
			return err
		}
		s := recordstore.ComputeStats(file.References)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}
		recordstore.FormatStats(os.Stdout, s)
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("json", false, "output statistics as JSON")

	rootCmd.AddCommand(statsCmd)
}
