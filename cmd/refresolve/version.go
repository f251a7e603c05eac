package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of refresolve",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("refresolve %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
