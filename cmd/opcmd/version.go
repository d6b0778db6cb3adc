package main

import (
	"fmt"

	"github.com/aretw0/opcmd"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of opcmd",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("opcmd version %s\n", opcmd.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
