package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "opcmd",
	Short: "opcmd is an op-string command layer for agent-driven tools",
	Long: `opcmd parses compact op strings into structured operations and runs them
against a domain model with event-sourced undo, redo and checkpoints.
It ships a reference diagram domain, served over MCP or an interactive shell.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
}
