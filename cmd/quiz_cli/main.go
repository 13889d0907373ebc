// Package main implements quiz_cli, the terminal front end for the RIASEC career quiz.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quiz_cli",
	Short: "RIASEC career quiz in the terminal",
	Long:  "quiz_cli runs the adaptive RIASEC interest quiz interactively, scores the answers and asks the text completion service for career recommendations.",
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
