// Command elara-cli is the operator-facing companion to elara-node:
// identity management, status queries, and provenance lookups.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "elara-cli",
	Short: "Operator CLI for the Elara network node",
}

func init() {
	rootCmd.AddCommand(identityCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(provenanceCmd)
}
