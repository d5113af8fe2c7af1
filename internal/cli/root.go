// Package cli is the command surface of the scanner binary.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"arb-profit-bot/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "arb-profit-bot",
	Short: "Scan marketplace price sheets for profitable flips",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		app.SetupEnvironment()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(versionCmd)
}
