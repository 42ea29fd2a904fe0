package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ga-procurement",
	Short: "Procurement workflow API server",
	Long: `GA Procurement is a REST API server for the material request and
purchase order workflow: multi-stage approvals, cost center budgets
and goods receipt closure.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
