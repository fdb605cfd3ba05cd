package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "verdict",
	Short: "Deterministic payment-policy decision service",
	Long: `Verdict evaluates payment intents against named spending policies.

Each decision applies the policy's rules in a fixed order (per-payment,
daily and weekly limits, vendor allow-list, category caps, conditional
rules, AI confidence, hour window, weekday) and reports the outcome
together with a risk score and every rule that fired. Daily and weekly
spending totals are kept in a local ledger so limits hold across
requests.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
