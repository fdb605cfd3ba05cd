package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"clearline-hq/verdict/pkg/policy/flex"
	"clearline-hq/verdict/pkg/policy/source"
)

var evalFlags struct {
	policyFile string
	intentFile string
	format     string
}

// evalInput is the YAML document accepted by --intent.
type evalInput struct {
	Intent   flex.Intent   `yaml:"intent"`
	Spending flex.Spending `yaml:"spending"`
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate one intent against a policy file",
	Long: `Evaluate a single payment intent offline, without a server or ledger.

The intent file carries the payment and, optionally, the spending
totals to evaluate against:

  intent:
    amount: 2500
    vendor: acme-air
    category: flights
    timestamp: 1700000000
    ai_confidence: 95
  spending:
    today: 1200
    week: 8000

Examples:
  # Human-readable result
  verdict eval --policy policy.yaml --intent intent.yaml

  # JSON for scripting
  verdict eval --policy policy.yaml --intent intent.yaml --format json`,
	RunE: evalIntent,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalFlags.policyFile, "policy", "p", "", "policy file (required)")
	evalCmd.Flags().StringVarP(&evalFlags.intentFile, "intent", "i", "", "intent file (required)")
	evalCmd.Flags().StringVar(&evalFlags.format, "format", "text", "output format: text, json")
	_ = evalCmd.MarkFlagRequired("policy")
	_ = evalCmd.MarkFlagRequired("intent")
}

func evalIntent(cmd *cobra.Command, args []string) error {
	policyData, err := os.ReadFile(evalFlags.policyFile)
	if err != nil {
		return fmt.Errorf("failed to read policy file: %w", err)
	}
	policy, err := source.Parse(policyData)
	if err != nil {
		return fmt.Errorf("invalid policy file %q: %w", evalFlags.policyFile, err)
	}

	intentData, err := os.ReadFile(evalFlags.intentFile)
	if err != nil {
		return fmt.Errorf("failed to read intent file: %w", err)
	}
	var input evalInput
	if err := yaml.Unmarshal(intentData, &input); err != nil {
		return fmt.Errorf("invalid intent file %q: %w", evalFlags.intentFile, err)
	}
	if input.Intent.Amount == 0 {
		return fmt.Errorf("intent.amount must be positive")
	}

	eval := flex.Evaluate(&input.Intent, &policy.Rules, input.Spending)

	switch evalFlags.format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(eval)
	case "text":
		if eval.Approved {
			fmt.Printf("APPROVED (policy %s", policy.Name)
			if policy.Version != "" {
				fmt.Printf(" v%s", policy.Version)
			}
			fmt.Println(")")
		} else {
			fmt.Printf("REJECTED (policy %s, %d violations)\n", policy.Name, eval.ViolationCount)
			for _, v := range eval.Violations {
				fmt.Printf("  - %s\n", v)
			}
		}
		fmt.Printf("Risk score: %d/100\n", eval.RiskScore)
		fmt.Printf("Policy fingerprint: %s\n", hex.EncodeToString(eval.PolicyFingerprint[:]))
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", evalFlags.format)
	}
}
