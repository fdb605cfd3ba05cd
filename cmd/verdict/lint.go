package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"clearline-hq/verdict/pkg/policy/source"
)

var lintFlags struct {
	file string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate policy files",
	Long: `Validate policy files for syntax and structural errors.

The lint command parses each policy document and reports YAML syntax
errors, unknown fields, and missing required fields.

Examples:
  # Lint a single file
  verdict lint --file policy.yaml

  # Lint a directory of policies
  verdict lint --file policies/`,
	RunE: lintPolicies,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "policy file or directory (required)")
	_ = lintCmd.MarkFlagRequired("file")
}

func lintPolicies(cmd *cobra.Command, args []string) error {
	info, err := os.Stat(lintFlags.file)
	if err != nil {
		return err
	}

	var files []string
	if info.IsDir() {
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(lintFlags.file, pattern))
			if err != nil {
				return err
			}
			files = append(files, matches...)
		}
		if len(files) == 0 {
			return fmt.Errorf("no policy files found in %s", lintFlags.file)
		}
	} else {
		files = []string{lintFlags.file}
	}

	failed := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			fmt.Printf("✗ %s: %v\n", file, err)
			failed++
			continue
		}
		policy, err := source.Parse(data)
		if err != nil {
			fmt.Printf("✗ %s: %v\n", file, err)
			failed++
			continue
		}
		fmt.Printf("✓ %s: policy %q", file, policy.Name)
		if policy.Version != "" {
			fmt.Printf(" (version %s)", policy.Version)
		}
		fmt.Println()
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d policy files failed validation", failed, len(files))
	}
	fmt.Printf("\nAll %d policy files valid\n", len(files))
	return nil
}
