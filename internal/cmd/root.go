// Package cmd implements the complyscan command line.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Every call returns an independent tree
// with its own flag set.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "complyscan",
		Short: "Rule-based regulatory compliance auditing for source repositories",
		Long: `complyscan audits a source repository against AI regulation obligations.

Cheap deterministic checks run first (file presence, document structure,
dependency manifests, code patterns). Findings whose confidence lands in the
uncertain band are escalated to an LLM judge, and everything is reduced to a
weighted 0-100 score with a red, yellow or green risk zone.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")
	flags.Bool("trace", false, "log finished trace spans (implies --log-level debug)")
	flags.Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(
		newScanCmd(),
		newPolicyCmd(),
		newRulesCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// ExecuteContext runs the root command with ctx, which cancels a running scan
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
