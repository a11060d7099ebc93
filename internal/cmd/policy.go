package cmd

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/complyscan/internal/errors"
	"github.com/felixgeelhaar/complyscan/internal/policy"
)

func newPolicyCmd() *cobra.Command {
	policyCmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage the scan policy",
		Long: `Create, inspect and validate the scan policy.

The policy sets category weights and the critical cap used for scoring, the
confidence band and budget used for escalation, and the confidence model.

Subcommands:
  init      Write the default policy
  show      Print the effective policy
  validate  Check a policy file

Examples:
  complyscan policy init
  complyscan policy show --policy ci/policy.yaml
  complyscan policy validate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	policyCmd.PersistentFlags().String("policy", policy.DefaultPath, "policy file")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default policy file",
		Args:  cobra.NoArgs,
		RunE:  runPolicyInit,
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing policy file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective policy as YAML",
		Long: `Print the effective policy. Fields missing from the file are shown with
their default values; without a policy file the built-in policy is shown.`,
		Args: cobra.NoArgs,
		RunE: runPolicyShow,
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a policy file",
		Args:  cobra.NoArgs,
		RunE:  runPolicyValidate,
	}

	policyCmd.AddCommand(initCmd, showCmd, validateCmd)
	return policyCmd
}

func runPolicyInit(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("policy")
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.ErrCodeFileWriteFailed, fmt.Sprintf("policy file already exists: %s", path)).
			WithSuggestion("Use --force to overwrite it")
	}

	if err := policy.SavePolicy(policy.DefaultPolicy(), path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Policy written to %s\n", path)
	return nil
}

func runPolicyShow(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("policy")

	pol, err := policy.LoadPolicy(path)
	if err != nil {
		if errors.CodeOf(err) != errors.ErrCodePolicyNotFound || cmd.Flags().Changed("policy") {
			return err
		}
		pol = policy.DefaultPolicy()
		fmt.Fprintf(cmd.ErrOrStderr(), "# %s not found, showing the built-in policy\n", path)
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(pol)
}

func runPolicyValidate(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("policy")

	pol, err := policy.LoadPolicy(path)
	if err != nil {
		return err
	}

	if err := pol.Validate(); err != nil {
		var msgs []string
		for _, e := range unjoin(err) {
			msgs = append(msgs, firstLine(e.Error()))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✗ %s has %d problem(s):\n", path, len(msgs))
		for _, m := range msgs {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", m)
		}
		return errors.NewPolicyInvalidError(strings.Join(msgs, "; "))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid\n", path)
	return nil
}

// unjoin splits an errors.Join result into its parts
func unjoin(err error) []error {
	var j interface{ Unwrap() []error }
	if stderrors.As(err, &j) {
		return j.Unwrap()
	}
	return []error{err}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
