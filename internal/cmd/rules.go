package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/complyscan/internal/rules"
)

func newRulesCmd() *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "List the built-in rules",
		Long: `List every registered rule with its layer, category, severity and
regulatory reference. Rule ids can be disabled under rules.disabled in the policy.`,
		Args: cobra.NoArgs,
		RunE: runRules,
	}
	rulesCmd.Flags().Bool("json", false, "output rules as JSON")
	return rulesCmd
}

func runRules(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	reg, err := rules.Default()
	if err != nil {
		return err
	}
	metas := reg.Metas()

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(metas)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLAYER\tCATEGORY\tSEVERITY\tARTICLE")
	for _, m := range metas {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.ID, m.Layer, m.Category, m.Severity, m.Article)
	}
	return tw.Flush()
}
