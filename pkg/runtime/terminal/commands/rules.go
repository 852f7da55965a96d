package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/de-tools/compose-audit/pkg/services/audit"
	"github.com/spf13/cobra"
)

func NewRulesCmd(auditor *audit.Auditor) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the registered security rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY")
			for _, info := range auditor.Rules() {
				fmt.Fprintf(w, "%s\t%s\n", info.ID, info.Category)
			}
			return w.Flush()
		},
	}
}
