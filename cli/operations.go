package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewOperationsCmd creates the "operations" subcommand.
func NewOperationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operations",
		Short: "List the operations the bridge can invoke",
		RunE:  runOperations,
	}

	cmd.Flags().String("config", "", "Path to agentbridge.yaml")

	return cmd
}

func runOperations(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfigFromFlags(cmd)
	if err != nil {
		return err
	}

	registry, err := cfg.BuildRegistry()
	if err != nil {
		return exitError(exitConfig, "building registry: %v", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OPERATION\tTOOL\tPARAMETERS")
	for _, id := range registry.OperationIDs() {
		sig, ok := registry.Resolve(id)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", id, sig.ToolID, len(sig.Parameters))
	}
	return w.Flush()
}
