package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCmd creates the "validate" subcommand.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and operation signatures",
		RunE:  runValidate,
	}

	cmd.Flags().String("config", "", "Path to agentbridge.yaml")

	return cmd
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfigFromFlags(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return exitError(exitConfig, "invalid config: %v", err)
	}

	registry, err := cfg.BuildRegistry()
	if err != nil {
		return exitError(exitConfig, "invalid signatures: %v", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Config OK: %d operation(s)\n", len(registry.OperationIDs()))
	return nil
}
