package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stageport.dev/stageport/internal/runtime"
)

// newConfigCmd creates the config command
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the effective configuration after defaults, the config file and
STAGEPORT_* environment overrides have been applied.

Examples:
  stageport config
  STAGEPORT_MANAGER_COMMIT_STRATEGY=next-tick stageport config
  stageport --config ./stageport.yaml config`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			for _, line := range ctx.Config.Lines() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
					return err
				}
			}
			return nil
		},
	}

	return cmd
}
