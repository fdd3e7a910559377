package cli

import (
	"github.com/spf13/cobra"

	"stageport.dev/stageport/internal/runtime"
	"stageport.dev/stageport/internal/tui"
)

// newPlayCmd creates the play command
func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Drive portals interactively in a terminal playground",
		Long: `Open an interactive playground with a few containers and portals.

Select a portal to retarget it, change its priority, dispose and reopen it, or
tear down and remount its destination. One loop tick runs per frame, so
deferred mounts become visible on the next frame.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return tui.RunPlayground(ctx)
		},
	}

	return cmd
}
