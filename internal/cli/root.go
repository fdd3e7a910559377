package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stageport.dev/stageport/internal/runtime"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	var opts runtime.Options

	rootCmd := &cobra.Command{
		Use:   "stageport",
		Short: "Stageport relocates content between named containers and replays scene scripts",
		Long: `Stageport relocates content declared in one place of a tree into a named
container elsewhere, keeping a stable draw order per container.

Replay a scene script to watch the relocation engine work step by step, or
open the playground to drive portals interactively.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.Writer = cmd.OutOrStdout()
			rt, err := runtime.Load(opts)
			if err != nil {
				return err
			}
			cmd.SetContext(runtime.WithContext(cmd.Context(), rt))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return nil
			}
			return rt.Close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to a config file (default ~/.config/stageport/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Show debug output")
	rootCmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "Also write logs to this file")

	// Add subcommands
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	return rootCmd
}
