package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"stageport.dev/stageport/internal/canvas"
	sperrors "stageport.dev/stageport/internal/errors"
	"stageport.dev/stageport/internal/runtime"
	"stageport.dev/stageport/internal/script"
	"stageport.dev/stageport/internal/tui"
)

// scriptExtensions are the file types replay discovers
var scriptExtensions = []string{".yaml", ".yml", ".toml"}

// newReplayCmd creates the replay command
func newReplayCmd() *cobra.Command {
	var (
		trace    bool
		metrics  bool
		strategy string
	)

	cmd := &cobra.Command{
		Use:   "replay [script]",
		Short: "Replay a scene script and check its expectations",
		Long: `Replay a scene script against a fresh stage and print the final tree.

Without an argument, the scripts in the current directory are offered in a
prompt. The command fails when any expectation in the script does not hold.

Examples:
  stageport replay examples/tooltip.yaml
  stageport replay --strategy next-tick --trace examples/reparent.toml`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return scriptExtensionsNoDot(), cobra.ShellCompDirectiveFilterFileExt
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}

			path := ""
			if len(args) > 0 {
				path = args[0]
			} else if path, err = chooseScript("."); err != nil {
				return err
			}

			s, err := script.Load(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			opts := script.Options{Strategy: strategy}
			if trace {
				opts.Trace = func(step int, desc, snapshot string) {
					_, _ = fmt.Fprintf(out, "%s %s\n", canvas.ColorDim(fmt.Sprintf("step %d:", step)), desc)
					printIndented(out, snapshot)
				}
			}

			report, err := script.NewRunner(ctx).Run(s, opts)
			if err != nil {
				return err
			}
			return printReport(ctx, out, report, metrics)
		},
	}

	cmd.Flags().BoolVar(&trace, "trace", false, "Print the tree after every step")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Print the stage metrics after the run")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Override the commit strategy (immediate, next-tick, debounced)")

	return cmd
}

func printReport(ctx *runtime.Context, out io.Writer, report *script.Report, metrics bool) error {
	_, _ = fmt.Fprintln(out, report.Snapshot)

	for _, w := range report.Warnings() {
		ctx.Splog.Warn("%s", canvas.ColorYellow(w))
	}
	for _, f := range report.Failures {
		ctx.Splog.Error("%s", f.Error())
	}

	if metrics {
		_, _ = fmt.Fprintln(out)
		for _, line := range report.Metrics {
			_, _ = fmt.Fprintln(out, line)
		}
	}

	if !report.OK() {
		ctx.Splog.Info("%s", canvas.ColorRed(report.Summary()))
		return fmt.Errorf("%w: %d in %s", sperrors.ErrExpectationFailed, len(report.Failures), report.Name)
	}
	ctx.Splog.Info("%s", report.Summary())
	return nil
}

// chooseScript picks a script from dir, prompting when there is more than one
func chooseScript(dir string) (string, error) {
	paths, err := findScripts(dir)
	if err != nil {
		return "", err
	}
	switch {
	case len(paths) == 0:
		return "", fmt.Errorf("no scene scripts (%s) found in %s", strings.Join(scriptExtensions, ", "), dir)
	case len(paths) == 1:
		return paths[0], nil
	case !tui.IsTTY():
		return "", fmt.Errorf("found %d scene scripts; pass one as an argument", len(paths))
	}
	return tui.PromptScript(paths)
}

// findScripts lists the script files in dir, sorted by name
func findScripts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if slices.Contains(scriptExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(paths)
	return paths, nil
}

func scriptExtensionsNoDot() []string {
	out := make([]string, len(scriptExtensions))
	for i, ext := range scriptExtensions {
		out[i] = strings.TrimPrefix(ext, ".")
	}
	return out
}

func printIndented(out io.Writer, text string) {
	for _, line := range strings.Split(text, "\n") {
		_, _ = fmt.Fprintf(out, "  %s\n", line)
	}
}
