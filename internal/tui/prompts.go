package tui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
)

// ErrInteractiveDisabled is returned when interactive prompts are disabled via STAGEPORT_TEST_NO_INTERACTIVE
var ErrInteractiveDisabled = fmt.Errorf("interactive prompts are disabled (STAGEPORT_TEST_NO_INTERACTIVE is set)")

// checkInteractiveAllowed returns an error if interactive mode is disabled for testing
func checkInteractiveAllowed() error {
	if os.Getenv("STAGEPORT_TEST_NO_INTERACTIVE") != "" {
		return ErrInteractiveDisabled
	}
	return nil
}

// PromptScript asks the user to pick one of the given script paths
func PromptScript(paths []string) (string, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("no scene scripts found")
	}
	if len(paths) == 1 {
		return paths[0], nil
	}

	options := make([]string, len(paths))
	for i, p := range paths {
		options[i] = filepath.Base(p)
	}

	var selected int
	prompt := &survey.Select{
		Message: "Which scene do you want to replay?",
		Options: options,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}
	return paths[selected], nil
}
