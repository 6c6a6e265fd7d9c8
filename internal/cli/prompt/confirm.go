// Package prompt provides interactive terminal prompts for CLI commands.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// Confirm prompts the user for yes/no confirmation.
// An empty answer takes the default; Ctrl+C returns ErrAborted.
func Confirm(label string, defaultYes bool) (bool, error) {
	hint := "y/N"
	if defaultYes {
		hint = "Y/n"
	}

	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("%s [%s]", label, hint),
		IsConfirm: true,
	}

	result, err := prompt.Run()
	if errors.Is(err, promptui.ErrInterrupt) {
		return false, ErrAborted
	}
	if errors.Is(err, promptui.ErrAbort) {
		// promptui reports any non-"y" answer as ErrAbort, including
		// an empty one, which should fall back to the default.
		if result == "" {
			return defaultYes, nil
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return strings.EqualFold(result, "y"), nil
}

// ConfirmWithForce returns true immediately if force is true,
// otherwise prompts for confirmation.
func ConfirmWithForce(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	return Confirm(label, false)
}
