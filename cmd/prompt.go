package cmd

import (
	"strconv"

	"github.com/charmbracelet/huh"
)

// runSection shows one wizard page with help hints at the bottom.
func runSection(title string, fields ...huh.Field) error {
	return huh.NewForm(huh.NewGroup(fields...).Title(title)).WithShowHelp(true).Run()
}

// textField edits *value in place; the current value is the default.
func textField(title, description string, value *string) *huh.Input {
	in := huh.NewInput().Title(title).Value(value)
	if description != "" {
		in = in.Description(description)
	}
	return in
}

// secretField never shows the stored secret; an empty answer keeps it.
func secretField(title string, value *string) *huh.Input {
	return huh.NewInput().
		Title(title).
		Description("Leave empty to keep the current value").
		EchoMode(huh.EchoModePassword).
		Value(value)
}

func portField(title string, value *string) *huh.Input {
	return textField(title, "", value).Validate(func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 65535 {
			return errInvalidPort
		}
		return nil
	})
}

func choiceField(title string, value *string, options ...huh.Option[string]) *huh.Select[string] {
	return huh.NewSelect[string]().Title(title).Options(options...).Value(value)
}

func yesNoField(title string, value *bool) *huh.Confirm {
	return huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(value)
}

// promptConfirm asks a single yes/no question.
func promptConfirm(title string, defaultYes bool) (bool, error) {
	value := defaultYes
	err := huh.NewForm(huh.NewGroup(yesNoField(title, &value))).Run()
	return value, err
}
