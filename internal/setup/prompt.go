package setup

import (
	"context"

	"github.com/charmbracelet/huh"
)

// Choice is one option of a Select prompt.
type Choice struct {
	Label string
	Value string
}

// Prompter asks the user questions. Implementations return huh.ErrUserAborted
// when the user cancels.
type Prompter interface {
	Confirm(ctx context.Context, title string, initial bool) (bool, error)
	Select(ctx context.Context, title string, choices []Choice) (string, error)
	Input(ctx context.Context, title, placeholder string, validate func(string) error) (string, error)
}

// HuhPrompter renders prompts as huh forms on the terminal.
type HuhPrompter struct{}

func (HuhPrompter) Confirm(ctx context.Context, title string, initial bool) (bool, error) {
	value := initial
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Yes").
			Negative("No").
			Value(&value),
	))
	if err := form.RunWithContext(ctx); err != nil {
		return false, err
	}
	return value, nil
}

func (HuhPrompter) Select(ctx context.Context, title string, choices []Choice) (string, error) {
	options := make([]huh.Option[string], 0, len(choices))
	for _, c := range choices {
		options = append(options, huh.NewOption(c.Label, c.Value))
	}

	var value string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title(title).
			Options(options...).
			Value(&value),
	))
	if err := form.RunWithContext(ctx); err != nil {
		return "", err
	}
	return value, nil
}

func (HuhPrompter) Input(ctx context.Context, title, placeholder string, validate func(string) error) (string, error) {
	var value string
	input := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(&value)
	if validate != nil {
		input = input.Validate(validate)
	}
	if err := huh.NewForm(huh.NewGroup(input)).RunWithContext(ctx); err != nil {
		return "", err
	}
	return value, nil
}
