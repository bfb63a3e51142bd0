package terminal

import (
	"io"

	"github.com/manifoldco/promptui"
)

// asker is the interactive input the shell needs. promptAsker backs it with promptui.
type asker interface {
	Select(label string, items []string) (int, error)
	Input(label string, validate func(string) error) (string, error)
}

type promptAsker struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (p *promptAsker) Select(label string, items []string) (int, error) {
	sel := promptui.Select{
		Label:    label,
		Items:    items,
		Stdin:    p.in,
		Stdout:   p.out,
		HideHelp: true,
	}

	i, _, err := sel.Run()
	return i, err
}

func (p *promptAsker) Input(label string, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: validate,
		Stdin:    p.in,
		Stdout:   p.out,
	}

	return prompt.Run()
}
