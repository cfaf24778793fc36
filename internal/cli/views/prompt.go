package views

import (
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// Prompt labels. Scripted prompters answer by label.
const (
	LabelPhone          = "Phone"
	LabelPassword       = "Password"
	LabelName           = "Name"
	LabelEnrollmentYear = "Enrollment year"
	LabelClassNumber    = "Class number"
	LabelShift          = "Select a shift"
	LabelEventAction    = "What next"
	LabelTitle          = "Title"
	LabelDescription    = "Description"
	LabelLocation       = "Location"
	LabelStart          = "Starts (YYYY-MM-DD HH:MM)"
	LabelEnd            = "Ends (YYYY-MM-DD HH:MM)"
	LabelDeadline       = "Registration closes (YYYY-MM-DD HH:MM)"
	LabelVolunteers     = "Volunteers needed"
	LabelLeader         = "Leader name"
	LabelLeaderContact  = "Leader contact"
)

// Prompter asks the user for input
type Prompter interface {
	Input(label, def string) (string, error)
	Password(label string) (string, error)
	Select(label string, items []string) (int, error)
}

// TerminalPrompter prompts on the controlling terminal
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer
}

// NewTerminalPrompter returns a prompter on stdin/stderr, or nil when stdin is not a terminal
func NewTerminalPrompter() Prompter {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

// Input reads one line
func (p *TerminalPrompter) Input(label, def string) (string, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   def,
		AllowEdit: def != "",
		Stdin:     p.In,
	}
	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("%s: input cancelled: %w", label, err)
	}
	return value, nil
}

// Password reads a line without echo
func (p *TerminalPrompter) Password(label string) (string, error) {
	fmt.Fprintf(p.Out, "%s: ", label)
	bytePassword, err := term.ReadPassword(int(p.In.Fd()))
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// Select shows a picker and returns the chosen index
func (p *TerminalPrompter) Select(label string, items []string) (int, error) {
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ . | cyan }}",
		Inactive: "  {{ . }}",
		Selected: "{{ . | green }}",
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     items,
		Templates: templates,
		Size:      10,
		Stdin:     p.In,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return -1, fmt.Errorf("selection cancelled: %w", err)
	}
	return index, nil
}
