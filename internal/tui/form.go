package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/manager"
)

// tempForm collects the fields of a new temporary window.
type tempForm struct {
	form *huh.Form

	fTitle  string
	fBody   string
	fWidth  string
	fHeight string
}

func newTempForm(width int) *tempForm {
	tf := &tempForm{
		fWidth:  strconv.Itoa(geometry.DefaultWindowWidth),
		fHeight: strconv.Itoa(geometry.DefaultWindowHeight),
	}

	w := width - 4
	if w < 40 {
		w = 40
	}

	tf.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("title").
				Title("Title").
				Value(&tf.fTitle).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewText().
				Key("body").
				Title("Body").
				Lines(4).
				Value(&tf.fBody),
			huh.NewInput().
				Key("width").
				Title("Width").
				Value(&tf.fWidth).
				Validate(validateDimension),
			huh.NewInput().
				Key("height").
				Title("Height").
				Value(&tf.fHeight).
				Validate(validateDimension),
		),
	).WithWidth(w).WithShowHelp(true)

	return tf
}

func validateDimension(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if n <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func (tf *tempForm) Init() tea.Cmd {
	return tf.form.Init()
}

func (tf *tempForm) Update(msg tea.Msg) tea.Cmd {
	form, cmd := tf.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		tf.form = f
	}
	return cmd
}

func (tf *tempForm) Completed() bool { return tf.form.State == huh.StateCompleted }
func (tf *tempForm) Aborted() bool   { return tf.form.State == huh.StateAborted }

func (tf *tempForm) View() string { return tf.form.View() }

// definition converts the form values into a temp window. Unparseable
// dimensions fall back to the defaults.
func (tf *tempForm) definition() manager.TempWindow {
	return buildTempWindow(tf.fTitle, tf.fBody, tf.fWidth, tf.fHeight)
}

func buildTempWindow(title, body, width, height string) manager.TempWindow {
	size := geometry.Size{
		Width:  parseDimension(width, geometry.DefaultWindowWidth),
		Height: parseDimension(height, geometry.DefaultWindowHeight),
	}
	return manager.TempWindow{
		Title: strings.TrimSpace(title),
		Body:  body,
		Size:  &size,
	}
}

func parseDimension(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
