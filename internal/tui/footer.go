package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// FooterModel renders key hints and the run status.
type FooterModel struct {
	keys  KeyMap
	done  bool
	err   bool
	width int
}

// NewFooterModel creates a footer for the given bindings.
func NewFooterModel(keys KeyMap) FooterModel {
	return FooterModel{keys: keys}
}

// SetDone switches the status between running and done.
func (f *FooterModel) SetDone(done bool) { f.done = done }

// SetError flags that a pass failed to start.
func (f *FooterModel) SetError(err bool) { f.err = err }

// SetWidth updates the available width.
func (f *FooterModel) SetWidth(w int) { f.width = w }

// View renders the footer.
func (f FooterModel) View() string {
	hints := make([]string, 0, 4)
	for _, b := range f.keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, footerKeyStyle.Render(h.Key)+" "+footerDescStyle.Render(h.Desc))
	}
	left := " " + strings.Join(hints, "  ")

	var status string
	switch {
	case f.err:
		status = errorStyle.Bold(true).Render("ERROR")
	case f.done:
		status = statusDoneStyle.Render("DONE")
	default:
		status = statusRunningStyle.Render("RUNNING")
	}

	gap := max(f.width-lipgloss.Width(left)-lipgloss.Width(status)-1, 1)
	return left + spaces(gap) + status
}
