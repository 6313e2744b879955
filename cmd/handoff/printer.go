package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// printer writes labelled demo results, styled when the output is a terminal.
type printer struct {
	w     io.Writer
	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	owned lipgloss.Style
}

func newPrinter(w io.Writer, styled bool) *printer {
	if !styled {
		plain := lipgloss.NewStyle()
		return &printer{w: w, title: plain, label: plain, value: plain, owned: plain}
	}
	return &printer{
		w: w,
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB")).
			Width(22),
		value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90")),
		owned: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")),
	}
}

func (p *printer) header(text string) {
	fmt.Fprintln(p.w, p.title.Render(text))
}

// result prints one line; note describes the ownership of what crossed.
func (p *printer) result(label string, value any, note string) {
	line := p.label.Render(label+":") + " " + p.value.Render(fmt.Sprint(value))
	if note != "" {
		line += " " + p.owned.Render("("+note+")")
	}
	fmt.Fprintln(p.w, line)
}
