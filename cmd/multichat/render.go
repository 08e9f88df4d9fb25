package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/janhq/multichat/pkg/multichat"
)

var (
	colorDone    = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorPending = lipgloss.Color("#6B7280")
	colorActive  = lipgloss.Color("#3B82F6")
	colorBorder  = lipgloss.Color("#374151")

	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(colorPending)
	errorStyle = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

func statusLabel(status multichat.Status) string {
	switch status {
	case multichat.StatusDone:
		return lipgloss.NewStyle().Foreground(colorDone).Render("done")
	case multichat.StatusError:
		return lipgloss.NewStyle().Foreground(colorError).Render("error")
	case multichat.StatusStreaming:
		return lipgloss.NewStyle().Foreground(colorActive).Render("streaming")
	default:
		return lipgloss.NewStyle().Foreground(colorPending).Render("pending")
	}
}

// renderModel draws one model's answer as a bordered panel.
func renderModel(m multichat.ModelState, width int) string {
	header := fmt.Sprintf("%s  %s", titleStyle.Render(m.Name), statusLabel(m.Status()))

	var body strings.Builder
	if text := strings.TrimSpace(m.Text); text != "" {
		body.WriteString(text)
	}
	if m.Error != "" {
		if body.Len() > 0 {
			body.WriteString("\n")
		}
		body.WriteString(errorStyle.Render(m.Error))
	}
	if body.Len() == 0 {
		body.WriteString(mutedStyle.Render("no response"))
	}

	style := panelStyle
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(header + "\n" + body.String())
}

// renderSnapshot draws every model in request order.
func renderSnapshot(snap multichat.Snapshot, width int) string {
	if len(snap.Models) == 0 {
		return mutedStyle.Render("no models") + "\n"
	}
	var b strings.Builder
	for _, m := range snap.Models {
		b.WriteString(renderModel(m, width))
		b.WriteString("\n")
	}
	return b.String()
}

// progressLine summarises a snapshot on one line.
func progressLine(snap multichat.Snapshot) string {
	var done, failed, streaming int
	for _, m := range snap.Models {
		switch m.Status() {
		case multichat.StatusDone:
			done++
		case multichat.StatusError:
			failed++
		case multichat.StatusStreaming:
			streaming++
		}
	}
	return fmt.Sprintf("%d/%d finished, %d streaming, %d failed", done+failed, len(snap.Models), streaming, failed)
}
