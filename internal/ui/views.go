package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	bannerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("178")).Italic(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

const maxListRows = 20

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.mode {
	case ModeDetail:
		b.WriteString(m.renderDetail())
	case ModeSearch, ModeSettings:
		b.WriteString(m.input.View())
		b.WriteString("\n")
	default:
		b.WriteString(m.renderList())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m Model) renderHeader() string {
	header := titleStyle.Render("thingscout")
	if m.userName != "" {
		header += dimStyle.Render("  ·  " + m.userName)
	}
	if m.message != "" {
		header += "\n" + bannerStyle.Render(m.message)
	}
	return header
}

func (m Model) renderList() string {
	if m.querying && len(m.things) == 0 {
		return m.spin.View() + " loading..."
	}
	if len(m.things) == 0 {
		return dimStyle.Render("no results")
	}

	var b strings.Builder
	start, end := listWindow(m.cursor, len(m.things), maxListRows)
	for i := start; i < end; i++ {
		thing := m.things[i]
		line := thing.Name
		if line == "" {
			line = fmt.Sprintf("thing %d", thing.ID)
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("\n%d results", len(m.things))))
	return b.String()
}

func (m Model) renderDetail() string {
	var b strings.Builder

	if m.hasActiveThing {
		b.WriteString(selectedStyle.Render(m.activeThing.Name))
		b.WriteString("\n")
		if m.activeThing.URL != "" {
			b.WriteString(dimStyle.Render(m.activeThing.URL))
			b.WriteString("\n")
		}
		if m.activeThing.Description != "" {
			b.WriteString("\n")
			b.WriteString(truncate(m.activeThing.Description, 600))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(m.spin.View() + " loading thing...")
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if len(m.activeFiles) == 0 {
		b.WriteString(dimStyle.Render("no importable files"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(titleStyle.Render("files"))
	b.WriteString("\n")
	for i, file := range m.activeFiles {
		if i == m.fileCursor {
			b.WriteString(selectedStyle.Render("> " + file.Name))
		} else {
			b.WriteString("  " + file.Name)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderFooter() string {
	var parts []string

	if m.querying {
		parts = append(parts, m.spin.View()+" querying")
	}
	if m.downloading {
		parts = append(parts, m.spin.View()+" downloading")
	}
	if m.errText != "" {
		parts = append(parts, errorStyle.Render("error: "+m.errText))
	}

	help := "[/] search  [1-7] views  [m] more  [enter] open  [s] settings  [q] quit"
	if m.mode == ModeDetail {
		help = "[j/k] select file  [d] download  [esc] back"
	}
	parts = append(parts, dimStyle.Render(help))

	return strings.Join(parts, "\n")
}

// listWindow returns the half-open row range keeping the cursor visible.
func listWindow(cursor, total, rows int) (int, int) {
	if total <= rows {
		return 0, total
	}
	start := cursor - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > total {
		start = total - rows
	}
	return start, start + rows
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return strings.TrimSpace(s[:limit]) + "…"
}
