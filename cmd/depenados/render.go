package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent  = lipgloss.Color("#F5A623")
	colorMuted   = lipgloss.Color("#8A8F98")
	colorSuccess = lipgloss.Color("#8BC34A")
	colorDanger  = lipgloss.Color("#E53935")
)

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	muted     lipgloss.Style
	ok        lipgloss.Style
	err       lipgloss.Style
	celebrate lipgloss.Style
	box       lipgloss.Style
}

// newStyles binds the styles to w so colors are dropped when w is not a terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:     r.NewStyle().Bold(true).Foreground(colorAccent),
		header:    r.NewStyle().Bold(true).Underline(true),
		muted:     r.NewStyle().Foreground(colorMuted),
		ok:        r.NewStyle().Foreground(colorSuccess),
		err:       r.NewStyle().Foreground(colorDanger),
		celebrate: r.NewStyle().Bold(true).Foreground(colorSuccess),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1),
	}
}

// table renders rows under headers with columns padded to their widest cell.
func (s styles) table(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return s.muted.Render("(nada por aqui)")
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	pad := func(cell string, w int) string {
		return cell + strings.Repeat(" ", w-lipgloss.Width(cell))
	}
	var sb strings.Builder
	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = s.header.Render(h) + strings.Repeat(" ", widths[i]-lipgloss.Width(h))
	}
	sb.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
	for _, row := range rows {
		sb.WriteString("\n")
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = pad(cell, widths[i])
		}
		sb.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
	}
	return sb.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02/01/2006 15:04")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *cli) println(s string) {
	fmt.Fprintln(c.out, s)
}
