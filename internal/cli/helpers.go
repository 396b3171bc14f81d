package cli

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/productive-me/momentum/internal/domain"
)

// ─── Styles ─────────────────────────────────────────────────────────────────
// Colour is only used when the destination is a terminal; pipes and tests get
// plain text.

type styles struct {
	heading lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	good    lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
}

func colorEnabled(w io.Writer) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newStyles(w io.Writer) styles {
	if !colorEnabled(w) {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain}
	}
	return styles{
		heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7")),
		label:   lipgloss.NewStyle().Foreground(lipgloss.Color("#a9b1d6")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")),
		good:    lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68")),
		bad:     lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e")),
	}
}

func (s styles) priority(p domain.Priority) lipgloss.Style {
	switch domain.ParsePriority(string(p)) {
	case domain.PriorityHigh:
		return s.bad
	case domain.PriorityLow:
		return s.muted
	default:
		return s.warn
	}
}

// ─── Bars ───────────────────────────────────────────────────────────────────
// [=========>..........]  45%

const barWidth = 20

func bar(pct int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	filled := pct * barWidth / 100
	empty := barWidth - filled

	switch {
	case filled == barWidth:
		return "[" + strings.Repeat("=", filled) + "]"
	case filled > 0:
		return "[" + strings.Repeat("=", filled-1) + ">" + strings.Repeat(".", empty) + "]"
	default:
		return "[" + strings.Repeat(".", barWidth) + "]"
	}
}

// ─── Output ─────────────────────────────────────────────────────────────────

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
