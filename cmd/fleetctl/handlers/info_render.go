package handlers

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoColorBlue  = lipgloss.Color("#3b82f6")
	infoColorDim   = lipgloss.Color("#6b7280")
	infoColorGreen = lipgloss.Color("#22c55e")
	infoColorWhite = lipgloss.Color("#f9fafb")
)

var (
	infoTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(infoColorWhite)

	infoSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(infoColorBlue)

	infoNameStyle = lipgloss.NewStyle().
			Foreground(infoColorDim)

	infoValueStyle = lipgloss.NewStyle().
			Foreground(infoColorGreen)
)

// infoWriter renders styled or plain lines.
type infoWriter struct {
	b     strings.Builder
	plain bool
}

func (w *infoWriter) style(st lipgloss.Style, s string) string {
	if w.plain {
		return s
	}
	return st.Render(s)
}

func (w *infoWriter) section(title string) {
	w.b.WriteString("\n")
	w.b.WriteString(w.style(infoSectionStyle, "  "+title))
	w.b.WriteString("\n")
}

func (w *infoWriter) field(name, value string) {
	w.b.WriteString("    ")
	w.b.WriteString(w.style(infoNameStyle, fmt.Sprintf("%-12s", name+":")))
	w.b.WriteString(" ")
	w.b.WriteString(w.style(infoValueStyle, value))
	w.b.WriteString("\n")
}

// renderInfo formats the report. Plain output has no escape sequences.
func renderInfo(r infoReport, plain bool) string {
	w := &infoWriter{plain: plain}

	w.b.WriteString(w.style(infoTitleStyle, "  fleetctl info: "+r.Fleet))
	w.b.WriteString("\n")

	if r.Status != nil {
		w.section("Status")
		w.field("Controller", r.Status.Controller)
		w.field("Uptime", formatUptime(r.Status.Uptime))
	}

	if r.Instances != nil {
		w.section("Instances")
		types := make([]string, 0, len(r.Instances))
		total := 0
		for t, n := range r.Instances {
			types = append(types, t)
			total += n
		}
		sort.Strings(types)
		for _, t := range types {
			w.field(t, fmt.Sprintf("%d", r.Instances[t]))
		}
		w.field("Total", fmt.Sprintf("%d", total))
	}

	if r.Volume != nil {
		w.section("Shared volume " + r.MountPath)
		if r.Volume.Total == "" {
			w.field("State", "not mounted")
		} else {
			w.field("Size", r.Volume.Total)
			w.field("Used", fmt.Sprintf("%s (%s)", r.Volume.Used, r.Volume.UsedPercent))
			w.field("Free", r.Volume.Free)
		}
	}

	return w.b.String()
}

// formatUptime prints whole days, then hours, minutes and seconds.
func formatUptime(d time.Duration) string {
	if d <= 0 {
		return "unknown"
	}
	d = d.Truncate(time.Second)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	sec := (d - m*time.Minute) / time.Second
	if days > 0 {
		return fmt.Sprintf("%dd %02d:%02d:%02d", days, h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}
