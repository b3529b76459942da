// Package output provides styled terminal output helpers (success, error,
// warning, elapsed stamps) using lipgloss.
package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Emoji prefixes used in confirmation lines
const (
	EmojiSuccess = "✅"
	EmojiLink    = "🔗"
)

// Printer writes styled lines to a writer. Safe for concurrent use, so
// parallel tasks can report through the same Printer without interleaving
// partial lines.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// New creates a Printer writing to w
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) line(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}

// Success prints a success message
func (p *Printer) Success(format string, args ...interface{}) {
	p.line(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func (p *Printer) Error(format string, args ...interface{}) {
	p.line(errorStyle.Render("Error: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...interface{}) {
	p.line(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an unstyled message
func (p *Printer) Info(format string, args ...interface{}) {
	p.line(fmt.Sprintf(format, args...))
}

// Subtle prints a dimmed message
func (p *Printer) Subtle(format string, args ...interface{}) {
	p.line(subtleStyle.Render(fmt.Sprintf(format, args...)))
}

// Bold renders s in the title style
func Bold(s string) string {
	return titleStyle.Render(s)
}

// Code renders s as an inline code reference, e.g. `vcpull link`
func Code(s string) string {
	return titleStyle.Render("`" + s + "`")
}

// Elapsed formats a duration as a dimmed stamp, e.g. "[120ms]" or "[2s]"
func Elapsed(d time.Duration) string {
	return subtleStyle.Render("[" + FormatDuration(d) + "]")
}

// FormatDuration formats a duration with millisecond precision below one
// second and second precision above it
func FormatDuration(d time.Duration) string {
	switch {
	case d < 0:
		d = 0
		fallthrough
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	default:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}
