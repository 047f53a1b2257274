// Package display provides unified output formatting for the ci-recovery CLI.
// Structured logs go through zap; this package renders the human summaries.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/daydemir/ci-recovery/internal/types"
)

// Display handles all CLI output with visual hierarchy
type Display struct {
	out       io.Writer
	theme     *Theme
	termWidth int
	noColor   bool
}

// New creates a new Display instance
func New() *Display {
	return NewWithOptions(false)
}

// NewWithOptions creates a Display writing to stdout
func NewWithOptions(noColor bool) *Display {
	return NewWriter(os.Stdout, noColor || !isTerminal(os.Stdout))
}

// NewWriter creates a Display writing to out
func NewWriter(out io.Writer, noColor bool) *Display {
	d := &Display{
		out:       out,
		termWidth: getTerminalWidth(out),
		noColor:   noColor,
	}
	if noColor {
		d.theme = NoColorTheme()
	} else {
		d.theme = DefaultTheme()
	}
	return d
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// getTerminalWidth returns the terminal width, defaulting to 80
func getTerminalWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok {
		return 80
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width < 40 {
		return 80
	}
	if width > 120 {
		return 120 // Cap at 120 for readability
	}
	return width
}

// Box prints a boxed message with a title
func (d *Display) Box(title string, lines ...string) {
	if len(lines) == 0 {
		return
	}

	width := d.termWidth - 2
	titleLen := len(title) + 4 // "─ TITLE "
	remainingWidth := width - titleLen
	if remainingWidth < 0 {
		remainingWidth = 0
	}

	topLine := BoxTopLeft + BoxHorizontal + " " + title + " " + strings.Repeat(BoxHorizontal, remainingWidth) + BoxTopRight
	fmt.Fprintln(d.out, d.theme.Border(topLine))

	for _, line := range lines {
		paddedLine := d.padRight(line, width-2)
		fmt.Fprintln(d.out, d.theme.Border(BoxVertical)+" "+d.theme.Text(paddedLine)+" "+d.theme.Border(BoxVertical))
	}

	bottomLine := BoxBottomLeft + strings.Repeat(BoxHorizontal, width) + BoxBottomRight
	fmt.Fprintln(d.out, d.theme.Border(bottomLine))
}

// Status prints a single-line status message (no box)
func (d *Display) Status(symbol, message string) {
	timestamp := time.Now().Format("[15:04:05]")
	fmt.Fprintf(d.out, "%s %s %s\n",
		d.theme.Border(timestamp),
		symbol,
		d.theme.Text(message))
}

// Success prints a success message with green checkmark
func (d *Display) Success(message string) {
	d.Status(d.theme.Success(SymbolSuccess), message)
}

// Error prints an error message with red X
func (d *Display) Error(message string) {
	d.Status(d.theme.Error(SymbolError), message)
}

// Warning prints a warning message with yellow triangle
func (d *Display) Warning(message string) {
	d.Status(d.theme.Warning(SymbolWarning), message)
}

// Info prints an info message with cyan indicator
func (d *Display) Info(label, message string) {
	d.Status(d.theme.Info(label+":"), message)
}

// SectionBreak prints a horizontal separator
func (d *Display) SectionBreak() {
	fmt.Fprintln(d.out, d.theme.Separator(strings.Repeat(SectionBreak, d.termWidth)))
}

// Pass prints the banner for one recovery pass
func (d *Display) Pass(current, max int) {
	if max <= 1 {
		return
	}
	d.SectionBreak()
	fmt.Fprintf(d.out, "Recovery pass %d/%d\n", current, max)
	d.SectionBreak()
}

// Attempt prints the outcome of one recovery attempt
func (d *Display) Attempt(a *types.RecoveryAttempt) {
	lines := []string{
		fmt.Sprintf("Attempt:  %s", a.ID),
		fmt.Sprintf("Started:  %s", a.Timestamp.Format(time.RFC3339)),
	}
	if a.Revision != "" {
		lines = append(lines, fmt.Sprintf("Revision: %s", a.Revision))
	}
	lines = append(lines,
		fmt.Sprintf("Errors:   %d (%d blocking)", len(a.Errors), a.BlockingErrors()),
		fmt.Sprintf("Actions:  %d", len(a.Actions)),
		fmt.Sprintf("Duration: %s", formatMillis(a.Duration)),
	)
	d.Box("RECOVERY", lines...)

	if len(a.Errors) > 0 {
		fmt.Fprintln(d.out, d.theme.Bold("Detected errors:"))
		for _, e := range a.Errors {
			d.buildError(e)
		}
	}

	if len(a.Actions) > 0 {
		fmt.Fprintln(d.out, d.theme.Bold("Actions:"))
		for _, action := range a.Actions {
			fmt.Fprintf(d.out, "%s%s %s\n", Indent, d.theme.Info(SymbolAction), action)
		}
	}

	fmt.Fprintln(d.out)
	if a.Success {
		d.Success("Build recovered")
	} else {
		d.Error("Recovery failed: manual intervention required")
	}
}

func (d *Display) buildError(e types.BuildError) {
	symbol := d.theme.Error(SymbolError)
	if !e.IsBlocking() {
		symbol = d.theme.Warning(SymbolWarning)
	}

	location := ""
	if e.HasLocation() {
		location = d.theme.Location(e.Location()) + " "
	}

	msg := Truncate(e.Message, d.termWidth-len(e.Location())-len(e.Category)-10)
	fmt.Fprintf(d.out, "%s%s %s%s %s\n", Indent, symbol, location, d.theme.Category("["+e.Category.String()+"]"), msg)
}

// Stats prints the aggregate view over recorded attempts
func (d *Display) Stats(s types.RecoveryStats) {
	lines := []string{
		fmt.Sprintf("Total attempts:   %d", s.TotalAttempts),
		fmt.Sprintf("Success rate:     %.1f%%", s.SuccessRate*100),
		fmt.Sprintf("Average duration: %s", formatMillis(int64(s.AverageDuration))),
	}
	d.Box("STATS", lines...)

	if len(s.CommonErrors) == 0 {
		fmt.Fprintln(d.out, d.theme.Dim("No errors recorded."))
		return
	}
	fmt.Fprintln(d.out, d.theme.Bold("Most common errors:"))
	for i, message := range s.CommonErrors {
		fmt.Fprintf(d.out, "%s%d. %s\n", Indent, i+1, Truncate(message, d.termWidth-6))
	}
}

// History prints one line per attempt, newest last
func (d *Display) History(attempts []types.RecoveryAttempt) {
	if len(attempts) == 0 {
		fmt.Fprintln(d.out, d.theme.Dim("No recovery attempts recorded."))
		return
	}

	for _, a := range attempts {
		symbol := d.theme.Success(SymbolSuccess)
		if !a.Success {
			symbol = d.theme.Error(SymbolError)
		}
		revision := ""
		if a.Revision != "" {
			revision = " " + d.theme.Dim(a.Revision)
		}
		fmt.Fprintf(d.out, "%s %s %s%s  errors: %d  actions: %d  %s\n",
			symbol,
			d.theme.Dim(a.Timestamp.Format("2006-01-02 15:04:05")),
			a.ID,
			revision,
			len(a.Errors),
			len(a.Actions),
			formatMillis(a.Duration))
	}
}

// Theme returns the current theme for external use
func (d *Display) Theme() *Theme {
	return d.theme
}

// padRight pads a string to the specified width
func (d *Display) padRight(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

func formatMillis(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}

// Truncate truncates text to max length with ellipsis
func Truncate(s string, max int) string {
	s = CleanText(s)
	if max < 4 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// CleanText removes newlines and collapses spaces
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}
