package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/macroplace/pkg/errors"
)

var (
	colorAccent = lipgloss.Color("36")  // teal
	colorOK     = lipgloss.Color("35")  // green
	colorWarn   = lipgloss.Color("220") // amber
	colorLink   = lipgloss.Color("75")  // light blue
	colorText   = lipgloss.Color("255")
	colorLabel  = lipgloss.Color("245")
	colorMuted  = lipgloss.Color("240")
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorAccent)
	StyleDim       = lipgloss.NewStyle().Foreground(colorMuted)
	StyleValue     = lipgloss.NewStyle().Foreground(colorText)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorAccent)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorWarn)

	styleOK      = lipgloss.NewStyle().Foreground(colorOK)
	styleLabel   = lipgloss.NewStyle().Foreground(colorLabel)
	styleCommand = lipgloss.NewStyle().Foreground(colorLink)
	styleHeader  = lipgloss.NewStyle().Foreground(colorLabel).Bold(true)
)

// Status glyphs. The spinner frames are braille dots.
const (
	glyphOK    = "✓"
	glyphWarn  = "!"
	glyphInfo  = "›"
	glyphArrow = "→"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// console writes styled status lines for humans. Commands that put data on
// stdout must not use it there.
type console struct {
	w io.Writer
}

func (c console) line(s string) { fmt.Fprintln(c.w, s) }

func (c console) success(format string, args ...any) {
	c.line(styleOK.Render(glyphOK) + " " + fmt.Sprintf(format, args...))
}

func (c console) info(format string, args ...any) {
	c.line(styleLabel.Render(glyphInfo) + " " + fmt.Sprintf(format, args...))
}

func (c console) detail(format string, args ...any) {
	c.line("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func (c console) file(path string) {
	c.line("  " + StyleDim.Render(glyphArrow) + " " + StyleValue.Render(path))
}

func (c console) keyValue(key, value string) {
	c.line(styleLabel.Width(12).Render(key) + " " + StyleValue.Render(value))
}

func (c console) nextStep(description, command string) {
	c.line(StyleDim.Render(description+":") + " " + styleCommand.Render(command))
}

// warnings prints one line per recoverable problem, subject first.
func (c console) warnings(ws []errors.Warning) {
	for _, w := range ws {
		c.line(StyleWarning.Render(glyphWarn) + " " + StyleWarning.Render(w.String()))
	}
}

// stats prints the design size and whether the placement came from cache.
func (c console) stats(instances, macros, nets int, cached bool) {
	status := StyleDim.Render("fresh")
	if cached {
		status = styleOK.Render("cached")
	}
	sep := StyleDim.Render(" · ")
	c.line("  " + strings.Join([]string{
		StyleDim.Render(fmt.Sprintf("%d instances", instances)),
		StyleDim.Render(fmt.Sprintf("%d macros", macros)),
		StyleDim.Render(fmt.Sprintf("%d nets", nets)),
		status,
	}, sep))
}

// newTable returns a rounded table whose last column holds numbers.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case col == len(headers)-1:
				return StyleNumber
			default:
				return StyleValue
			}
		})
}
