package cli

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	mpio "github.com/matzehuels/macroplace/pkg/io"
	"github.com/matzehuels/macroplace/pkg/placer"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorText)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorMuted)
)

func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <result.json>",
		Short: "Browse a placement result interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := mpio.ImportResult(args[0])
			if err != nil {
				return err
			}
			if !stdoutIsTerminal() {
				return fmt.Errorf("inspect needs a terminal; use \"%s weights\" or the result JSON instead", appName)
			}
			_, err = tea.NewProgram(NewResultModel(res), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

// stdoutIsTerminal reports whether stdout is an interactive terminal.
func stdoutIsTerminal() bool {
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// =============================================================================
// ResultModel - Interactive result browser
// =============================================================================

// ResultModel is the bubbletea model for browsing the macros of a placement
// result. Enter toggles the connection detail of the selected macro.
type ResultModel struct {
	Result *placer.Result
	Cursor int
	Height int
	Offset int
	Detail bool

	clamped map[string]bool
}

// NewResultModel creates a new result browser.
func NewResultModel(res *placer.Result) ResultModel {
	m := ResultModel{Result: res, Height: 15, clamped: make(map[string]bool)}
	for _, name := range res.Clamped() {
		m.clamped[name] = true
	}
	return m
}

func (m ResultModel) Init() tea.Cmd {
	return nil
}

func (m ResultModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	n := len(m.Result.Placements)
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < n-1 {
				m.Cursor++
			}
		case "pgup":
			m.Cursor = max(m.Cursor-m.Height, 0)
		case "pgdown":
			m.Cursor = max(min(m.Cursor+m.Height, n-1), 0)
		case "home", "g":
			m.Cursor = 0
		case "end", "G":
			m.Cursor = max(n-1, 0)
		case "enter", " ":
			m.Detail = !m.Detail
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-12, 5)
	}
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
	return m, nil
}

func (m ResultModel) View() string {
	var b strings.Builder
	res := m.Result

	b.WriteString(StyleTitle.Render(res.Design))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  wirelength %.2f · %d candidates · best #%d · seed %d",
		res.WeightedWL, res.SolutionCount, res.BestCandidate, res.Seed)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ connections  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(res.Placements))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		p := res.Placements[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		flag := ""
		if m.clamped[p.Name] {
			flag = "clamped"
		}
		rows = append(rows, []string{cursor, p.Name, fmtCoord(p.LX), fmtCoord(p.LY), flag})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers("", "Macro", "X", "Y", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(res.Placements) {
				return lipgloss.NewStyle()
			}
			if col == 4 {
				return StyleWarning
			}
			if idx == m.Cursor {
				return listSelectedStyle
			}
			return listNormalStyle
		})
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(res.Placements))))
	if len(res.Warnings) > 0 {
		b.WriteString("  " + StyleWarning.Render(fmt.Sprintf("%d warnings", len(res.Warnings))))
	}
	b.WriteString("\n")

	if m.Detail && m.Cursor < len(res.Placements) {
		b.WriteString("\n")
		b.WriteString(m.detail(res.Placements[m.Cursor].Name))
	}
	return b.String()
}

// link is one connection of the selected macro.
type link struct {
	to     string
	weight int
}

// detail lists the connections of one macro, heaviest first.
func (m ResultModel) detail(name string) string {
	var links []link
	for _, p := range m.Result.Pairs {
		switch name {
		case p.A:
			links = append(links, link{p.B, p.Weight})
		case p.B:
			links = append(links, link{p.A, p.Weight})
		}
	}
	for _, e := range m.Result.EdgeWeights {
		if e.Macro == name {
			links = append(links, link{"edge " + e.Edge.String(), e.Weight})
		}
	}
	slices.SortStableFunc(links, func(a, b link) int { return cmp.Compare(b.weight, a.weight) })

	var b strings.Builder
	b.WriteString(StyleHighlight.Render(name))
	if len(links) == 0 {
		b.WriteString(listDimStyle.Render("  no connections"))
		return b.String() + "\n"
	}
	b.WriteString("\n")
	for _, l := range links {
		b.WriteString(fmt.Sprintf("  %-24s %s\n", l.to, StyleNumber.Render(strconv.Itoa(l.weight))))
	}
	return b.String()
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
