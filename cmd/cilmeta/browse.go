package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/cilmeta/assembly"
	"github.com/wippyai/cilmeta/tables"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
)

type keyMap struct {
	Open key.Binding
	Back key.Binding
	Quit key.Binding
}

var keys = keyMap{
	Open: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open table")),
	Back: key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type browseState int

const (
	stateTables browseState = iota
	stateRows
)

type browseModel struct {
	err      error
	asm      *assembly.Assembly
	filename string
	ids      []tables.TableID
	list     table.Model
	rows     table.Model
	current  tables.TableID
	height   int
	state    browseState
}

func newBrowseModel(asm *assembly.Assembly, filename string, height int) *browseModel {
	m := &browseModel{asm: asm, filename: filename, height: height}
	var rows []table.Row
	for _, id := range tables.AllTables() {
		if n := asm.RowCount(id); n > 0 {
			m.ids = append(m.ids, id)
			rows = append(rows, table.Row{id.String(), strconv.FormatUint(uint64(n), 10)})
		}
	}
	m.list = newTable([]table.Column{{Title: "Table", Width: 24}, {Title: "Rows", Width: 8}}, rows, m.tableHeight())
	return m
}

func newTable(cols []table.Column, rows []table.Row, height int) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4")).
		Bold(false)
	t.SetStyles(s)
	return t
}

// tableHeight leaves room for the title, borders and help line.
func (m *browseModel) tableHeight() int {
	if h := m.height - 7; h > 3 {
		return h
	}
	return 3
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

func (m *browseModel) openTable(id tables.TableID) error {
	names, err := columnNames(id)
	if err != nil {
		return err
	}
	src, err := m.asm.Tables.Rows(id)
	if err != nil {
		return err
	}
	rows := make([]table.Row, len(src))
	widths := make([]int, len(names))
	for i, n := range names {
		widths[i] = len(n)
	}
	for i, row := range src {
		cells := rowCells(m.asm, row)
		for j, c := range cells {
			widths[j] = max(widths[j], min(len(c), 32))
		}
		rows[i] = cells
	}
	cols := make([]table.Column, len(names))
	for i, n := range names {
		cols[i] = table.Column{Title: n, Width: widths[i]}
	}
	m.rows = newTable(cols, rows, m.tableHeight())
	m.current = id
	m.state = stateRows
	return nil
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.list.SetHeight(m.tableHeight())
		if m.state == stateRows {
			m.rows.SetHeight(m.tableHeight())
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Open) && m.state == stateTables:
			if i := m.list.Cursor(); i >= 0 && i < len(m.ids) {
				m.err = m.openTable(m.ids[i])
			}
			return m, nil
		case key.Matches(msg, keys.Back) && m.state == stateRows:
			m.state = stateTables
			m.err = nil
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.state == stateRows {
		m.rows, cmd = m.rows.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m *browseModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("cilmeta"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	if m.state == stateRows {
		fmt.Fprintf(&b, " / %s", m.current)
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	switch m.state {
	case stateTables:
		b.WriteString(baseStyle.Render(m.list.View()))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter open • q quit"))
	case stateRows:
		b.WriteString(baseStyle.Render(m.rows.View()))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • esc back • q quit"))
	}
	return b.String()
}

func (a *app) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <file>",
		Short: "Browse tables interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fd := int(os.Stdout.Fd())
			if !term.IsTerminal(fd) {
				return fmt.Errorf("browse needs a terminal; use dump instead")
			}
			_, height, err := term.GetSize(fd)
			if err != nil {
				height = 24
			}
			asm, err := loadFile(args[0])
			if err != nil {
				return err
			}
			p := tea.NewProgram(newBrowseModel(asm, args[0], height), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}
