package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	pagerBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 2)

	pagerDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// PagerModel is the bubbletea model for browsing a tab sheet page by page.
type PagerModel struct {
	Title  string
	Pages  []string // each entry is one fully rendered text page
	Cursor int
}

// NewPagerModel creates a pager over pre-rendered text pages.
func NewPagerModel(title string, pages []string) PagerModel {
	return PagerModel{Title: title, Pages: pages}
}

func (m PagerModel) Init() tea.Cmd {
	return nil
}

func (m PagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h", "pgup":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "right", "l", "pgdown", " ", "enter":
			if m.Cursor < len(m.Pages)-1 {
				m.Cursor++
			}
		case "home", "g":
			m.Cursor = 0
		case "end", "G":
			m.Cursor = len(m.Pages) - 1
		}
	}
	return m, nil
}

func (m PagerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(pagerDimStyle.Render("←/→ turn pages  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(m.Pages) == 0 {
		b.WriteString(pagerDimStyle.Render("  (no pages)"))
		return b.String()
	}

	b.WriteString(pagerBorderStyle.Render(strings.TrimRight(m.Pages[m.Cursor], "\n")))
	b.WriteString("\n")
	b.WriteString(pagerDimStyle.Render(fmt.Sprintf("  [page %d/%d]", m.Cursor+1, len(m.Pages))))

	return b.String()
}
