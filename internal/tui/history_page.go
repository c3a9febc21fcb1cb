package tui

import (
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/prognosticator/internal/model"
)

type historyListMsg struct {
	items []model.Submission
	err   error
}

// HistoryPage lists recent submissions stored in the history database.
type HistoryPage struct {
	reader  model.HistoryReader
	limit   int
	keys    KeyMap
	items   []model.Submission
	cursor  int
	err     error
	loading bool
}

// NewHistoryPage creates the history page. It returns nil when reader is nil
// so that NewApp skips it.
func NewHistoryPage(reader model.HistoryReader, limit int) Page {
	if reader == nil {
		return nil
	}
	if limit <= 0 {
		limit = model.DefaultHistoryLimit
	}
	return &HistoryPage{reader: reader, limit: limit, keys: DefaultKeyMap()}
}

func (p *HistoryPage) ID() string { return PageHistory }

// Init reloads the list each time the page is shown.
func (p *HistoryPage) Init() tea.Cmd {
	p.loading = true
	reader, limit := p.reader, p.limit
	return func() tea.Msg {
		items, err := reader.RecentSubmissions(limit)
		return historyListMsg{items: items, err: err}
	}
}

func (p *HistoryPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case historyListMsg:
		p.loading = false
		p.items, p.err = msg.items, msg.err
		if p.err != nil {
			log.Printf("tui: list submissions: %v", p.err)
		}
		p.cursor = min(p.cursor, max(0, len(p.items)-1))
		return nil, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Quit):
			return tea.Quit, nil
		case key.Matches(msg, p.keys.Back), key.Matches(msg, p.keys.History):
			return nil, &PageNav{PageID: PageForm}
		case key.Matches(msg, p.keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, p.keys.Down):
			if p.cursor < len(p.items)-1 {
				p.cursor++
			}
		case key.Matches(msg, p.keys.Enter):
			return p.open()
		}
	}
	return nil, nil
}

// open loads the selected submission's rows into the form.
func (p *HistoryPage) open() (tea.Cmd, *PageNav) {
	if p.cursor >= len(p.items) {
		return nil, nil
	}
	sub := p.items[p.cursor]
	if sub.RowCount == 0 {
		return nil, nil
	}
	reader := p.reader
	return func() tea.Msg {
		rows, err := reader.SubmissionRows(sub.ID)
		if err != nil {
			log.Printf("tui: load submission %s: %v", sub.ID, err)
			return nil
		}
		return historyLoadedMsg{id: sub.ID, rows: rows}
	}, &PageNav{PageID: PageForm}
}

func (p *HistoryPage) View(width, height int) string {
	title := chartTitleStyle.Render("Recent Submissions")

	var body string
	switch {
	case p.loading:
		body = renderLoading("Loading...")
	case p.err != nil:
		body = noticeStyle.Render("History unavailable: " + p.err.Error())
	case len(p.items) == 0:
		body = helpStyle.Render("No submissions yet")
	default:
		visible := max(1, height-4)
		start := 0
		if p.cursor >= visible {
			start = p.cursor - visible + 1
		}
		var lines []string
		for i := start; i < len(p.items) && i < start+visible; i++ {
			line := historyLine(p.items[i])
			if i == p.cursor {
				line = lipgloss.NewStyle().Reverse(true).Render(line)
			}
			lines = append(lines, line)
		}
		body = strings.Join(lines, "\n")
	}

	help := helpStyle.Render(helpLine(p.keys.Up, p.keys.Down, p.keys.Enter, p.keys.Back))
	return lipgloss.JoinVertical(lipgloss.Left, title, body, "", help)
}

func historyLine(s model.Submission) string {
	result := fmt.Sprintf("%d rows", s.RowCount)
	switch s.Outcome {
	case "server":
		result = fmt.Sprintf("status %d", s.Status)
	case "connectivity", "validation":
		result = s.Outcome
	}
	return fmt.Sprintf("%s  %-24s  %-10s  %s",
		s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		truncateLabel(s.FileName, 24), truncateLabel(s.TimeInterval, 10), result)
}
