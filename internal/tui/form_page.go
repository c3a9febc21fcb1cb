package tui

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/prognosticator/internal/export"
	"github.com/tinytelemetry/prognosticator/internal/form"
	"github.com/tinytelemetry/prognosticator/internal/model"
)

const (
	focusFile = iota
	focusInterval
)

// predictionDoneMsg carries the prediction client's answer back to the form.
type predictionDoneMsg struct {
	upload model.Upload
	rows   model.ResultSet
	err    error
}

// historyLoadedMsg replaces the displayed result with a stored one.
type historyLoadedMsg struct {
	id   string
	rows model.ResultSet
}

// FormPage is the upload form: file path, time interval, submit control and
// the single outcome area below them.
type FormPage struct {
	state     form.State
	predictor model.Predictor
	history   model.HistoryWriter
	outputDir string
	keys      KeyMap

	fileInput     textinput.Model
	intervalInput textinput.Model
	focus         int
	viewport      viewport.Model
	showTotals    bool
	status        string
}

// FormOptions configures a FormPage.
type FormOptions struct {
	Predictor model.Predictor
	History   model.HistoryWriter // optional
	OutputDir string
}

// NewFormPage creates the form page.
func NewFormPage(opts FormOptions) *FormPage {
	fi := textinput.New()
	fi.Placeholder = "path/to/traffic.csv"
	fi.Prompt = ""
	fi.CharLimit = 1024
	fi.Focus()

	ii := textinput.New()
	ii.Placeholder = "e.g. 15min"
	ii.Prompt = ""
	ii.CharLimit = 64

	return &FormPage{
		predictor:     opts.Predictor,
		history:       opts.History,
		outputDir:     opts.OutputDir,
		keys:          DefaultKeyMap(),
		fileInput:     fi,
		intervalInput: ii,
		viewport:      viewport.New(80, 20),
	}
}

func (p *FormPage) ID() string { return PageForm }

func (p *FormPage) Init() tea.Cmd { return textinput.Blink }

// State returns the current form state.
func (p *FormPage) State() form.State { return p.state }

func (p *FormPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.viewport.Width = max(20, msg.Width-2)
		p.viewport.Height = max(3, msg.Height-14)
		return nil, nil

	case SpinnerTickMsg:
		if p.state.Status == form.Loading {
			return spinnerTick(), nil
		}
		return nil, nil

	case predictionDoneMsg:
		return p.finish(msg), nil

	case historyLoadedMsg:
		if p.state.Status == form.Loading {
			return nil, nil
		}
		p.state = p.state.SubmitSuccess(msg.rows)
		p.status = "Loaded submission " + msg.id
		p.refreshViewport()
		return nil, nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return nil, nil
}

func (p *FormPage) handleKey(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	switch {
	case key.Matches(msg, p.keys.Quit):
		return tea.Quit, nil
	case key.Matches(msg, p.keys.History):
		return nil, &PageNav{PageID: PageHistory}
	case key.Matches(msg, p.keys.NextField, p.keys.PrevField):
		p.toggleFocus()
		return nil, nil
	case key.Matches(msg, p.keys.Submit):
		return p.submit(), nil
	case key.Matches(msg, p.keys.Enter):
		if p.focus == focusFile {
			p.loadFile()
			p.toggleFocus()
			return nil, nil
		}
		return p.submit(), nil
	case key.Matches(msg, p.keys.ExportCSV):
		p.exportWith("CSV", export.WriteCSV)
		return nil, nil
	case key.Matches(msg, p.keys.ExportXLS):
		p.exportWith("XLSX", export.WriteXLSX)
		return nil, nil
	case key.Matches(msg, p.keys.Totals):
		p.showTotals = !p.showTotals
		p.refreshViewport()
		return nil, nil
	case key.Matches(msg, p.keys.PageUp):
		p.viewport.HalfPageUp()
		return nil, nil
	case key.Matches(msg, p.keys.PageDown):
		p.viewport.HalfPageDown()
		return nil, nil
	}

	var cmd tea.Cmd
	if p.focus == focusFile {
		p.fileInput, cmd = p.fileInput.Update(msg)
	} else {
		p.intervalInput, cmd = p.intervalInput.Update(msg)
		p.state = form.Reduce(p.state, form.IntervalChanged{Text: p.intervalInput.Value()})
	}
	return cmd, nil
}

func (p *FormPage) toggleFocus() {
	if p.focus == focusFile {
		p.focus = focusInterval
		p.fileInput.Blur()
		p.intervalInput.Focus()
		return
	}
	p.focus = focusFile
	p.intervalInput.Blur()
	p.fileInput.Focus()
}

// loadFile reads the path typed in the file field into the form state.
// It reports false when the file could not be read.
func (p *FormPage) loadFile() bool {
	path := strings.TrimSpace(p.fileInput.Value())
	if path == "" {
		return true
	}
	if p.state.Status == form.Loading {
		p.status = "Wait for the running prediction to finish"
		return true
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("tui: read %s: %v", path, err)
		p.state = form.Reduce(p.state, form.SubmitFailed{Outcome: form.Invalid(model.MsgUnreadableFile)})
		p.refreshViewport()
		return false
	}
	p.state = form.Reduce(p.state, form.FileSelected{
		File: form.SelectedFile{Name: filepath.Base(path), Data: data},
	})
	p.status = ""
	p.refreshViewport()
	return true
}

// submit validates the form and starts the request. Nothing is sent when
// validation fails or a request is already in flight.
func (p *FormPage) submit() tea.Cmd {
	if p.state.File == nil && strings.TrimSpace(p.fileInput.Value()) != "" {
		if !p.loadFile() {
			return nil
		}
	}
	p.state = form.Reduce(p.state, form.IntervalChanged{Text: p.intervalInput.Value()})

	next, up, err := p.state.SubmitStart()
	p.state = next
	p.status = ""
	p.refreshViewport()
	if err != nil {
		if errors.Is(err, form.ErrBusy) {
			p.status = "A prediction is already running"
		}
		return nil
	}

	predictor := p.predictor
	return tea.Batch(
		func() tea.Msg {
			rows, err := predictor.Predict(context.Background(), up)
			return predictionDoneMsg{upload: up, rows: rows, err: err}
		},
		spinnerTick(),
	)
}

func (p *FormPage) finish(msg predictionDoneMsg) tea.Cmd {
	if p.state.Status != form.Loading {
		return nil
	}
	p.state = form.Reduce(p.state, form.ResultEvent(msg.rows, msg.err))
	p.refreshViewport()

	if p.history == nil {
		return nil
	}
	sub := form.SubmissionOf(msg.upload, p.state.Outcome)
	history := p.history
	return func() tea.Msg {
		if _, err := history.RecordSubmission(sub); err != nil {
			log.Printf("tui: record submission: %v", err)
		}
		return nil
	}
}

func (p *FormPage) exportWith(label string, write func(string, model.ResultSet) (string, error)) {
	rs := p.state.Result()
	if len(rs) == 0 {
		return
	}
	path, err := write(p.outputDir, rs)
	if err != nil {
		log.Printf("tui: export %s: %v", label, err)
		p.status = "Export failed: " + err.Error()
		return
	}
	p.status = "Saved " + path
}

func (p *FormPage) refreshViewport() {
	content := renderOutcome(p.state.Outcome, p.viewport.Width)
	if p.showTotals && p.state.Outcome.Kind == form.KindOK {
		content = lipgloss.JoinVertical(lipgloss.Left,
			content, "", renderTotalsChart(p.state.Result(), p.viewport.Width))
	}
	p.viewport.SetContent(content)
}

func (p *FormPage) View(width, height int) string {
	title := renderBranding("Traffic Prediction")

	fileLabel := labelStyle.Render("CSV file: ") + helpStyle.Render("["+p.state.FileLabel()+"]")
	fields := lipgloss.JoinVertical(lipgloss.Left,
		fileLabel,
		p.fieldView("Path", p.fileInput, p.focus == focusFile),
		p.fieldView("Time interval", p.intervalInput, p.focus == focusInterval),
		"",
		p.buttonView(),
	)
	card := cardStyle.Width(panelWidth(width)).Render(fields)

	help := helpStyle.Render(helpLine(
		p.keys.Enter, p.keys.ExportCSV, p.keys.ExportXLS,
		p.keys.Totals, p.keys.History, p.keys.Quit,
	))

	parts := []string{title, card}
	if p.state.Outcome.Kind != form.KindNone {
		parts = append(parts, p.viewport.View())
	}
	if p.status != "" {
		parts = append(parts, statusLineStyle.Render(" "+p.status+" "))
	}
	parts = append(parts, help)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (p *FormPage) fieldView(label string, in textinput.Model, focused bool) string {
	l := labelStyle.Render(label + ": ")
	if focused {
		l = labelStyle.Foreground(ColorBlue).Render("› " + label + ": ")
	}
	return l + in.View()
}

func (p *FormPage) buttonView() string {
	if p.state.Status == form.Loading {
		return disabledButtonStyle.Render(p.state.SubmitLabel()) + " " + renderLoading("waiting for server")
	}
	return buttonStyle.Render(p.state.SubmitLabel())
}
