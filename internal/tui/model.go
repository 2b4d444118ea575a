// Package tui presents the live test run: an interactive bubbletea view for
// terminals and a line printer for everything else.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dkoosis/retest/internal/coverage"
	"github.com/dkoosis/retest/internal/logging"
	"github.com/dkoosis/retest/pkg/actor"
	"github.com/dkoosis/retest/pkg/testrun"
)

const maxLogLines = 4

// Sources are the channels the view subscribes to. Any may be nil.
type Sources struct {
	Events   *actor.Receiver[testrun.Event]
	Coverage *actor.Receiver[coverage.Status]
	Logs     *actor.Receiver[logging.Entry]
}

// Controls are the actions the keyboard can request.
type Controls struct {
	Trigger        func(testrun.Trigger)
	ToggleCoverage func() bool
}

// Run shows the interactive view until the user quits or ctx ends.
func Run(ctx context.Context, src Sources, ctl Controls, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(newModel(src, ctl), opts...).Run()
	return err
}

type model struct {
	src    Sources
	ctl    Controls
	styles *Styles

	run      *testrun.TestRun
	coverage coverage.Status
	logs     []logging.Entry
	pinned   testrun.TestID
	notice   string

	selected int
	spinner  spinner.Model
	viewport viewport.Model
	width    int
	height   int
	ready    bool
}

func newModel(src Sources, ctl Controls) model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	vp := viewport.New(0, 0)
	return model{
		src:      src,
		ctl:      ctl,
		styles:   DefaultStyles(),
		run:      testrun.New(),
		coverage: coverage.Disabled(),
		spinner:  sp,
		viewport: vp,
	}
}

type eventMsg testrun.Event
type coverageMsg coverage.Status
type logMsg logging.Entry
type closedMsg struct{}

// listen turns one blocking receive into a message.
func listen[T any, M any](rx *actor.Receiver[T], wrap func(T) M) tea.Cmd {
	if rx == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := rx.Recv()
		if !ok {
			return closedMsg{}
		}
		return wrap(v)
	}
}

func (m model) listenEvents() tea.Cmd {
	return listen(m.src.Events, func(e testrun.Event) eventMsg { return eventMsg(e) })
}

func (m model) listenCoverage() tea.Cmd {
	return listen(m.src.Coverage, func(s coverage.Status) coverageMsg { return coverageMsg(s) })
}

func (m model) listenLogs() tea.Cmd {
	return listen(m.src.Logs, func(e logging.Entry) logMsg { return logMsg(e) })
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.listenEvents(), m.listenCoverage(), m.listenLogs(), m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.detailWidth() - 4
		m.viewport.Height = max(m.bodyHeight()-2, 1)
		m.ready = true
		m.refreshViewport()

	case eventMsg:
		m.run.Apply(testrun.Event(msg))
		if m.selected >= m.run.Tests.Len() {
			m.selected = max(m.run.Tests.Len()-1, 0)
		}
		m.refreshViewport()
		return m, m.listenEvents()

	case coverageMsg:
		m.coverage = coverage.Status(msg)
		return m, m.listenCoverage()

	case logMsg:
		m.logs = append(m.logs, logging.Entry(msg))
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		return m, m.listenLogs()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
			m.refreshViewport()
		}
	case "down", "j":
		if m.selected < m.run.Tests.Len()-1 {
			m.selected++
			m.refreshViewport()
		}
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case "r":
		m.trigger(testrun.DefaultRun())
	case "enter":
		if id, ok := m.selectedID(); ok {
			m.trigger(testrun.SingleTestRun(id, false))
		}
	case "a":
		if id, ok := m.selectedID(); ok {
			m.trigger(testrun.SingleTestRun(id, true))
			m.notice = "approving snapshots for " + string(id)
		}
	case "p":
		if id, ok := m.selectedID(); ok {
			m.pinned = id
			m.trigger(testrun.PinTest(id))
		}
	case "u":
		m.pinned = ""
		m.trigger(testrun.ClearPinned())
	case "c":
		if m.ctl.ToggleCoverage != nil {
			if m.ctl.ToggleCoverage() {
				m.notice = "coverage on from next full run"
			} else {
				m.notice = "coverage off"
			}
		}
	}
	return m, nil
}

func (m *model) trigger(t testrun.Trigger) {
	if m.ctl.Trigger != nil {
		m.ctl.Trigger(t)
	}
}

func (m model) selectedID() (testrun.TestID, bool) {
	tests := m.run.Tests.All()
	if m.selected < 0 || m.selected >= len(tests) {
		return "", false
	}
	return tests[m.selected].ID, true
}

func (m *model) refreshViewport() {
	tests := m.run.Tests.All()
	if m.selected < 0 || m.selected >= len(tests) {
		m.viewport.SetContent(m.styles.Muted.Render("No tests yet"))
		return
	}
	m.viewport.SetContent(renderOutput(tests[m.selected], m.styles))
}
