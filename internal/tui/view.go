package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkoosis/retest/internal/coverage"
	"github.com/dkoosis/retest/pkg/testrun"
)

var titleCase = cases.Title(language.English)

func (m model) listWidth() int {
	w := m.width / 3
	if w < 24 {
		w = 24
	}
	return w
}

func (m model) detailWidth() int {
	return max(m.width-m.listWidth()-1, 20)
}

// bodyHeight leaves room for the title, coverage line, log lines and help.
func (m model) bodyHeight() int {
	return max(m.height-4-maxLogLines, 5)
}

func (m model) View() string {
	if !m.ready {
		return "Starting retest..."
	}
	title := m.styles.Title.Width(m.width).Render(m.header())
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderList(), m.renderDetail())
	footer := []string{m.coverageLine()}
	for _, e := range m.logs {
		footer = append(footer, m.styles.Muted.Render(truncate(fmt.Sprintf("%s %s %s", e.Time.Format("15:04:05"), e.Message, e.Attrs), m.width)))
	}
	help := "j/k move • enter run • p pin • u unpin • a approve • c coverage • r rerun • q quit"
	if m.notice != "" {
		help = m.notice + "  " + help
	}
	footer = append(footer, m.styles.StatusBar.Render(truncate(help, m.width)))
	return lipgloss.JoinVertical(lipgloss.Left, title, body, strings.Join(footer, "\n"))
}

func (m model) header() string {
	passed, failed, unknown := m.run.Tests.Counts()
	label := stateLabel(m.run.State)
	if m.run.State.Busy() {
		label = m.spinner.View() + " " + label
	}
	s := fmt.Sprintf("retest  %s  ✓ %d  ✗ %d  ? %d", label, passed, failed, unknown)
	if m.pinned != "" {
		s += "  pinned: " + string(m.pinned)
	}
	return s
}

// stateLabel renders the run state as a title-cased heading.
func stateLabel(s testrun.State) string {
	return titleCase.String(s.Kind.String())
}

func (m model) renderList() string {
	width := m.listWidth()
	height := m.bodyHeight()
	tests := m.run.Tests.All()

	var lines []string
	if msg := m.stateMessage(); msg != "" {
		for _, l := range strings.Split(msg, "\n") {
			lines = append(lines, m.styles.Error.Render(truncate(l, width-4)))
		}
	}
	start := 0
	if m.selected >= height-len(lines) {
		start = m.selected - (height - len(lines)) + 1
	}
	for i := start; i < len(tests) && len(lines) < height; i++ {
		t := tests[i]
		text := truncate(statusIcon(t.Status)+" "+t.Name, width-4)
		switch {
		case i == m.selected:
			text = m.styles.Selected.Width(width - 4).Render(text)
		case t.ID == m.pinned:
			text = m.styles.Pinned.Render(text)
		case t.Status == testrun.StatusFailed:
			text = m.styles.Error.Render(text)
		}
		lines = append(lines, text)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return m.styles.ListBox.Width(width - 2).Render(strings.Join(lines, "\n"))
}

// stateMessage is shown above the list for states that carry one.
func (m model) stateMessage() string {
	switch m.run.State.Kind {
	case testrun.StateBuildFailed, testrun.StateFailed:
		return m.run.State.Message
	}
	return ""
}

func (m model) renderDetail() string {
	return m.styles.DetailBox.Width(m.detailWidth() - 2).Height(m.bodyHeight()).Render(m.viewport.View())
}

func renderOutput(t testrun.SingleTest, styles *Styles) string {
	head := fmt.Sprintf("%s %s (%s)", statusIcon(t.Status), string(t.ID), t.Status)
	if len(t.Output) == 0 {
		return head + "\n\n" + styles.Muted.Render("no output")
	}
	return head + "\n\n" + strings.Join(t.Output, "\n")
}

func (m model) coverageLine() string {
	s := m.coverage
	switch s.Kind {
	case coverage.StatusPreparing:
		return m.styles.Muted.Render("coverage: preparing")
	case coverage.StatusRunning:
		return m.styles.Muted.Render("coverage: " + m.spinner.View() + " generating report")
	case coverage.StatusDone:
		return m.styles.Success.Render(fmt.Sprintf("coverage: %.2f%% (%d/%d lines)", s.Report.Percent, s.Report.LinesCovered, s.Report.LinesTotal))
	case coverage.StatusError:
		return m.styles.Warn.Render(truncate(fmt.Sprintf("coverage error [%s]: %s", s.Reason, s.Message), m.width))
	default:
		return m.styles.Muted.Render("coverage: off")
	}
}

func statusIcon(s testrun.Status) string {
	switch s {
	case testrun.StatusPassed:
		return "✓"
	case testrun.StatusFailed:
		return "✗"
	default:
		return "·"
	}
}

// truncate shortens s to at most width terminal cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
