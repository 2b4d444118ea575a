package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/retest/internal/coverage"
	"github.com/dkoosis/retest/pkg/actor"
	"github.com/dkoosis/retest/pkg/testrun"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func finished(id string, st testrun.Status, out ...string) eventMsg {
	return eventMsg(testrun.TestFinished(testrun.SingleTest{ID: testrun.TestID(id), Name: id, Status: st, Output: out}))
}

func step(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(model)
	require.True(t, ok)
	return out
}

func TestModel_FoldsEventsAndClampsSelection(t *testing.T) {
	t.Parallel()
	m := newModel(Sources{}, Controls{})
	m = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m = step(t, m, eventMsg(testrun.Start()))
	m = step(t, m, finished("pkg.TestA", testrun.StatusPassed))
	m = step(t, m, finished("pkg.TestB", testrun.StatusFailed, "boom"))

	assert.Equal(t, 2, m.run.Tests.Len())
	m = step(t, m, key("j"))
	m = step(t, m, key("j"))
	assert.Equal(t, 1, m.selected)
	assert.Contains(t, m.viewport.View(), "boom")

	m = step(t, m, eventMsg(testrun.StartSingle("pkg.TestA", true)))
	assert.Equal(t, 1, m.run.Tests.Len())
	assert.Equal(t, 0, m.selected)
}

func TestModel_KeysSendTriggers(t *testing.T) {
	t.Parallel()
	var got []testrun.Trigger
	coverageOn := false
	m := newModel(Sources{}, Controls{
		Trigger: func(tr testrun.Trigger) { got = append(got, tr) },
		ToggleCoverage: func() bool {
			coverageOn = !coverageOn
			return coverageOn
		},
	})
	m = step(t, m, finished("pkg.TestA", testrun.StatusPassed))

	for _, k := range []string{"r", "enter", "a", "p", "u"} {
		m = step(t, m, key(k))
	}

	require.Len(t, got, 5)
	assert.Equal(t, testrun.DefaultRun(), got[0])
	assert.Equal(t, testrun.SingleTestRun("pkg.TestA", false), got[1])
	assert.Equal(t, testrun.SingleTestRun("pkg.TestA", true), got[2])
	assert.Equal(t, testrun.PinTest("pkg.TestA"), got[3])
	assert.Equal(t, testrun.ClearPinned(), got[4])
	assert.Empty(t, m.pinned)

	m = step(t, m, key("c"))
	assert.True(t, coverageOn)
	assert.Equal(t, "coverage on from next full run", m.notice)
}

func TestModel_NoSelectionSendsNothing(t *testing.T) {
	t.Parallel()
	var got []testrun.Trigger
	m := newModel(Sources{}, Controls{Trigger: func(tr testrun.Trigger) { got = append(got, tr) }})
	for _, k := range []string{"enter", "a", "p"} {
		m = step(t, m, key(k))
	}
	assert.Empty(t, got)
}

func TestModel_Quit(t *testing.T) {
	t.Parallel()
	_, cmd := newModel(Sources{}, Controls{}).Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_ListensToSources(t *testing.T) {
	t.Parallel()
	tx, rx := actor.NewChannel[testrun.Event]()
	m := newModel(Sources{Events: rx}, Controls{})

	tx.Send(testrun.Compiling("building"))
	msg := m.listenEvents()()
	assert.Equal(t, eventMsg(testrun.Compiling("building")), msg)

	tx.Close()
	assert.Equal(t, closedMsg{}, m.listenEvents()())
	assert.Nil(t, m.listenCoverage())
}

func TestModel_View(t *testing.T) {
	t.Parallel()
	m := newModel(Sources{}, Controls{})
	assert.Equal(t, "Starting retest...", m.View())

	m = step(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m = step(t, m, finished("pkg.TestA", testrun.StatusPassed))
	m = step(t, m, eventMsg(testrun.TestsCompleted()))
	m = step(t, m, coverageMsg(coverage.Done(&coverage.Report{Percent: 62.5, LinesCovered: 5, LinesTotal: 8})))

	view := m.View()
	assert.Contains(t, view, "Idle")
	assert.Contains(t, view, "pkg.TestA")
	assert.Contains(t, view, "coverage: 62.50% (5/8 lines)")
}

func TestStateLabel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Build Failed", stateLabel(testrun.State{Kind: testrun.StateBuildFailed}))
	assert.Equal(t, "First Run", stateLabel(testrun.State{Kind: testrun.StateFirstRun}))
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "", truncate("abc", 0))
}

func TestPlain_PrintsRun(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	p := NewPlain(&buf)

	p.Event(testrun.Start())
	p.Event(testrun.TestFinished(testrun.SingleTest{ID: "pkg.TestA", Status: testrun.StatusPassed}))
	p.Event(testrun.TestFinished(testrun.SingleTest{ID: "pkg.TestB", Status: testrun.StatusFailed, Output: []string{"want 1 got 2"}}))
	p.Event(testrun.TestsCompleted())
	p.Coverage(coverage.Running())
	p.Coverage(coverage.Failed(coverage.ErrToolMissing))

	want := strings.Join([]string{
		"=== running all tests",
		"✓ pkg.TestA",
		"✗ pkg.TestB",
		"    want 1 got 2",
		"--- idle: 1 passed, 1 failed, 0 other",
		"!!! coverage tool-missing: " + coverage.ErrToolMissing.Error(),
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestPlain_RunStopsWhenSourcesClose(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	etx, erx := actor.NewChannel[testrun.Event]()
	ctx, ctxCancel := context.WithCancel(context.Background())
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		NewPlain(&buf).Run(ctx, Sources{Events: erx})
		close(done)
	}()
	etx.Send(testrun.RunFailed(errors.New("exec: not found").Error()))
	etx.Close()
	<-done

	assert.Equal(t, "!!! run failed: exec: not found\n", buf.String())
}
