package debounce

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/retest/pkg/actor"
	"github.com/dkoosis/retest/pkg/cancel"
	"github.com/dkoosis/retest/pkg/testrun"
)

func TestHandle_CancelsEveryEarlierToken(t *testing.T) {
	t.Parallel()
	const n = 5
	tx, rx := actor.NewChannel[actor.Message[testrun.Trigger]]()
	d := New(tx, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for range n {
		d.Handle(Changed("pkg/a.go"), cancel.New())
	}

	require.Equal(t, n, rx.Len())
	for i := range n {
		m, ok := rx.TryRecv()
		require.True(t, ok)
		assert.Equal(t, testrun.DefaultRun(), m.Payload)
		assert.Equal(t, i < n-1, m.Cancel.IsCancelled(), "token %d", i+1)
	}
}

func TestHandle_PassesRequestedTriggerThrough(t *testing.T) {
	t.Parallel()
	tx, rx := actor.NewChannel[actor.Message[testrun.Trigger]]()
	d := New(tx, slog.New(slog.NewTextHandler(io.Discard, nil)))

	d.Handle(Changed("a.go"), cancel.New())
	d.Handle(Request(testrun.PinTest("p.TestA")), cancel.New())

	first, _ := rx.TryRecv()
	second, _ := rx.TryRecv()
	assert.True(t, first.Cancel.IsCancelled())
	assert.Equal(t, testrun.PinTest("p.TestA"), second.Payload)
	assert.False(t, second.Cancel.IsCancelled())
}

func TestStop_CancelsOutstandingAndClosesOutbox(t *testing.T) {
	t.Parallel()
	tx, rx := actor.NewChannel[actor.Message[testrun.Trigger]]()
	d := New(tx, slog.New(slog.NewTextHandler(io.Discard, nil)))
	d.Handle(Changed("a.go"), cancel.New())

	d.Stop()

	m, ok := rx.Recv()
	require.True(t, ok)
	assert.True(t, m.Cancel.IsCancelled())
	_, ok = rx.Recv()
	assert.False(t, ok)
}
