package testrun

// TestRun is the aggregate of every event seen so far.
type TestRun struct {
	State State
	Tests Collection
}

// New returns an aggregate in the FirstRun state with no tests.
func New() *TestRun {
	return &TestRun{State: State{Kind: StateFirstRun}}
}

// Apply folds one event into the aggregate.
func (r *TestRun) Apply(e Event) {
	switch e.Kind {
	case EventStart:
		r.State = State{Kind: StateRunning}
		r.Tests.Each(func(t *SingleTest) bool {
			reset(t)
			return true
		})

	case EventStartSingle:
		r.State = State{Kind: StateRunning}
		if e.ClearOthers {
			r.Tests.RetainOnly(e.ID)
		}
		if t, ok := r.Tests.Find(e.ID); ok {
			reset(t)
		}

	case EventCompiling:
		r.State = State{Kind: StateBuilding, Message: e.Message}

	case EventBuildError:
		r.State = State{Kind: StateBuildFailed, Message: e.Message}

	case EventTestFinished:
		if r.State.Kind == StateBuilding {
			r.State = State{Kind: StateRunning}
		}
		if t, ok := r.Tests.Find(e.Test.ID); ok {
			t.Name = e.Test.Name
			t.Status = e.Test.Status
			t.Output = append(t.Output, e.Test.Output...)
			return
		}
		added := e.Test
		added.Output = append([]string(nil), e.Test.Output...)
		r.Tests.Add(added)

	case EventErrorOutput:
		t, ok := r.Tests.Find(e.ID)
		if !ok {
			r.Tests.Add(SingleTest{ID: e.ID, Name: string(e.ID)})
			t, _ = r.Tests.Find(e.ID)
		}
		t.Output = append(t.Output, e.Message)

	case EventNoTests:
		// Settled by the TestsCompleted that follows.

	case EventTestsCompleted:
		if r.State.Busy() {
			r.State = State{Kind: StateIdle}
		}

	case EventRunFailed:
		r.State = State{Kind: StateFailed, Message: e.Message}
	}
}

// ApplyAll folds events in order.
func (r *TestRun) ApplyAll(events []Event) {
	for _, e := range events {
		r.Apply(e)
	}
}

func reset(t *SingleTest) {
	t.Status = StatusUnknown
	t.Output = nil
}

// Snapshot is a detached copy of a TestRun.
type Snapshot struct {
	State State
	Tests []SingleTest
}

// Snapshot copies the aggregate so it can cross goroutines.
func (r *TestRun) Snapshot() Snapshot {
	return Snapshot{State: r.State, Tests: r.Tests.All()}
}
