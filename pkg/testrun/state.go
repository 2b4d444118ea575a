package testrun

// StateKind is the phase of the run.
type StateKind int

const (
	StateFirstRun StateKind = iota
	StateIdle
	StateBuilding
	StateRunning
	StateBuildFailed
	StateFailed
)

func (k StateKind) String() string {
	switch k {
	case StateFirstRun:
		return "first run"
	case StateIdle:
		return "idle"
	case StateBuilding:
		return "building"
	case StateRunning:
		return "running"
	case StateBuildFailed:
		return "build failed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the run phase plus the message Building, BuildFailed and Failed carry.
type State struct {
	Kind    StateKind
	Message string
}

// Busy reports whether a run is in progress.
func (s State) Busy() bool {
	return s.Kind == StateBuilding || s.Kind == StateRunning
}

func (s State) String() string {
	if s.Message == "" {
		return s.Kind.String()
	}
	return s.Kind.String() + ": " + s.Message
}
