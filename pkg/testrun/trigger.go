package testrun

// TriggerKind selects what a run covers.
type TriggerKind int

const (
	TriggerDefault TriggerKind = iota
	TriggerSingle
	TriggerPin
	TriggerClearPinned
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerSingle:
		return "single"
	case TriggerPin:
		return "pin"
	case TriggerClearPinned:
		return "clear-pinned"
	default:
		return "default"
	}
}

// Trigger requests a run. The zero value is DefaultRun.
type Trigger struct {
	Kind            TriggerKind
	ID              TestID
	UpdateSnapshots bool
}

func DefaultRun() Trigger { return Trigger{Kind: TriggerDefault} }

func SingleTestRun(id TestID, updateSnapshots bool) Trigger {
	return Trigger{Kind: TriggerSingle, ID: id, UpdateSnapshots: updateSnapshots}
}

func PinTest(id TestID) Trigger { return Trigger{Kind: TriggerPin, ID: id} }

func ClearPinned() Trigger { return Trigger{Kind: TriggerClearPinned} }
