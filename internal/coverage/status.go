package coverage

import "errors"

// Each failure the engine can report has its own sentinel.
var (
	ErrToolMissing       = errors.New("coverage tool not installed")
	ErrCleanupIncomplete = errors.New("coverage artifacts could not all be removed")
	ErrArtifactsNotFound = errors.New("coverage artifacts directory not found")
	ErrNoArtifacts       = errors.New("no coverage artifacts exist")
	ErrMalformedReport   = errors.New("malformed coverage report")
	ErrReportFailed      = errors.New("coverage report generation failed")
)

// StatusKind is the phase of the coverage pipeline.
type StatusKind int

const (
	StatusDisabled StatusKind = iota
	StatusPreparing
	StatusRunning
	StatusDone
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusPreparing:
		return "preparing"
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return "disabled"
	}
}

// Reason names which failure produced a StatusError.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonToolMissing      Reason = "tool-missing"
	ReasonCleanup          Reason = "cleanup-incomplete"
	ReasonArtifactsMissing Reason = "artifacts-not-found"
	ReasonNoArtifacts      Reason = "no-artifacts"
	ReasonMalformed        Reason = "malformed-report"
	ReasonReportFailed     Reason = "report-failed"
	ReasonOther            Reason = "other"
)

var reasons = []struct {
	err    error
	reason Reason
}{
	{ErrToolMissing, ReasonToolMissing},
	{ErrCleanupIncomplete, ReasonCleanup},
	{ErrArtifactsNotFound, ReasonArtifactsMissing},
	{ErrNoArtifacts, ReasonNoArtifacts},
	{ErrMalformedReport, ReasonMalformed},
	{ErrReportFailed, ReasonReportFailed},
}

// ReasonOf classifies err by the sentinel it wraps.
func ReasonOf(err error) Reason {
	if err == nil {
		return ReasonNone
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return ReasonOther
}

// Status is what subscribers see of the coverage pipeline.
// Report is set for StatusDone; Reason and Message for StatusError.
type Status struct {
	Kind    StatusKind
	Report  *Report
	Reason  Reason
	Message string
}

func Disabled() Status  { return Status{Kind: StatusDisabled} }
func Preparing() Status { return Status{Kind: StatusPreparing} }
func Running() Status   { return Status{Kind: StatusRunning} }

func Done(r *Report) Status { return Status{Kind: StatusDone, Report: r} }

// Failed converts err to a displayable status.
func Failed(err error) Status {
	return Status{Kind: StatusError, Reason: ReasonOf(err), Message: err.Error()}
}
