// Package outcome reports whether an operation ran on its primary path,
// fell back to a degraded path, or failed.
package outcome

import "fmt"

// Status classifies an Outcome.
type Status int

const (
	// StatusOK means the primary path ran.
	StatusOK Status = iota
	// StatusDegraded means a fallback path produced the result.
	StatusDegraded
	// StatusFailed means no usable result was produced.
	StatusFailed
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDegraded:
		return "degraded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is returned next to a value instead of signalling fallbacks
// through errors.
type Outcome struct {
	Status Status
	Reason string
	Err    error
}

// OK returns a successful Outcome.
func OK() Outcome {
	return Outcome{Status: StatusOK}
}

// Degraded returns an Outcome for a fallback path.
func Degraded(reason string) Outcome {
	return Outcome{Status: StatusDegraded, Reason: reason}
}

// DegradedErr is Degraded with the error that forced the fallback.
func DegradedErr(reason string, err error) Outcome {
	return Outcome{Status: StatusDegraded, Reason: reason, Err: err}
}

// Failed returns an Outcome for a hard failure.
func Failed(reason string, err error) Outcome {
	return Outcome{Status: StatusFailed, Reason: reason, Err: err}
}

// IsOK reports whether the primary path ran.
func (o Outcome) IsOK() bool { return o.Status == StatusOK }

// IsDegraded reports whether a fallback path ran.
func (o Outcome) IsDegraded() bool { return o.Status == StatusDegraded }

// Worse returns whichever of o and other has the more severe status,
// preferring o on ties.
func (o Outcome) Worse(other Outcome) Outcome {
	if other.Status > o.Status {
		return other
	}
	return o
}

// String formats the outcome for logs.
func (o Outcome) String() string {
	if o.Reason == "" {
		return o.Status.String()
	}
	return o.Status.String() + ": " + o.Reason
}
