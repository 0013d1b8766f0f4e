// Package phase defines the coordinator's six-phase automaton and the
// legal-transition relation between its members.
package phase

import "github.com/ruichu233/tpcgo/internal/txnerrors"

// Phase is one value of the coordinator's state machine. Phases are
// ordered only with respect to IsValidTransition, never numerically.
type Phase int

const (
	// Begin is the initial value assigned at set creation. No transition
	// ever targets Begin; it must not be passed to IsValidTransition as a
	// destination.
	Begin Phase = iota
	Prepare
	Commit
	Rollback
	Complete
	Incomplete
)

var labels = [...]string{
	Begin:      "begin",
	Prepare:    "prepare",
	Commit:     "commit",
	Rollback:   "rollback",
	Complete:   "complete",
	Incomplete: "incomplete",
}

// LabelOf returns the lowercase log label for p.
func LabelOf(p Phase) string {
	if int(p) < 0 || int(p) >= len(labels) {
		return ""
	}
	return labels[p]
}

// PhaseOf parses a log label back into a Phase. It fails with
// InvalidTransactionState if label is not one of the six recognized
// values.
func PhaseOf(label string) (Phase, error) {
	for p, l := range labels {
		if l == label {
			return Phase(p), nil
		}
	}
	return Begin, txnerrors.Invalid("unrecognized phase label: " + label)
}

// legal holds the transition table from §4.1: legal[old] is the set of
// phases old may legally transition to.
var legal = map[Phase]map[Phase]bool{
	Begin:      {Prepare: true},
	Prepare:    {Commit: true, Rollback: true},
	Commit:     {Complete: true, Incomplete: true},
	Rollback:   {Complete: true, Incomplete: true},
	Incomplete: {Complete: true},
}

// IsValidTransition reports whether moving from old to new is legal.
// Nothing transitions into Begin, so new == Begin returns false for every
// old value; Complete is terminal, so old == Complete returns false for
// every new value.
func IsValidTransition(old, new Phase) bool {
	return legal[old][new]
}
