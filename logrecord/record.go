// Package logrecord implements the line-oriented, fsync-disciplined codec
// for the coordinator's write-ahead log (spec.md §3, §4.2).
package logrecord

import (
	"strings"

	"github.com/ruichu233/tpcgo/internal/txnerrors"
)

// MaxLineLen bounds a single log line, including its trailing newline.
const MaxLineLen = 512

// Status is the outcome of a remote command recorded on an action line.
type Status string

const (
	// Todo marks intent: the command has been decided but not yet
	// confirmed to have succeeded or failed on the remote.
	Todo Status = "todo"
	// OK marks a remote command that the driver reported as succeeding.
	OK Status = "OK"
	// Bad marks a remote command that the driver reported as failing.
	Bad Status = "BAD"
)

const connPrefix = "postgresql://"

// PhaseLine is a parsed "phase <label>" record.
type PhaseLine struct {
	Label string
}

// ActionLine is a parsed "<phase-label> postgresql://host:port/db name status"
// record.
type ActionLine struct {
	PhaseLabel string
	URL        string
	Name       string
	Status     Status
}

// EncodePhase renders a phase line for label.
func EncodePhase(label string) string {
	return "phase " + label + "\n"
}

// EncodeAction renders an action line for the given phase label, remote
// URL, member name, and status.
func EncodeAction(phaseLabel, url, name string, status Status) string {
	return phaseLabel + " " + url + " " + name + " " + string(status) + "\n"
}

// ParseLine classifies a single log line (without its trailing newline)
// into a *PhaseLine or *ActionLine. The first whitespace-delimited token
// decides the shape: the literal "phase" means a phase record, anything
// else an action record.
//
// ParseLine only performs shape validation (right number of fields, known
// status value). Context-dependent checks — whether an action line's phase
// token matches the set's current phase, and whether its connection string
// starts with postgresql:// — are warn-only per spec.md §4.2 and are left
// to the caller, which has that context; see txnset.Load.
func ParseLine(line string) (interface{}, error) {
	if len(line)+1 > MaxLineLen {
		return nil, txnerrors.Invalid("log line exceeds maximum length")
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, txnerrors.Invalid("empty log line")
	}
	if fields[0] == "phase" {
		if len(fields) != 2 {
			return nil, txnerrors.Invalid("malformed phase line: " + line)
		}
		return &PhaseLine{Label: fields[1]}, nil
	}
	if len(fields) != 4 {
		return nil, txnerrors.Invalid("malformed action line: " + line)
	}
	status := Status(fields[3])
	switch status {
	case Todo, OK, Bad:
	default:
		return nil, txnerrors.Invalid("unrecognized status in action line: " + line)
	}
	return &ActionLine{
		PhaseLabel: fields[0],
		URL:        fields[1],
		Name:       fields[2],
		Status:     status,
	}, nil
}

// HasConnPrefix reports whether url carries the postgresql:// scheme this
// codec requires; lines that fail this check are ignored with a warning by
// the caller rather than aborting the parse.
func HasConnPrefix(url string) bool {
	return strings.HasPrefix(url, connPrefix)
}
