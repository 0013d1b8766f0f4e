package txnset

import (
	"io"

	"github.com/ruichu233/tpcgo/component"
	"github.com/ruichu233/tpcgo/internal/applog"
	"github.com/ruichu233/tpcgo/logrecord"
	"github.com/ruichu233/tpcgo/phase"
)

// Dialer reopens a remote connection from the URL embedded in a log
// action line. During live phases the caller owns the connection; during
// recovery the Dialer reacquires it fresh, per spec.md §9 ("Connection
// ownership across components").
type Dialer func(url string) (component.RemoteConn, error)

// Load reconstructs a Set from its log file, in the manner of
// spec.md §4.6 "Reload": phase lines advance the tracked phase, action
// lines create a member whose connection is reopened from the embedded
// URL. Members are appended in file order, exactly as they were written —
// no deduplication by name is performed, matching the original
// implementation; recovery's per-member probe step resolves duplicates
// for an already-settled member harmlessly (it finds zero rows for both
// and drops both).
//
// A phase-label mismatch between an action line and the last phase line
// seen, or a connection string without the postgresql:// scheme, is
// logged as a warning and does not abort the load, per spec.md §4.2.
func Load(prefix, logPath string, file fileHandle, r io.Reader, dial Dialer) (*Set, error) {
	s := &Set{
		Prefix:  prefix,
		LogPath: logPath,
		file:    file,
		w:       logrecord.NewWriter(file),
	}

	currentLabel := phase.LabelOf(phase.Begin)
	reader := logrecord.NewReader(r)
	for {
		line, ok := reader.Next()
		if !ok {
			break
		}
		rec, err := logrecord.ParseLine(line)
		if err != nil {
			return nil, err
		}
		switch v := rec.(type) {
		case *logrecord.PhaseLine:
			p, err := phase.PhaseOf(v.Label)
			if err != nil {
				return nil, err
			}
			s.Phase = p
			currentLabel = v.Label
			switch p {
			case phase.Commit:
				s.DecidedPhase = phase.Commit
			case phase.Rollback:
				s.DecidedPhase = phase.Rollback
			case phase.Incomplete:
				applog.Warnf("incomplete txnset %s found, entering recovery", prefix)
			}
		case *logrecord.ActionLine:
			if !logrecord.HasConnPrefix(v.URL) {
				applog.Warnf("%s in set %s does not look like a connection string, ignoring", v.URL, prefix)
				continue
			}
			if v.PhaseLabel != currentLabel {
				applog.Warnf("set %s: action line phase %q does not match current phase %q",
					prefix, v.PhaseLabel, currentLabel)
			}
			conn, err := dial(v.URL)
			if err != nil {
				applog.Warnf("set %s: could not reopen connection %s: %v", prefix, v.URL, err)
				continue
			}
			s.Members = append(s.Members, &Member{Conn: conn, Name: v.Name, URL: v.URL})
		}
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	return s, nil
}
