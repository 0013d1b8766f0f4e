// Package txnset models a transaction set: the unit of atomicity described
// in spec.md §3 — a prefix, an ordered sequence of remote members, the
// current phase, and the durable log handle that backs it.
package txnset

import (
	"github.com/ruichu233/tpcgo/internal/txnerrors"
	"github.com/ruichu233/tpcgo/logrecord"
	"github.com/ruichu233/tpcgo/phase"
)

// fileHandle is the subset of txnstore.File a Set needs: write, fsync,
// and close. Set depends on this narrow interface rather than txnstore
// directly so txnstore never needs to import txnset.
type fileHandle interface {
	Write([]byte) (int, error)
	Sync() error
	Close() error
}

// Set is the in-memory model of one transaction set.
type Set struct {
	Prefix  string
	Phase   phase.Phase
	Members []*Member
	LogPath string

	// DecidedPhase is the last of {Commit, Rollback} this set entered.
	// It starts at Begin (its zero value), which ShouldCommit treats
	// as "no decision was ever logged" and resolves to rollback — the
	// crash-before-any-decision case in spec.md scenario 4.
	DecidedPhase phase.Phase

	counter uint64
	file    fileHandle
	w       *logrecord.Writer
}

// New creates the in-memory model for a freshly created, freshly locked
// log file and writes its BEGIN phase line. file is closed by Set.Close
// or Set.Finalize.
func New(prefix, logPath string, file fileHandle) (*Set, error) {
	s := &Set{
		Prefix:  prefix,
		Phase:   phase.Begin,
		LogPath: logPath,
		file:    file,
		w:       logrecord.NewWriter(file),
	}
	if err := s.w.WritePhase(phase.LabelOf(phase.Begin)); err != nil {
		return nil, txnerrors.Internalf("could not write BEGIN phase record", err)
	}
	return s, nil
}

// EnterPrepare transitions the set into PREPARE ahead of registering a
// member. The first call (from BEGIN) writes the phase line; subsequent
// calls while already in PREPARE are a no-op self-loop per the state
// diagram in spec.md §4.3 — every registration after the first stays in
// PREPARE without rewriting the phase line. Any other current phase means
// the set has already moved past registration and cannot accept a new
// member.
func (s *Set) EnterPrepare() error {
	switch s.Phase {
	case phase.Begin:
		if !phase.IsValidTransition(phase.Begin, phase.Prepare) {
			return txnerrors.Invalid("cannot enter PREPARE from BEGIN")
		}
		if err := s.w.WritePhase(phase.LabelOf(phase.Prepare)); err != nil {
			return txnerrors.Internalf("could not write PREPARE phase record", err)
		}
		s.Phase = phase.Prepare
		return nil
	case phase.Prepare:
		return nil
	default:
		return txnerrors.Invalid("cannot register a member while set is in phase " + phase.LabelOf(s.Phase))
	}
}

// NextMemberName increments the set's counter and derives the next
// member's name, validating it against the remote naming bound.
func (s *Set) NextMemberName() (string, error) {
	s.counter++
	return deriveName(s.Prefix, s.counter)
}

// WritePrepareTodo records the "todo" evidence line for a member about to
// be prepared, before the remote PREPARE TRANSACTION is issued.
func (s *Set) WritePrepareTodo(url, name string) error {
	if err := s.w.WriteAction(phase.LabelOf(phase.Prepare), url, name, logrecord.Todo); err != nil {
		return txnerrors.Internalf("could not write PREPARE todo record", err)
	}
	return nil
}

// AppendMember appends m to the set's ordered member list. Called only
// after the remote PREPARE has succeeded.
func (s *Set) AppendMember(m *Member) {
	s.Members = append(s.Members, m)
}

// EnterCommit transitions PREPARE -> COMMIT, writes the phase line, and
// records COMMIT as the set's decided terminal command.
func (s *Set) EnterCommit() error {
	if err := s.enterDriveState(phase.Commit); err != nil {
		return err
	}
	s.DecidedPhase = phase.Commit
	return nil
}

// EnterRollback transitions PREPARE -> ROLLBACK, writes the phase line,
// and records ROLLBACK as the set's decided terminal command.
func (s *Set) EnterRollback() error {
	if err := s.enterDriveState(phase.Rollback); err != nil {
		return err
	}
	s.DecidedPhase = phase.Rollback
	return nil
}

func (s *Set) enterDriveState(target phase.Phase) error {
	if !phase.IsValidTransition(s.Phase, target) {
		return txnerrors.Invalid("cannot drive to " + phase.LabelOf(target) + " from " + phase.LabelOf(s.Phase))
	}
	if err := s.w.WritePhase(phase.LabelOf(target)); err != nil {
		return txnerrors.Internalf("could not write "+phase.LabelOf(target)+" phase record", err)
	}
	s.Phase = target
	return nil
}

// WriteMemberOutcome records a member's terminal COMMIT/ROLLBACK outcome.
func (s *Set) WriteMemberOutcome(url, name string, ok bool) error {
	status := logrecord.OK
	if !ok {
		status = logrecord.Bad
	}
	if err := s.w.WriteAction(phase.LabelOf(s.Phase), url, name, status); err != nil {
		return txnerrors.Internalf("could not write member outcome record", err)
	}
	return nil
}

// Finalize writes the terminal phase line (COMPLETE or INCOMPLETE
// depending on canComplete), closes the log handle, and updates the
// in-memory phase to match. It does not remove the log file; the caller
// (coordinator) does that for COMPLETE using the store, since Set itself
// has no reference to the store.
func (s *Set) Finalize(canComplete bool) error {
	target := phase.Complete
	if !canComplete {
		target = phase.Incomplete
	}
	if err := s.w.WritePhase(phase.LabelOf(target)); err != nil {
		s.file.Close()
		return txnerrors.Internalf("could not write terminal phase record", err)
	}
	s.Phase = target
	return s.file.Close()
}

// Close closes the underlying log file without writing a terminal phase;
// used by callers abandoning a Set before it reaches a terminal phase.
func (s *Set) Close() error {
	return s.file.Close()
}

// RemoveMember removes the member at index i, preserving the order of the
// remaining members. This is the mark-and-compact removal semantics
// spec.md §9 calls for in place of the original's hand-rolled linked-list
// splice.
func (s *Set) RemoveMember(i int) {
	s.Members = append(s.Members[:i], s.Members[i+1:]...)
}

// MarkIncomplete records that a reconcile pass ended with members still
// unresolved. Unlike enterDriveState this does not check the transition
// table: the recovery loop re-asserts INCOMPLETE on every pass regardless
// of whether the prior phase line already said so, so an operator reading
// the log mid-recovery sees recent evidence of forward progress rather
// than a stale COMMIT/ROLLBACK line (spec.md §4.6 step 3).
func (s *Set) MarkIncomplete() error {
	if err := s.w.WritePhase(phase.LabelOf(phase.Incomplete)); err != nil {
		return txnerrors.Internalf("could not write INCOMPLETE phase record", err)
	}
	s.Phase = phase.Incomplete
	return nil
}

// ShouldCommit reports which remote command recovery should issue for
// this set's members (spec.md §4.6): a COMMIT-era set resumes with
// COMMIT PREPARED; a ROLLBACK-era set, or one that crashed before any
// decision was logged, resumes with ROLLBACK PREPARED.
func (s *Set) ShouldCommit() bool {
	return s.DecidedPhase == phase.Commit
}
