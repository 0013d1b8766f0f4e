// Package txnstore implements the on-disk log directory layout: file
// creation, atomic unlink, enumeration, and the advisory file lock that
// interlocks a live session against an administrator-triggered cleanup on
// the same file (spec.md §3, §4.2, §9 Open Question (b)).
package txnstore

import (
	"os"
	"path/filepath"

	"github.com/ruichu233/tpcgo/internal/txnerrors"
)

// DefaultDirName is the fixed directory name below the data root that
// holds all set log files (spec.md §6).
const DefaultDirName = "extglobalxact"

// Store owns one log directory on disk.
type Store struct {
	dir string
}

// New returns a Store rooted at <dataRoot>/<DefaultDirName>.
func New(dataRoot string) *Store {
	return &Store{dir: filepath.Join(dataRoot, DefaultDirName)}
}

// Dir returns the log directory path.
func (s *Store) Dir() string { return s.dir }

// EnsureDir creates the log directory with mode 0700 if it does not yet
// exist. Failing to create it is fatal to the caller.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return txnerrors.Internalf("could not create log directory "+s.dir, err)
	}
	return nil
}

// Path returns the path a set with the given prefix would use.
func (s *Store) Path(prefix string) string {
	return filepath.Join(s.dir, prefix)
}

// File is an open set log file plus the advisory lock held on it.
type File struct {
	*os.File
	Path   string
	locked bool
}

// Create opens a brand-new set log file for prefix. It fails with
// InvalidTransactionState if a file at that path already exists — a
// collision is a programming error (prefix reuse), not a recoverable
// condition. The returned File already holds the exclusive advisory lock
// a live session keeps for the set's entire lifetime.
func (s *Store) Create(prefix string) (*File, error) {
	path := s.Path(prefix)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		return nil, txnerrors.Invalidf("set file already exists or could not be created: "+path, err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, txnerrors.Invalidf("could not lock set file: "+path, err)
	}
	return &File{File: f, Path: path, locked: true}, nil
}

// Remove unlinks path. Called only by the coordinator on COMPLETE, or by
// the recovery worker once its member list is empty.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return txnerrors.Internalf("could not remove set file: "+path, err)
	}
	return nil
}

// OpenForRecovery opens an existing set log file for reload, attempting a
// non-blocking exclusive lock first. If the lock is already held by a
// live session, it reports acquired=false rather than an error: the
// caller should warn and skip this file rather than race the session
// that owns it.
func (s *Store) OpenForRecovery(path string) (file *File, acquired bool, err error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, false, txnerrors.Invalidf("could not open set file for recovery: "+path, err)
	}
	ok, err := tryLockFile(f)
	if err != nil {
		f.Close()
		return nil, false, txnerrors.Internalf("could not lock set file: "+path, err)
	}
	if !ok {
		f.Close()
		return nil, false, nil
	}
	return &File{File: f, Path: path, locked: true}, true, nil
}

// Unlock releases the advisory lock without closing the underlying file.
func (f *File) Unlock() error {
	if !f.locked {
		return nil
	}
	f.locked = false
	return unlockFile(f.File)
}

// List enumerates the full paths of every file currently in the log
// directory — the enumeration primitive spec.md §6 calls for under
// "list in-flight sets"; formatting for an administrator is left to the
// caller (cmd/tpcadmin).
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, txnerrors.Internalf("could not list log directory", err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, e.Name()))
	}
	return paths, nil
}
