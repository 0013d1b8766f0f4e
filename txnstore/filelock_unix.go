//go:build unix

package txnstore

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// lockFile obtains a blocking exclusive advisory lock on f. The live
// coordinator calls this once, right after creating the set's log file;
// since it just created the file under O_EXCL, the call never contends.
func lockFile(f *os.File) error {
	flock := unix.Flock_t{Type: unix.F_WRLCK, Whence: int16(0)}
	return unix.FcntlFlock(f.Fd(), unix.F_SETLKW, &flock)
}

// tryLockFile attempts a non-blocking exclusive advisory lock on f. It
// reports (false, nil) rather than an error when the lock is already held
// by another process — that is the expected outcome of racing a live
// session, not a failure (Open Question (b), spec.md §9).
func tryLockFile(f *os.File) (bool, error) {
	flock := unix.Flock_t{Type: unix.F_WRLCK, Whence: int16(0)}
	if err := unix.FcntlFlock(f.Fd(), unix.F_SETLK, &flock); err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EACCES) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// unlockFile releases any advisory lock held on f.
func unlockFile(f *os.File) error {
	flock := unix.Flock_t{Type: unix.F_UNLCK, Whence: int16(0)}
	return unix.FcntlFlock(f.Fd(), unix.F_SETLK, &flock)
}
