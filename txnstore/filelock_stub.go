//go:build !unix

package txnstore

import "os"

// lockFile is a stub on non-Unix platforms; the interlock described in
// Open Question (b) is unavailable there.
func lockFile(f *os.File) error { return nil }

// tryLockFile is a stub counterpart to lockFile on non-Unix platforms: it
// always reports the lock as acquired.
func tryLockFile(f *os.File) (bool, error) { return true, nil }

// unlockFile is a stub counterpart to lockFile on non-Unix platforms.
func unlockFile(f *os.File) error { return nil }
