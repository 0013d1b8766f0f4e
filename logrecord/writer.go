package logrecord

import (
	"bufio"
	"errors"
	"io"

	"github.com/ruichu233/tpcgo/internal/txnerrors"
)

// syncer is the subset of *os.File the writer needs: write and fsync.
type syncer interface {
	io.Writer
	Sync() error
}

// Writer appends phase and action lines to a set's log file with the
// fsync discipline spec.md §4.2 requires: a phase line is a prediction of
// intent and is only flushed to the OS; an action line is evidence a
// remote command was issued and is fsynced before Write returns.
type Writer struct {
	f syncer
}

// NewWriter wraps f for writing. f must already be open for append.
func NewWriter(f syncer) *Writer {
	return &Writer{f: f}
}

// WritePhase appends a phase line. It is flushed to the OS but not
// fsynced: losing it on crash is safe because the prior action state
// recovers it.
func (w *Writer) WritePhase(label string) error {
	_, err := io.WriteString(w.f, EncodePhase(label))
	return err
}

// WriteAction appends an action line and fsyncs the file before
// returning, so the evidence of an issued remote command survives a
// crash.
func (w *Writer) WriteAction(phaseLabel, url, name string, status Status) error {
	if _, err := io.WriteString(w.f, EncodeAction(phaseLabel, url, name, status)); err != nil {
		return err
	}
	return w.f.Sync()
}

// Reader reads log lines with the 512-byte bound enforced per line.
type Reader struct {
	sc *bufio.Scanner
}

// NewReader wraps r for reading lines bounded by MaxLineLen.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, MaxLineLen), MaxLineLen)
	return &Reader{sc: sc}
}

// Next returns the next line (without its trailing newline) and true, or
// ("", false) at EOF or on a line exceeding MaxLineLen; check Err to
// distinguish the two.
func (r *Reader) Next() (string, bool) {
	if !r.sc.Scan() {
		return "", false
	}
	return r.sc.Text(), true
}

// Err returns any error encountered by Next, including a line-too-long
// error from the underlying scanner, reported as InvalidTransactionState.
func (r *Reader) Err() error {
	if err := r.sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return txnerrors.Invalidf("log line exceeds maximum length", err)
		}
		return err
	}
	return nil
}
