package logrecord_test

import (
	"strings"
	"testing"

	"github.com/ruichu233/tpcgo/logrecord"
)

func TestEncodeParsePhaseRoundTrip(t *testing.T) {
	line := logrecord.EncodePhase("prepare")
	if line != "phase prepare\n" {
		t.Fatalf("unexpected encoding: %q", line)
	}
	rec, err := logrecord.ParseLine(strings.TrimSuffix(line, "\n"))
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	pl, ok := rec.(*logrecord.PhaseLine)
	if !ok || pl.Label != "prepare" {
		t.Fatalf("unexpected record: %#v", rec)
	}
}

func TestEncodeParseActionRoundTrip(t *testing.T) {
	line := logrecord.EncodeAction("commit", "postgresql://remote-a:5432/db1", "P_1", logrecord.OK)
	rec, err := logrecord.ParseLine(strings.TrimSuffix(line, "\n"))
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	al, ok := rec.(*logrecord.ActionLine)
	if !ok {
		t.Fatalf("unexpected record type: %#v", rec)
	}
	if al.PhaseLabel != "commit" || al.URL != "postgresql://remote-a:5432/db1" ||
		al.Name != "P_1" || al.Status != logrecord.OK {
		t.Fatalf("unexpected fields: %#v", al)
	}
}

func TestParseLineRejectsBadStatus(t *testing.T) {
	if _, err := logrecord.ParseLine("commit postgresql://a:5432/db P_1 MAYBE"); err == nil {
		t.Fatal("expected error for unrecognized status")
	}
}

func TestParseLineRejectsWrongFieldCount(t *testing.T) {
	if _, err := logrecord.ParseLine("commit postgresql://a:5432/db P_1"); err == nil {
		t.Fatal("expected error for missing status field")
	}
}

func TestParseLineRejectsOverlongLine(t *testing.T) {
	long := strings.Repeat("x", logrecord.MaxLineLen)
	if _, err := logrecord.ParseLine(long); err == nil {
		t.Fatal("expected error for overlong line")
	}
}

func TestHasConnPrefix(t *testing.T) {
	if !logrecord.HasConnPrefix("postgresql://h:5432/d") {
		t.Fatal("expected prefix match")
	}
	if logrecord.HasConnPrefix("mysql://h:5432/d") {
		t.Fatal("expected prefix mismatch")
	}
}

func TestWriterFsyncsActionNotPhase(t *testing.T) {
	fs := &fakeSyncer{}
	w := logrecord.NewWriter(fs)
	if err := w.WritePhase("begin"); err != nil {
		t.Fatalf("WritePhase: %v", err)
	}
	if fs.syncs != 0 {
		t.Fatalf("phase line fsynced: %d syncs", fs.syncs)
	}
	if err := w.WriteAction("prepare", "postgresql://a:5432/db", "P_1", logrecord.Todo); err != nil {
		t.Fatalf("WriteAction: %v", err)
	}
	if fs.syncs != 1 {
		t.Fatalf("action line did not fsync: %d syncs", fs.syncs)
	}
	want := "phase begin\nprepare postgresql://a:5432/db P_1 todo\n"
	if fs.buf.String() != want {
		t.Fatalf("unexpected log content: %q", fs.buf.String())
	}
}

type fakeSyncer struct {
	buf   strings.Builder
	syncs int
}

func (f *fakeSyncer) Write(p []byte) (int, error) {
	return f.buf.Write(p)
}

func (f *fakeSyncer) Sync() error {
	f.syncs++
	return nil
}
