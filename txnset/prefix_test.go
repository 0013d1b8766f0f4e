package txnset_test

import (
	"testing"

	"github.com/ruichu233/tpcgo/txnset"
)

func TestNewPrefixLengthAndUniqueness(t *testing.T) {
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		p, err := txnset.NewPrefix()
		if err != nil {
			t.Fatalf("NewPrefix: %v", err)
		}
		if len(p) != txnset.PrefixLen {
			t.Fatalf("unexpected prefix length: %d (%q)", len(p), p)
		}
		if seen[p] {
			t.Fatalf("prefix collision: %q", p)
		}
		seen[p] = true
	}
}
