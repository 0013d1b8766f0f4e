package txnset

import (
	"fmt"

	"github.com/ruichu233/tpcgo/component"
	"github.com/ruichu233/tpcgo/internal/txnerrors"
)

// MaxMemberNameLen bounds a member's remote transaction name so it fits
// the naming limits PREPARE TRANSACTION imposes on the remote system
// (PostgreSQL's NAMEDATALEN, minus its terminator).
const MaxMemberNameLen = 63

// Member represents one remote session participating in a set: a
// connection handle plus the stable, unique name used in every
// PREPARE/COMMIT/ROLLBACK PREPARED statement issued against it.
type Member struct {
	Conn component.RemoteConn
	Name string
	// URL is the connection string recorded in the log at PREPARE time.
	// It is captured once so it survives even after Conn is reset or
	// closed during recovery.
	URL string
}

// deriveName builds and validates the member name derived from prefix and
// counter: "<prefix>_<counter>".
func deriveName(prefix string, counter uint64) (string, error) {
	name := fmt.Sprintf("%s_%d", prefix, counter)
	if len(name) > MaxMemberNameLen {
		return "", txnerrors.Invalid(fmt.Sprintf("member name %q exceeds %d bytes", name, MaxMemberNameLen))
	}
	return name, nil
}
