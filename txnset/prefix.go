package txnset

import (
	"github.com/google/uuid"

	"github.com/ruichu233/tpcgo/internal/txnerrors"
)

// PrefixLen is the length of a rendered prefix: five hyphenated hex
// groups, 8-4-4-4-12, per spec.md §4.4.
const PrefixLen = 36

// NewPrefix generates a cryptographically random prefix: a 16-byte value
// rendered as a hyphenated, lower-case UUID string with the version/variant
// bits set as spec.md §4.4 describes (this is exactly RFC 4122 version 4).
// The prefix both names the set's log file and seeds every member's
// derived transaction name. Failure of the underlying randomness source is
// surfaced as InternalError (spec.md §6).
func NewPrefix() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", txnerrors.Internalf("could not generate transaction set prefix", err)
	}
	return id.String(), nil
}
