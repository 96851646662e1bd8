// Package id provides the 128-bit, timestamp-ordered identifiers used
// throughout the weave document core: nodes, models and timeline entries
// are all addressed by an Id rather than an opaque UUID, so that creation
// order is recoverable directly from the identifier.
package id

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Id is a 128-bit ULID: a 48-bit millisecond timestamp followed by 80 bits
// of randomness. Ids sort ascending by creation time, with ties broken by
// the random component.
type Id struct {
	ulid ulid.ULID
}

// Nil is the zero Id, used as a sentinel for "no id".
var Nil Id

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New generates a fresh Id anchored to the current wall-clock time.
// Successive calls from the same process produce monotonically
// increasing ids even within the same millisecond.
func New() Id {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return Id{ulid: ulid.MustNew(ulid.Timestamp(time.Now()), entropy)}
}

// FromTime generates a fresh Id anchored to the given time, with a fresh
// random component. Used by Weave.SplitNode to anchor a new left sibling
// to the same millisecond timestamp as the node being split, keeping
// split siblings adjacent under id ordering.
func FromTime(t time.Time) Id {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return Id{ulid: ulid.MustNew(ulid.Timestamp(t), entropy)}
}

// Time returns the millisecond timestamp embedded in the id.
func (i Id) Time() time.Time {
	return ulid.Time(i.ulid.Timestamp())
}

// IsNil reports whether this is the zero Id.
func (i Id) IsNil() bool {
	return i == Nil
}

// Compare orders two ids: negative if i < other, zero if equal, positive
// if i > other. Ordering is by timestamp first, then by random component.
func (i Id) Compare(other Id) int {
	return i.ulid.Compare(other.ulid)
}

// Less reports whether i sorts before other; suitable for slices.SortFunc
// and similar ordering helpers.
func (i Id) Less(other Id) bool {
	return i.Compare(other) < 0
}

// String renders the id as Crockford base32, matching the wire form used
// by the original implementation's Ulid::to_string.
func (i Id) String() string {
	return i.ulid.String()
}

// Parse decodes a Crockford base32-encoded id.
func Parse(s string) (Id, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return Id{}, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return Id{ulid: u}, nil
}

// Bytes returns the 16-byte binary encoding of the id.
func (i Id) Bytes() []byte {
	b := make([]byte, len(i.ulid))
	copy(b, i.ulid[:])
	return b
}

// FromBytes decodes a 16-byte binary-encoded id, as produced by Bytes.
func FromBytes(b []byte) (Id, error) {
	var u ulid.ULID
	if err := u.UnmarshalBinary(b); err != nil {
		return Id{}, fmt.Errorf("id: decode bytes: %w", err)
	}
	return Id{ulid: u}, nil
}

// MarshalText implements encoding.TextMarshaler so that an Id can be used
// directly as a map key in JSON output.
func (i Id) MarshalText() ([]byte, error) {
	return i.ulid.MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Id) UnmarshalText(text []byte) error {
	return i.ulid.UnmarshalText(text)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (i Id) MarshalBinary() ([]byte, error) {
	return i.ulid.MarshalBinary()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (i *Id) UnmarshalBinary(data []byte) error {
	return i.ulid.UnmarshalBinary(data)
}
