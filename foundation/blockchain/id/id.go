// Package id implements the canonical identifier type used throughout the
// ledger: a 256-bit unsigned integer derived from a collision-resistant hash
// over an entity's canonical serialization.
package id

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
)

// ID is a large integer compared by numeric equality, per the ledger's data
// model. The zero value represents no identifier and never legitimately
// results from Hash.
type ID struct {
	v uint256.Int
}

// Hash returns the ID for value: sha256 over its canonical JSON encoding.
// Map keys are already ordered lexicographically by encoding/json, so this
// produces the same bytes for logically equal documents regardless of
// construction order.
func Hash(value any) (ID, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return ID{}, fmt.Errorf("marshal for hash: %w", err)
	}

	sum := sha256.Sum256(data)

	var out ID
	out.v.SetBytes(sum[:])
	return out, nil
}

// HashSequence hashes an ordered sequence of IDs, used for the transaction
// output-set id.
func HashSequence(ids ...ID) (ID, error) {
	hexes := make([]string, len(ids))
	for i, v := range ids {
		hexes[i] = v.String()
	}
	return Hash(hexes)
}

// Zero reports whether id is the zero value.
func (id ID) Zero() bool {
	return id.v.IsZero()
}

// Equal reports whether id and other represent the same integer.
func (id ID) Equal(other ID) bool {
	return id.v.Eq(&other.v)
}

// String returns the canonical hex representation, 0x-prefixed.
func (id ID) String() string {
	b := id.v.Bytes32()
	return "0x" + hex.EncodeToString(b[:])
}

// MarshalText implements encoding.TextMarshaler so ID can be a JSON object
// key and a map key.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	s := string(text)
	if len(s) < 2 || s[:2] != "0x" {
		return fmt.Errorf("id: malformed hex value %q", s)
	}

	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return fmt.Errorf("id: decode hex value %q: %w", s, err)
	}

	id.v.SetBytes(b)
	return nil
}
