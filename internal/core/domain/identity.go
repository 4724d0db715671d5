// Package domain contains the core domain models of the prefab engine: object graphs,
// identities, instance metadata and the commands that mutate a document.
package domain

import (
	"github.com/google/uuid"
	"go.trai.ch/zerr"
)

// Identity is the stable 128-bit identity of an object.
// The zero value is invalid and is used to mean "no object".
type Identity struct {
	u uuid.UUID
}

// Seed is a 128-bit per-instance remap key. It shares its representation with Identity
// but is a distinct type so the two can never be passed for each other.
type Seed struct {
	u uuid.UUID
}

// NewIdentity returns a fresh random identity.
func NewIdentity() Identity {
	return Identity{u: uuid.New()}
}

// ParseIdentity parses the canonical textual form of an identity.
func ParseIdentity(s string) (Identity, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Identity{}, zerr.With(zerr.Wrap(err, "invalid identity"), "value", s)
	}
	return Identity{u: u}, nil
}

// MustParseIdentity is like ParseIdentity but panics on malformed input.
func MustParseIdentity(s string) Identity {
	id, err := ParseIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsValid reports whether the identity refers to an object.
func (id Identity) IsValid() bool {
	return id.u != uuid.Nil
}

// String returns the canonical textual form.
func (id Identity) String() string {
	return id.u.String()
}

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewSeed returns a fresh random seed.
func NewSeed() Seed {
	return Seed{u: uuid.New()}
}

// ParseSeed parses the canonical textual form of a seed.
func ParseSeed(s string) (Seed, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Seed{}, zerr.With(zerr.Wrap(err, "invalid seed"), "value", s)
	}
	return Seed{u: u}, nil
}

// MustParseSeed is like ParseSeed but panics on malformed input.
func MustParseSeed(s string) Seed {
	seed, err := ParseSeed(s)
	if err != nil {
		panic(err)
	}
	return seed
}

// IsValid reports whether the seed is non-zero.
func (s Seed) IsValid() bool {
	return s.u != uuid.Nil
}

// String returns the canonical textual form.
func (s Seed) String() string {
	return s.u.String()
}

// MarshalText implements encoding.TextMarshaler.
func (s Seed) MarshalText() ([]byte, error) {
	return []byte(s.u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Seed) UnmarshalText(text []byte) error {
	parsed, err := ParseSeed(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
