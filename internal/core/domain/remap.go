package domain

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// Remap combines an identity with a seed. Each 64-bit half of the identity is added,
// with wrap-around, to the matching half of the seed, so the mapping is a bijection
// for any fixed seed and a zero seed leaves identities untouched.
func Remap(id Identity, seed Seed) Identity {
	hi, lo := halves(id.u)
	shi, slo := halves(seed.u)
	return Identity{u: join(hi+shi, lo+slo)}
}

// ReverseRemap undoes Remap: ReverseRemap(Remap(id, s), s) == id.
func ReverseRemap(id Identity, seed Seed) Identity {
	hi, lo := halves(id.u)
	shi, slo := halves(seed.u)
	return Identity{u: join(hi-shi, lo-slo)}
}

func halves(u uuid.UUID) (uint64, uint64) {
	return binary.BigEndian.Uint64(u[:8]), binary.BigEndian.Uint64(u[8:])
}

func join(hi, lo uint64) uuid.UUID {
	var u uuid.UUID
	binary.BigEndian.PutUint64(u[:8], hi)
	binary.BigEndian.PutUint64(u[8:], lo)
	return u
}
