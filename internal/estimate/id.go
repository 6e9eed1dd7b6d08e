package estimate

import (
	"encoding/binary"
	"encoding/hex"
	"math/rand/v2"

	"github.com/google/uuid"
)

// IDGenerator produces identifiers for estimates created without one.
type IDGenerator interface {
	NewID() string
}

// IDFunc adapts a function to IDGenerator.
type IDFunc func() string

func (f IDFunc) NewID() string { return f() }

// RandomIDs renders 128 random bits as 32 hex characters. It falls back to
// a non-cryptographic source if the system random reader fails.
type RandomIDs struct{}

func (RandomIDs) NewID() string {
	u, err := uuid.NewRandom()
	if err == nil {
		return hex.EncodeToString(u[:])
	}

	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], rand.Uint64())
	binary.BigEndian.PutUint64(b[8:], rand.Uint64())

	return hex.EncodeToString(b[:])
}
