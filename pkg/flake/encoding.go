package flake

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	base32Len = ulid.EncodedSize
	uuidLen   = 36
)

// Base32 returns the 26-character Crockford base32 form of id. Because the
// layout is big-endian, the text sorts the same way as the bytes.
func (id ID) Base32() string {
	return ulid.ULID(id).String()
}

// ParseBase32 decodes the output of Base32. Decoding is case-insensitive.
func ParseBase32(s string) (ID, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return ID{}, malformed("base32", s, err)
	}
	return ID(u), nil
}

// UUID reinterprets the 16 bytes of id as a UUID for storage in UUID-typed
// columns. The result carries no valid RFC 4122 version or variant.
func (id ID) UUID() uuid.UUID {
	return uuid.UUID(id)
}

// FromUUID reverses UUID.
func FromUUID(u uuid.UUID) ID {
	return ID(u)
}

// ParseUUID decodes the canonical 36-character UUID form of an id.
func ParseUUID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, malformed("uuid", s, err)
	}
	return FromUUID(u), nil
}
