// Package keyhash derives the fixed-length binary keys used to address records
// and fields in the backing store.
package keyhash

import (
	"encoding/binary"

	"github.com/OneOfOne/xxhash"
	"github.com/zeebo/xxh3"
)

// Length is a digest length class in bits.
type Length int

const (
	L32  Length = 32
	L64  Length = 64
	L128 Length = 128
)

const (
	// EntityKeySize is the byte length of a store key: type, id and version digests.
	EntityKeySize = (32 + 128 + 32) / 8

	// FieldKeySize is the byte length of a field key.
	FieldKeySize = 64 / 8

	typeLength    = L32
	idLength      = L128
	versionLength = L32
	fieldLength   = L64
)

var digests = map[Length]func(string) []byte{
	L32: func(s string) []byte {
		return binary.BigEndian.AppendUint32(make([]byte, 0, 4), xxhash.Checksum32([]byte(s)))
	},
	L64: func(s string) []byte {
		return binary.BigEndian.AppendUint64(make([]byte, 0, 8), xxh3.HashString(s))
	},
	L128: func(s string) []byte {
		h := xxh3.HashString128(s)
		b := make([]byte, 0, 16)
		b = binary.BigEndian.AppendUint64(b, h.Hi)
		return binary.BigEndian.AppendUint64(b, h.Lo)
	},
}

// Valid reports whether l is a supported length class.
func (l Length) Valid() bool {
	_, ok := digests[l]
	return ok
}

// Sum returns the canonical big-endian digest of value for the length class.
// L32 is XXH32 (seed 0), L64 is XXH3-64 and L128 is XXH3-128.
// Sum panics on an unsupported length class.
func Sum(value string, l Length) []byte {
	fn, ok := digests[l]
	if !ok {
		panic("keyhash: unsupported length class")
	}
	return fn(value)
}

// Entity computes the store key of a record:
// digest(typeName) || digest(entityID) || digest(version).
func Entity(entityID, typeName, version string) []byte {
	key := make([]byte, 0, EntityKeySize)
	key = append(key, Sum(typeName, typeLength)...)
	key = append(key, Sum(entityID, idLength)...)
	return append(key, Sum(version, versionLength)...)
}

// Field computes the key of a field inside a record's hash map.
func Field(name string) []byte {
	return Sum(name, fieldLength)
}

// TypePrefix returns the leading type digest of a store key.
func TypePrefix(typeName string) []byte {
	return Sum(typeName, typeLength)
}

// VersionSuffix returns the trailing version digest of a store key.
func VersionSuffix(version string) []byte {
	return Sum(version, versionLength)
}
