// Package node resolves the 48-bit node identifier that makes flake ids
// unique across processes.
//
// A Source is resolved once at startup and the resulting ID is handed to the
// generator. Hardware sources read a network interface's MAC address; Fixed
// sources wrap a value assigned by the deployment.
package node

import (
	"fmt"
	"strconv"
	"sync"
)

// Size is the width of a node id in bytes.
const Size = 6

// Max is the largest value a node id can hold.
const Max = 1<<48 - 1

// ID is a 48-bit node identifier.
type ID uint64

// Bytes returns the big-endian 6-byte form of the id.
func (id ID) Bytes() [Size]byte {
	var b [Size]byte
	for i := 0; i < Size; i++ {
		b[i] = byte(id >> ((Size - 1 - i) * 8))
	}
	return b
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// FromBytes interprets b as a big-endian 48-bit value.
func FromBytes(b []byte) (ID, error) {
	if len(b) != Size {
		return 0, &AddressLengthError{Len: len(b)}
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return ID(v), nil
}

// Logger is the subset of logging.Logger used here; kept minimal to avoid
// dependency cycles.
type Logger interface {
	Debugf(format string, args ...any)
}

// Source produces a node id.
type Source interface {
	Resolve() (ID, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (ID, error)

// Resolve calls f.
func (f SourceFunc) Resolve() (ID, error) { return f() }

type fixedSource struct {
	id  ID
	err error
}

// Fixed returns a Source that always resolves to v.
func Fixed(v uint64) Source {
	if v > Max {
		return fixedSource{err: fmt.Errorf("%w: %d", ErrOutOfRange, v)}
	}
	return fixedSource{id: ID(v)}
}

// FixedBytes returns a Source that resolves to the 6 literal bytes in b.
func FixedBytes(b []byte) Source {
	id, err := FromBytes(b)
	return fixedSource{id: id, err: err}
}

func (s fixedSource) Resolve() (ID, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.id, nil
}

type onceSource struct {
	src  Source
	once sync.Once
	id   ID
	err  error
}

// Once wraps src so it is resolved at most once. The wrapper is safe for
// concurrent use; later calls return the first result, including its error.
func Once(src Source) Source {
	return &onceSource{src: src}
}

func (s *onceSource) Resolve() (ID, error) {
	s.once.Do(func() {
		if s.src == nil {
			s.err = ErrNilSource
			return
		}
		s.id, s.err = s.src.Resolve()
	})
	return s.id, s.err
}
