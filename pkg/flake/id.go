// Package flake generates 128-bit, k-ordered identifiers without coordination.
//
// An ID is 16 bytes big-endian: [8 bytes ms timestamp][6 bytes node][2 bytes
// sequence]. Byte-wise comparison orders ids by time first, then by node, then
// by sequence.
//
//	g, err := flake.NewFromSource(node.Hardware())
//	if err != nil {
//		return err
//	}
//	id, err := g.Next()
//	fmt.Println(id.Hex(), id.Components())
package flake

import (
	"bytes"
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rexliu/flake/pkg/node"
)

// Size is the length of an encoded id.
const Size = 16

const (
	nodeOffset = 8
	seqOffset  = nodeOffset + node.Size
)

// ID is a flake identifier. The zero value is not produced by any generator
// whose clock reads after the epoch.
type ID [Size]byte

// Compose lays out the three fields of an id.
func Compose(timestampMs int64, nodeID [node.Size]byte, seq uint16) ID {
	var id ID
	binary.BigEndian.PutUint64(id[:nodeOffset], uint64(timestampMs))
	copy(id[nodeOffset:seqOffset], nodeID[:])
	binary.BigEndian.PutUint16(id[seqOffset:], seq)
	return id
}

// FromBytes copies a 16-byte slice into an id.
func FromBytes(b []byte) (ID, error) {
	var id ID
	if len(b) != Size {
		return id, malformedLen("binary", len(b), Size)
	}
	copy(id[:], b)
	return id, nil
}

// Timestamp returns the milliseconds since the Unix epoch encoded in id.
func (id ID) Timestamp() int64 {
	return int64(binary.BigEndian.Uint64(id[:nodeOffset]))
}

// Time returns the timestamp as a UTC time.
func (id ID) Time() time.Time {
	return time.UnixMilli(id.Timestamp()).UTC()
}

// Node returns the raw node bytes.
func (id ID) Node() [node.Size]byte {
	var b [node.Size]byte
	copy(b[:], id[nodeOffset:seqOffset])
	return b
}

// NodeValue returns the node bytes read as a signed 48-bit integer.
func (id ID) NodeValue() int64 {
	v, _ := DecodeNode(id[nodeOffset:seqOffset])
	return v
}

// Sequence returns the intra-millisecond counter.
func (id ID) Sequence() uint16 {
	return binary.BigEndian.Uint16(id[seqOffset:])
}

// Bytes returns a copy of the raw 16 bytes.
func (id ID) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, id[:])
	return b
}

// IsZero reports whether every byte of id is zero.
func (id ID) IsZero() bool {
	return id == ID{}
}

// Compare returns -1, 0 or 1 by byte-wise comparison.
func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}

// Hex returns the 32-character lowercase hex encoding of id.
func (id ID) Hex() string {
	return hex.EncodeToString(id[:])
}

// String returns the hex encoding.
func (id ID) String() string {
	return id.Hex()
}

// Components renders id as "<timestamp>-<node>-<sequence>" in decimal, with
// the node read as a signed 48-bit integer.
func (id ID) Components() string {
	return strconv.FormatInt(id.Timestamp(), 10) + "-" +
		strconv.FormatInt(id.NodeValue(), 10) + "-" +
		strconv.FormatUint(uint64(id.Sequence()), 10)
}

// DecodeNode reads 6 bytes as a big-endian two's complement integer.
func DecodeNode(b []byte) (int64, error) {
	if len(b) != node.Size {
		return 0, malformedLen("node", len(b), node.Size)
	}
	var u uint64
	for _, c := range b {
		u = u<<8 | uint64(c)
	}
	return int64(u<<16) >> 16, nil
}

// ParseHex decodes the output of Hex. Upper-case digits are accepted.
func ParseHex(s string) (ID, error) {
	var id ID
	if len(s) != Size*2 {
		return id, malformed("hex", s, fmt.Errorf("want %d characters", Size*2))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return ID{}, malformed("hex", s, err)
	}
	return id, nil
}

// ParseComponents decodes the output of Components.
func ParseComponents(s string) (ID, error) {
	last := strings.LastIndexByte(s, '-')
	if last <= 0 {
		return ID{}, malformed("components", s, nil)
	}
	seq, err := strconv.ParseUint(s[last+1:], 10, 16)
	if err != nil {
		return ID{}, malformed("components", s, err)
	}
	head := s[:last]
	// The timestamp may carry a leading minus sign; the separator is the
	// first '-' after it.
	sep := strings.IndexByte(head[1:], '-')
	if sep < 0 {
		return ID{}, malformed("components", s, nil)
	}
	sep++
	ts, err := strconv.ParseInt(head[:sep], 10, 64)
	if err != nil {
		return ID{}, malformed("components", s, err)
	}
	nv, err := strconv.ParseInt(head[sep+1:], 10, 64)
	if err != nil {
		return ID{}, malformed("components", s, err)
	}
	if nv < -(1<<47) || nv > 1<<47-1 {
		return ID{}, malformed("components", s, fmt.Errorf("node %d exceeds 48 bits", nv))
	}
	return Compose(ts, node.ID(uint64(nv)&node.Max).Bytes(), uint16(seq)), nil
}

// Parse accepts any text form produced by this package: hex, base32, UUID or
// components. The form is picked by length, falling back to components.
func Parse(s string) (ID, error) {
	var (
		id  ID
		err error
	)
	switch len(s) {
	case Size * 2:
		id, err = ParseHex(s)
	case base32Len:
		id, err = ParseBase32(s)
	case uuidLen:
		id, err = ParseUUID(s)
	default:
		return ParseComponents(s)
	}
	if err == nil {
		return id, nil
	}
	if cid, cerr := ParseComponents(s); cerr == nil {
		return cid, nil
	}
	return ID{}, err
}

// MarshalText implements encoding.TextMarshaler using the hex form.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value implements driver.Valuer; ids are stored as 16-byte blobs.
func (id ID) Value() (driver.Value, error) {
	return id.Bytes(), nil
}

// Scan implements sql.Scanner for blob and hex text columns.
func (id *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*id = ID{}
		return nil
	case []byte:
		parsed, err := FromBytes(v)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	case string:
		parsed, err := ParseHex(v)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	default:
		return malformed("sql", fmt.Sprintf("%T", src), nil)
	}
}
