package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/migadu/sieve/sieveerr"
)

// Reader is a cursor over a Binary's code section, used both by the
// interpreter (to decode operations) and by dump/debug tooling.
type Reader struct {
	data []byte
	pos  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Pos() int { return r.pos }

func (r *Reader) SetPos(p int) { r.pos = p }

func (r *Reader) Len() int { return len(r.data) }

func (r *Reader) ReadU8() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("%w: read past end at %d", sieveerr.ErrBinaryCorrupt, r.pos)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) ReadPackedUint() (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.ReadU8()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift > 63 {
			return 0, fmt.Errorf("%w: packed uint overflow", sieveerr.ErrBinaryCorrupt)
		}
	}
}

func (r *Reader) ReadPackedInt() (int64, error) {
	u, err := r.ReadPackedUint()
	if err != nil {
		return 0, err
	}
	return int64(u>>1) ^ -int64(u&1), nil
}

// ReadJumpSlot reads the fixed-width back-patched offset at the current
// position.
func (r *Reader) ReadJumpSlot() (int32, error) {
	if r.pos+jumpWidth > len(r.data) {
		return 0, fmt.Errorf("%w: truncated jump slot at %d", sieveerr.ErrBinaryCorrupt, r.pos)
	}
	v := int32(binary.BigEndian.Uint32(r.data[r.pos : r.pos+jumpWidth]))
	r.pos += jumpWidth
	return v, nil
}

func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadPackedUint()
	if err != nil {
		return "", err
	}
	if r.pos+int(n) > len(r.data) {
		return "", fmt.Errorf("%w: truncated string at %d", sieveerr.ErrBinaryCorrupt, r.pos)
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *Reader) ReadStringList() ([]string, error) {
	n, err := r.ReadPackedUint()
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// ReadObjectTag reads the (extension_local_index, object_code) pair for an
// Object operand; extLocalIndex is -1 for a core object, else the real
// 0-based extension-local index (see Writer.EmitObjectTag's +1 offset).
// The caller resolves it against the binary's extension index and the
// registry.
func (r *Reader) ReadObjectTag() (extLocalIndex int, code uint16, err error) {
	idx, err := r.ReadPackedUint()
	if err != nil {
		return 0, 0, err
	}
	c, err := r.ReadPackedUint()
	if err != nil {
		return 0, 0, err
	}
	if idx == 0 {
		return -1, uint16(c), nil
	}
	return int(idx) - 1, uint16(c), nil
}

// ReadOpcode reads an opcode header, returning the owning extension-local
// index (-1 for core) and the local opcode byte.
func (r *Reader) ReadOpcode() (extLocalIndex int, localCode byte, err error) {
	b, err := r.ReadU8()
	if err != nil {
		return 0, 0, err
	}
	if b < extByteLow {
		return -1, b, nil
	}
	idx := int(b &^ extByteLow)
	local, err := r.ReadU8()
	if err != nil {
		return 0, 0, err
	}
	return idx, local, nil
}
