// Package bytecode implements the append-only byte buffer and primitive
// emit/read operations the compiler and interpreter share: packed
// variable-length integers, length-prefixed strings and string-lists,
// and the header/extension-index framing the on-disk binary uses.
//
// No third-party varint/wire-format library is used: the format is
// internal and versioned, never meant to be wire-compatible with
// anything external, so adopting e.g. a protobuf codec would buy
// nothing and would fight the one-byte-opcode, fixed-width-jump-slot
// shape this package needs.
package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/migadu/sieve/sieveerr"
)

const (
	Magic      = "SV01"
	Version    = uint16(1)
	jumpWidth  = 4 // fixed-width back-patchable offset slot
	extByteLow = 0x80
)

// Binary is the generator's output and the interpreter's input: an
// append-only byte vector plus the ordered list of extension names
// referenced by its opcodes/operands.
type Binary struct {
	ExtIndex []string
	Code     []byte

	// Lines maps a code offset to the source line the instruction
	// starting there was generated from, so a runtime error can be
	// reported at the line that caused it. It is generator-side
	// metadata, not part of the on-wire Encode form: a binary loaded
	// through Decode carries no line entries.
	Lines map[int]int
}

// Writer is the append-only buffer the generator emits into.
type Writer struct {
	buf bytes.Buffer

	// extLocal assigns each extension name referenced so far a dense
	// local index, in first-appearance order.
	extLocal map[string]int
	extOrder []string
}

func NewWriter() *Writer {
	return &Writer{extLocal: make(map[string]int)}
}

func (w *Writer) Len() int { return w.buf.Len() }

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// WriteAt overwrites jumpWidth bytes at offset — used for jump back-patching.
func (w *Writer) WriteAt(offset int, v int32) {
	b := w.buf.Bytes()
	binary.BigEndian.PutUint32(b[offset:offset+jumpWidth], uint32(v))
}

func (w *Writer) EmitU8(b byte) { w.buf.WriteByte(b) }

// EmitPackedUint writes n as a 7-bit continuation varint.
func (w *Writer) EmitPackedUint(n uint64) {
	for n >= 0x80 {
		w.buf.WriteByte(byte(n) | 0x80)
		n >>= 7
	}
	w.buf.WriteByte(byte(n))
}

// EmitPackedInt zig-zag encodes n then writes it as a packed uint, so
// negative jump offsets don't need a dedicated signed codec.
func (w *Writer) EmitPackedInt(n int64) {
	w.EmitPackedUint(uint64((n << 1) ^ (n >> 63)))
}

// EmitJumpSlot reserves a fixed-width slot for later back-patching and
// returns its offset.
func (w *Writer) EmitJumpSlot() int {
	off := w.buf.Len()
	w.buf.Write(make([]byte, jumpWidth))
	return off
}

func (w *Writer) EmitString(s string) {
	w.EmitPackedUint(uint64(len(s)))
	w.buf.WriteString(s)
}

func (w *Writer) EmitStringList(list []string) {
	w.EmitPackedUint(uint64(len(list)))
	for _, s := range list {
		w.EmitString(s)
	}
}

// extLocalIndex assigns (or reuses) the dense local index for ext, adding
// it to the binary's extension index on first use.
func (w *Writer) extLocalIndex(ext string) int {
	if i, ok := w.extLocal[ext]; ok {
		return i
	}
	i := len(w.extOrder)
	w.extLocal[ext] = i
	w.extOrder = append(w.extOrder, ext)
	return i
}

// EmitOpcode writes an opcode header: a single byte for core opcodes, or
// 0x80|localIndex followed by the extension-local code otherwise.
func (w *Writer) EmitOpcode(ext string, localCode byte) {
	if ext == "" {
		w.EmitU8(localCode)
		return
	}
	idx := w.extLocalIndex(ext)
	if idx >= extByteLow {
		panic(sieveerr.ErrTooManyExtLocal)
	}
	w.EmitU8(byte(extByteLow | idx))
	w.EmitU8(localCode)
}

// EmitObjectTag writes the (extension_local_index, object_code) pair for
// an Object operand. Index 0 is reserved for core objects; a real
// extension's dense index (as assigned by
// extLocalIndex, itself 0-based) is offset by one so the two numbering
// spaces never collide.
func (w *Writer) EmitObjectTag(ext string, code uint16) {
	idx := 0
	if ext != "" {
		idx = w.extLocalIndex(ext) + 1
	}
	w.EmitPackedUint(uint64(idx))
	w.EmitPackedUint(uint64(code))
}

// Finish produces the final Binary: header + extension index + code.
func (w *Writer) Finish() *Binary {
	return &Binary{ExtIndex: append([]string(nil), w.extOrder...), Code: w.buf.Bytes()}
}

// Encode serializes b to its on-disk/on-wire form: the "SV01" magic,
// version, extension-name list, then the raw opcode stream.
func Encode(b *Binary) []byte {
	var out bytes.Buffer
	out.WriteString(Magic)
	var u16 [2]byte
	binary.BigEndian.PutUint16(u16[:], Version)
	out.Write(u16[:])
	binary.BigEndian.PutUint16(u16[:], uint16(len(b.ExtIndex)))
	out.Write(u16[:])

	hw := NewWriter()
	for _, name := range b.ExtIndex {
		hw.EmitString(name)
	}
	out.Write(hw.Bytes())
	out.Write(b.Code)
	return out.Bytes()
}

// Decode parses the form Encode produces.
func Decode(data []byte) (*Binary, error) {
	if len(data) < 8 || string(data[:4]) != Magic {
		return nil, fmt.Errorf("%w: bad magic", sieveerr.ErrBinaryCorrupt)
	}
	version := binary.BigEndian.Uint16(data[4:6])
	if version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", sieveerr.ErrBinaryCorrupt, version)
	}
	extLen := int(binary.BigEndian.Uint16(data[6:8]))

	r := NewReader(data[8:])
	names := make([]string, extLen)
	for i := range names {
		s, err := r.ReadString()
		if err != nil {
			return nil, fmt.Errorf("%w: extension index: %v", sieveerr.ErrBinaryCorrupt, err)
		}
		names[i] = s
	}
	return &Binary{ExtIndex: names, Code: data[8+r.pos:]}, nil
}
