package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterReaderPrimitivesRoundTrip(t *testing.T) {
	w := NewWriter()
	w.EmitU8(0x42)
	w.EmitPackedUint(300)
	w.EmitPackedInt(-17)
	w.EmitString("hello")
	w.EmitStringList([]string{"a", "bb", "ccc"})
	slot := w.EmitJumpSlot()
	w.WriteAt(slot, 99)

	r := NewReader(w.Bytes())

	b, err := r.ReadU8()
	assert.NoError(t, err)
	assert.Equal(t, byte(0x42), b)

	u, err := r.ReadPackedUint()
	assert.NoError(t, err)
	assert.Equal(t, uint64(300), u)

	n, err := r.ReadPackedInt()
	assert.NoError(t, err)
	assert.Equal(t, int64(-17), n)

	s, err := r.ReadString()
	assert.NoError(t, err)
	assert.Equal(t, "hello", s)

	list, err := r.ReadStringList()
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "bb", "ccc"}, list)

	jump, err := r.ReadJumpSlot()
	assert.NoError(t, err)
	assert.Equal(t, int32(99), jump)
}

func TestOpcodeCoreVsExtension(t *testing.T) {
	w := NewWriter()
	w.EmitOpcode("", 5)
	w.EmitOpcode("imap4flags", 2)
	w.EmitOpcode("imap4flags", 3)
	w.EmitOpcode("vacation", 1)

	r := NewReader(w.Bytes())

	extIdx, code, err := r.ReadOpcode()
	assert.NoError(t, err)
	assert.Equal(t, -1, extIdx)
	assert.Equal(t, byte(5), code)

	extIdx, code, err = r.ReadOpcode()
	assert.NoError(t, err)
	assert.Equal(t, 0, extIdx)
	assert.Equal(t, byte(2), code)

	extIdx, code, err = r.ReadOpcode()
	assert.NoError(t, err)
	assert.Equal(t, 0, extIdx)
	assert.Equal(t, byte(3), code)

	extIdx, code, err = r.ReadOpcode()
	assert.NoError(t, err)
	assert.Equal(t, 1, extIdx)
	assert.Equal(t, byte(1), code)
}

func TestObjectTagCoreVsExtension(t *testing.T) {
	w := NewWriter()
	w.EmitObjectTag("", 7)
	w.EmitObjectTag("duplicate", 1)

	r := NewReader(w.Bytes())

	extIdx, code, err := r.ReadObjectTag()
	assert.NoError(t, err)
	assert.Equal(t, -1, extIdx)
	assert.Equal(t, uint16(7), code)

	extIdx, code, err = r.ReadObjectTag()
	assert.NoError(t, err)
	assert.Equal(t, 0, extIdx)
	assert.Equal(t, uint16(1), code)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	w := NewWriter()
	w.EmitOpcode("vacation", 4)
	w.EmitString("hello world")
	bin := w.Finish()

	encoded := Encode(bin)
	decoded, err := Decode(encoded)
	assert.NoError(t, err)
	assert.Equal(t, bin.ExtIndex, decoded.ExtIndex)
	assert.Equal(t, bin.Code, decoded.Code)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode([]byte("not a valid binary at all"))
	assert.Error(t, err)
}

func TestDecodeRejectsTruncated(t *testing.T) {
	_, err := Decode([]byte(Magic))
	assert.Error(t, err)
}
