package params

import (
	"encoding/binary"
	"math"
)

// BlockSize is the size of a Block in bytes: seven tightly packed float32s.
const BlockSize = NumFields * 4

// Block is the GPU-visible mirror of a Set. Field order matches FieldNames
// and the shader's `uniform float params[7]`; there is no padding.
type Block [NumFields]float32

// BlockFromSet copies a Set into its GPU layout.
func BlockFromSet(s Set) Block {
	return Block(s.Array())
}

// Set converts the block back to a parameter record.
func (b Block) Set() Set {
	return FromArray(b)
}

// Slice returns the block as the float slice passed to the uniform upload.
func (b Block) Slice() []float32 {
	return b[:]
}

// Marshal serializes the block into the little-endian byte layout a
// uniform buffer would hold. Identical records marshal to identical bytes.
func (b Block) Marshal() []byte {
	buf := make([]byte, BlockSize)
	for i, v := range b {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return buf
}

// UnmarshalBlock decodes a buffer produced by Marshal.
func UnmarshalBlock(buf []byte) (Block, bool) {
	var b Block
	if len(buf) != BlockSize {
		return b, false
	}
	for i := range b {
		b[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4 : i*4+4]))
	}
	return b, true
}
