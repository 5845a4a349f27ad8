package library

import (
	"encoding/binary"
	"math"
)

// float32SliceToBytes and bytesToFloat32Slice give the stem cache a
// portable on-disk encoding for raw float32 PCM without resorting to
// unsafe pointer casts.
func float32SliceToBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}

func bytesToFloat32Slice(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}
