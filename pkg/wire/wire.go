// Package wire encodes weight samples into the characteristic payload format.
//
// The wire contract is a single little-endian IEEE-754 float32 (4 bytes),
// carrying the measurement in grams. Clients read the value directly off the
// wire; no framing, timestamps or checksums are involved.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SampleSize is the characteristic payload length in bytes.
const SampleSize = 4

// EncodeSample converts a sample in grams into the 4-byte payload.
// NaN is encoded as the zero sentinel so a misbehaving sensor never puts
// an unparseable value on the wire.
func EncodeSample(grams float64) []byte {
	if math.IsNaN(grams) {
		grams = 0
	}
	buf := make([]byte, SampleSize)
	binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(grams)))
	return buf
}

// DecodeSample parses a 4-byte payload back into grams.
func DecodeSample(data []byte) (float64, error) {
	if len(data) != SampleSize {
		return 0, fmt.Errorf("sample payload must be %d bytes, got %d", SampleSize, len(data))
	}
	bits := binary.LittleEndian.Uint32(data)
	return float64(math.Float32frombits(bits)), nil
}
