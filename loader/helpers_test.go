package loader

import (
	"encoding/binary"
	"math"

	"go.uber.org/zap"
)

// nopLog is the shared silent logger for tests.
var nopLog = zap.NewNop()

// intPtr returns a pointer to i.
func intPtr(i int) *int {
	return &i
}

// f32bytes encodes floats as little-endian IEEE 754 bytes.
func f32bytes(vals ...float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// u16bytes encodes values as little-endian uint16 bytes.
func u16bytes(vals ...uint16) []byte {
	out := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

// pad4 pads data to a 4-byte boundary with the given filler byte.
func pad4(data []byte, filler byte) []byte {
	for len(data)%4 != 0 {
		data = append(data, filler)
	}
	return data
}

// buildGLB assembles a GLB envelope around a JSON payload and an optional
// binary payload. Payloads are padded to 4-byte alignment (spaces for JSON,
// zeros for BIN) and the declared length is computed from the result.
func buildGLB(jsonPayload, binPayload []byte) []byte {
	jsonPayload = pad4(jsonPayload, ' ')

	total := 12 + 8 + len(jsonPayload)
	if binPayload != nil {
		binPayload = pad4(binPayload, 0)
		total += 8 + len(binPayload)
	}

	out := make([]byte, 0, total)
	out = binary.LittleEndian.AppendUint32(out, glbMagic)
	out = binary.LittleEndian.AppendUint32(out, glbVersion)
	out = binary.LittleEndian.AppendUint32(out, uint32(total))

	out = binary.LittleEndian.AppendUint32(out, uint32(len(jsonPayload)))
	out = binary.LittleEndian.AppendUint32(out, glbChunkJSON)
	out = append(out, jsonPayload...)

	if binPayload != nil {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(binPayload)))
		out = binary.LittleEndian.AppendUint32(out, glbChunkBIN)
		out = append(out, binPayload...)
	}

	return out
}
