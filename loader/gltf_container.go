package loader

import (
	"encoding/binary"
	"fmt"
)

// glbContainer holds the unwrapped chunks of a GLB envelope. Both slices are
// zero-copy views into the input bytes.
type glbContainer struct {
	// jsonChunk is the payload of the mandatory JSON chunk.
	jsonChunk []byte

	// binChunk is the payload of the optional BIN chunk, nil when absent.
	binChunk []byte
}

// isGLB reports whether data starts with the GLB magic number.
func isGLB(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == glbMagic
}

// unwrapGLB strips the GLB envelope from data into a JSON chunk and an
// optional binary chunk. It enforces the container rules: a 12-byte header
// whose declared length equals the actual byte count, exactly one JSON chunk
// which must come first, and at most one BIN chunk. Chunk payloads are
// returned as zero-copy views into data.
//
// Parameters:
//   - data: the complete GLB byte sequence
//
// Returns:
//   - *glbContainer: the unwrapped chunks
//   - error: a MalformedContainer error if the envelope violates the rules
func unwrapGLB(data []byte) (*glbContainer, error) {
	if len(data) < 12 {
		return nil, newError(ErrMalformedContainer, fmt.Sprintf("file too small: %d bytes", len(data)))
	}

	var header glbHeader
	header.Magic = binary.LittleEndian.Uint32(data[0:4])
	header.Version = binary.LittleEndian.Uint32(data[4:8])
	header.Length = binary.LittleEndian.Uint32(data[8:12])

	if header.Magic != glbMagic {
		return nil, newError(ErrMalformedContainer, fmt.Sprintf("invalid magic 0x%08X", header.Magic))
	}
	if header.Version != glbVersion {
		return nil, newError(ErrMalformedContainer, fmt.Sprintf("unsupported container version %d", header.Version))
	}
	if int(header.Length) != len(data) {
		return nil, newError(ErrMalformedContainer,
			fmt.Sprintf("declared length %d does not match actual byte count %d", header.Length, len(data)))
	}

	c := &glbContainer{}
	offset := 12
	chunkIndex := 0

	for offset < len(data) {
		if len(data)-offset < 8 {
			return nil, newError(ErrMalformedContainer, fmt.Sprintf("truncated chunk header at offset %d", offset))
		}

		var chunk glbChunkHeader
		chunk.ChunkLength = binary.LittleEndian.Uint32(data[offset : offset+4])
		chunk.ChunkType = binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		offset += 8

		if chunk.ChunkLength%4 != 0 {
			return nil, newError(ErrMalformedContainer,
				fmt.Sprintf("chunk length %d is not 4-byte aligned", chunk.ChunkLength))
		}
		if int(chunk.ChunkLength) > len(data)-offset {
			return nil, newError(ErrMalformedContainer,
				fmt.Sprintf("chunk length %d exceeds remaining %d bytes", chunk.ChunkLength, len(data)-offset))
		}

		payload := data[offset : offset+int(chunk.ChunkLength)]
		offset += int(chunk.ChunkLength)

		switch chunk.ChunkType {
		case glbChunkJSON:
			if chunkIndex != 0 {
				return nil, newError(ErrMalformedContainer, "JSON chunk must be the first chunk")
			}
			c.jsonChunk = payload
		case glbChunkBIN:
			if chunkIndex == 0 {
				return nil, newError(ErrMalformedContainer, "BIN chunk precedes the JSON chunk")
			}
			if c.binChunk != nil {
				return nil, newError(ErrMalformedContainer, "more than one BIN chunk")
			}
			c.binChunk = payload
		default:
			// Unknown chunk types are skipped per the container spec.
		}

		chunkIndex++
	}

	if c.jsonChunk == nil {
		return nil, newError(ErrMalformedContainer, "missing JSON chunk")
	}

	return c, nil
}
