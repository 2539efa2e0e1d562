package stego

import (
	"encoding/binary"
	"hash/crc32"
)

var pngSignature = [8]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// PNGCarrier hides a payload inside ancillary 'ruNd' chunks, inserted right
// before the first IDAT chunk. Lowercase first letter marks the chunk type
// ancillary, so a conforming PNG reader that doesn't recognize it simply
// skips it.
type PNGCarrier struct{}

const (
	pngChunkType    = "ruNd"
	pngMaxChunkSize = 256 * 1024
	pngMaxCapacity  = 100 * 1024 * 1024
)

func (PNGCarrier) Name() string { return "png" }

func (PNGCarrier) Sniff(data []byte) bool {
	return len(data) >= 8 && [8]byte(data[:8]) == pngSignature
}

func (c PNGCarrier) Capacity(data []byte) int {
	if !c.Sniff(data) {
		return 0
	}
	return pngMaxCapacity
}

// pngChunk is one length/type/data/crc chunk as it appears on disk.
type pngChunk struct {
	typ  string
	data []byte
}

func walkPNGChunks(data []byte) ([]pngChunk, bool) {
	if !(PNGCarrier{}).Sniff(data) {
		return nil, false
	}
	var chunks []pngChunk
	pos := 8
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos:]))
		typ := string(data[pos+4 : pos+8])
		dataStart := pos + 8
		dataEnd := dataStart + length
		crcEnd := dataEnd + 4
		if crcEnd > len(data) {
			break
		}
		chunks = append(chunks, pngChunk{typ: typ, data: data[dataStart:dataEnd]})
		pos = crcEnd
		if typ == "IEND" {
			break
		}
	}
	return chunks, true
}

func writePNGChunk(out []byte, typ string, data []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	out = append(out, lenBuf[:]...)
	out = append(out, typ...)
	out = append(out, data...)
	h := crc32.NewIEEE()
	h.Write([]byte(typ))
	h.Write(data)
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], h.Sum32())
	out = append(out, crcBuf[:]...)
	return out
}

// stripRuNdChunks rebuilds the PNG without any existing 'ruNd' chunks, so
// re-embedding never grows the file by repeating a stale payload alongside
// the fresh one.
func stripRuNdChunks(data []byte) []byte {
	out := make([]byte, 0, len(data))
	out = append(out, data[:8]...)
	pos := 8
	for pos+8 <= len(data) {
		chunkStart := pos
		length := int(binary.BigEndian.Uint32(data[pos:]))
		typ := string(data[pos+4 : pos+8])
		crcEnd := pos + 8 + length + 4
		if crcEnd > len(data) {
			break
		}
		if typ != pngChunkType {
			out = append(out, data[chunkStart:crcEnd]...)
		}
		pos = crcEnd
		if typ == "IEND" {
			break
		}
	}
	return out
}

func (c PNGCarrier) Embed(data, payload []byte) ([]byte, error) {
	if !c.Sniff(data) {
		return nil, ErrInvalidCarrier
	}
	clean := stripRuNdChunks(data)
	if len(payload) == 0 {
		return clean, nil
	}
	if len(payload) > c.Capacity(data) {
		return nil, ErrCarrierTooSmall
	}

	wrapped := make([]byte, 0, len(Marker)+8+len(payload))
	wrapped = append(wrapped, Marker...)
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(payload)))
	wrapped = append(wrapped, lenBuf[:]...)
	wrapped = append(wrapped, payload...)

	out := make([]byte, 0, len(clean)+len(wrapped)+64)
	out = append(out, clean[:8]...)
	pos := 8
	inserted := false
	for pos+8 <= len(clean) {
		chunkStart := pos
		length := int(binary.BigEndian.Uint32(clean[pos:]))
		typ := string(clean[pos+4 : pos+8])
		crcEnd := pos + 8 + length + 4
		if crcEnd > len(clean) {
			break
		}
		// A PNG without IDAT gets the chunks right before IEND instead.
		if (typ == "IDAT" || typ == "IEND") && !inserted {
			inserted = true
			for start := 0; start < len(wrapped); start += pngMaxChunkSize {
				end := start + pngMaxChunkSize
				if end > len(wrapped) {
					end = len(wrapped)
				}
				out = writePNGChunk(out, pngChunkType, wrapped[start:end])
			}
		}
		out = append(out, clean[chunkStart:crcEnd]...)
		pos = crcEnd
		if typ == "IEND" {
			break
		}
	}
	if !inserted {
		// Neither IDAT nor IEND found (truncated chunk stream); append after
		// the last chunk walked.
		for start := 0; start < len(wrapped); start += pngMaxChunkSize {
			end := start + pngMaxChunkSize
			if end > len(wrapped) {
				end = len(wrapped)
			}
			out = writePNGChunk(out, pngChunkType, wrapped[start:end])
		}
	}
	return out, nil
}

func (c PNGCarrier) Extract(data []byte) ([]byte, error) {
	chunks, ok := walkPNGChunks(data)
	if !ok {
		return nil, ErrInvalidCarrier
	}
	var buf []byte
	for _, ch := range chunks {
		if ch.typ == pngChunkType {
			buf = append(buf, ch.data...)
		}
	}
	if len(buf) < len(Marker)+8 {
		return nil, ErrNoPayload
	}
	if string(buf[:len(Marker)]) != Marker {
		return nil, ErrNoPayload
	}
	length := binary.BigEndian.Uint64(buf[len(Marker) : len(Marker)+8])
	payloadStart := len(Marker) + 8
	if uint64(len(buf)-payloadStart) < length {
		return nil, ErrNoPayload
	}
	return buf[payloadStart : uint64(payloadStart)+length], nil
}
