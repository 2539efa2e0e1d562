package stego

import (
	"bytes"
	"encoding/binary"
	"math"
)

// MP4Carrier hides a payload inside a single `free` box appended to the
// file. Players ignore unrecognized top-level boxes, so playback is
// unaffected. Unlike PNG/JPEG the payload isn't chunked: ISOBMFF box sizes
// are a 32-bit field, so the whole marker+length+payload lives in one box.
type MP4Carrier struct{}

const mp4BoxHeaderLen = 8 // 4-byte size + 4-byte type

func (MP4Carrier) Name() string { return "mp4" }

func (MP4Carrier) Sniff(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	limit := len(data)
	if limit > 1024 {
		limit = 1024
	}
	return bytes.Contains(data[:limit], []byte("ftyp"))
}

func (c MP4Carrier) Capacity(data []byte) int {
	if !c.Sniff(data) {
		return 0
	}
	return math.MaxUint32 - mp4BoxHeaderLen - len(Marker) - 8
}

func findMP4Marker(data []byte) int {
	return bytes.Index(data, []byte(Marker))
}

// stripMP4Box removes a previously appended stego `free` box, if present.
// The marker lives 8 bytes into the box (after size+type), so the box
// header is found by walking backward from the marker index.
func stripMP4Box(data []byte) []byte {
	markerIdx := findMP4Marker(data)
	if markerIdx < mp4BoxHeaderLen {
		return append([]byte(nil), data...)
	}
	boxStart := markerIdx - mp4BoxHeaderLen
	boxSize := int(binary.BigEndian.Uint32(data[boxStart : boxStart+4]))
	if boxStart+boxSize > len(data) {
		return append([]byte(nil), data...)
	}
	out := make([]byte, 0, len(data)-boxSize)
	out = append(out, data[:boxStart]...)
	out = append(out, data[boxStart+boxSize:]...)
	return out
}

func buildMP4FreeBox(payload []byte) []byte {
	totalSize := mp4BoxHeaderLen + len(Marker) + 8 + len(payload)
	box := make([]byte, 0, totalSize)
	var sizeBuf [4]byte
	binary.BigEndian.PutUint32(sizeBuf[:], uint32(totalSize))
	box = append(box, sizeBuf[:]...)
	box = append(box, "free"...)
	box = append(box, Marker...)
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(payload)))
	box = append(box, lenBuf[:]...)
	box = append(box, payload...)
	return box
}

func (c MP4Carrier) Embed(data, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return stripMP4Box(data), nil
	}
	if !c.Sniff(data) {
		return nil, ErrInvalidCarrier
	}
	if len(payload) > c.Capacity(data) {
		return nil, ErrCarrierTooSmall
	}
	clean := stripMP4Box(data)
	return append(clean, buildMP4FreeBox(payload)...), nil
}

func (c MP4Carrier) Extract(data []byte) ([]byte, error) {
	if !c.Sniff(data) {
		return nil, ErrInvalidCarrier
	}
	markerIdx := findMP4Marker(data)
	if markerIdx < 0 {
		return nil, ErrNoPayload
	}
	lenStart := markerIdx + len(Marker)
	if lenStart+8 > len(data) {
		return nil, ErrNoPayload
	}
	length := binary.BigEndian.Uint64(data[lenStart : lenStart+8])
	payloadStart := lenStart + 8
	if uint64(payloadStart)+length > uint64(len(data)) {
		return nil, ErrNoPayload
	}
	return data[payloadStart : uint64(payloadStart)+length], nil
}
