package stego

import (
	"bytes"
	"encoding/binary"
)

// PDFCarrier hides a payload after the final `%%EOF` marker of a PDF file.
// Conforming readers stop parsing at the last `%%EOF`, so trailing bytes are
// invisible to them but trivially recoverable by us.
type PDFCarrier struct{}

var pdfHeader = []byte("%PDF-")
var pdfEOF = []byte("%%EOF")

func (PDFCarrier) Name() string { return "pdf" }

func (PDFCarrier) Sniff(data []byte) bool {
	return len(data) >= 8 && bytes.HasPrefix(data, pdfHeader) && bytes.Contains(data, pdfEOF)
}

func (c PDFCarrier) Capacity(data []byte) int {
	if !c.Sniff(data) {
		return 0
	}
	return 100 * 1024 * 1024
}

// locateEOF finds the byte offset right after the *last* `%%EOF` occurrence
// (and any immediately following \r/\n), or -1 if none exists.
func locateEOF(data []byte) int {
	pos := bytes.LastIndex(data, pdfEOF)
	if pos < 0 {
		return -1
	}
	idx := pos + len(pdfEOF)
	for idx < len(data) && (data[idx] == '\n' || data[idx] == '\r') {
		idx++
	}
	return idx
}

func findPDFMarkerStart(data []byte) int {
	return bytes.LastIndex(data, []byte(Marker))
}

func stripPDFPayload(data []byte) []byte {
	if pos := findPDFMarkerStart(data); pos >= 0 {
		return append([]byte(nil), data[:pos]...)
	}
	return append([]byte(nil), data...)
}

func (c PDFCarrier) Embed(data, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return stripPDFPayload(data), nil
	}
	if !c.Sniff(data) {
		return nil, ErrInvalidCarrier
	}
	if len(payload) > c.Capacity(data) {
		return nil, ErrCarrierTooSmall
	}

	clean := stripPDFPayload(data)
	eofIdx := locateEOF(clean)
	if eofIdx < 0 {
		return nil, ErrInvalidCarrier
	}

	out := make([]byte, 0, len(clean)+len(Marker)+8+len(payload)+1)
	out = append(out, clean[:eofIdx]...)
	if eofIdx == 0 || !(clean[eofIdx-1] == '\n' || clean[eofIdx-1] == '\r') {
		out = append(out, '\n')
	}
	out = append(out, Marker...)
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(payload)))
	out = append(out, lenBuf[:]...)
	out = append(out, payload...)
	return out, nil
}

func (c PDFCarrier) Extract(data []byte) ([]byte, error) {
	if !c.Sniff(data) {
		return nil, ErrInvalidCarrier
	}
	markerStart := findPDFMarkerStart(data)
	if markerStart < 0 {
		return nil, ErrNoPayload
	}
	lenStart := markerStart + len(Marker)
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
