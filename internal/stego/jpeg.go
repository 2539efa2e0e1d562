package stego

import "encoding/binary"

// JPEGCarrier hides a payload inside JPEG COM (comment, 0xFFFE) segments,
// inserted right before the first SOS (Start of Scan) segment. Unlike the
// PNG carrier, each segment is individually self-framed with its own marker
// and length, since segments are capped by JPEG's 16-bit length field.
type JPEGCarrier struct{}

const (
	jpegMarkerByte = 0xFE
	jpegSOIMarker  = 0xD8
	jpegEOIMarker  = 0xD9
	jpegSOSMarker  = 0xDA
	// 65535 (max segment length incl. the 2-byte length field itself) minus
	// the 2-byte length field, the 11-byte marker, and the 8-byte chunk length.
	jpegMaxSegmentPayload = 65535 - 2 - len(Marker) - 8
	jpegMaxCapacity       = 100 * jpegMaxSegmentPayload
)

func (JPEGCarrier) Name() string { return "jpeg" }

func (JPEGCarrier) Sniff(data []byte) bool {
	if len(data) < 4 || data[0] != 0xFF || data[1] != jpegSOIMarker {
		return false
	}
	for i := 0; i+1 < len(data); i++ {
		if data[i] == 0xFF && data[i+1] == jpegEOIMarker {
			return true
		}
	}
	return false
}

func (c JPEGCarrier) Capacity(data []byte) int {
	if !c.Sniff(data) {
		return 0
	}
	return jpegMaxCapacity
}

type jpegSegment struct{ start, end int }

// findStegoSegments returns the byte ranges of every COM segment whose
// payload begins with Marker.
func findStegoSegments(data []byte) []jpegSegment {
	var segments []jpegSegment
	pos := 2
	for pos+4 < len(data) {
		if data[pos] != 0xFF {
			pos++
			continue
		}
		marker := data[pos+1]
		if marker == jpegMarkerByte {
			length := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
			segStart, segEnd := pos, pos+2+length
			if segEnd <= len(data) && length >= len(Marker)+8 {
				payloadStart := pos + 4
				if payloadStart+len(Marker) <= len(data) && string(data[payloadStart:payloadStart+len(Marker)]) == Marker {
					segments = append(segments, jpegSegment{segStart, segEnd})
				}
			}
			pos = segEnd
		} else {
			if pos+4 >= len(data) {
				break
			}
			length := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
			pos += 2 + length
		}
	}
	return segments
}

func stripJPEGSegments(data []byte) []byte {
	segments := findStegoSegments(data)
	if len(segments) == 0 {
		return append([]byte(nil), data...)
	}
	out := make([]byte, 0, len(data))
	lastEnd := 0
	for _, seg := range segments {
		out = append(out, data[lastEnd:seg.start]...)
		lastEnd = seg.end
	}
	out = append(out, data[lastEnd:]...)
	return out
}

func (c JPEGCarrier) Embed(data, payload []byte) ([]byte, error) {
	if !c.Sniff(data) {
		return nil, ErrInvalidCarrier
	}
	clean := stripJPEGSegments(data)
	if len(payload) == 0 {
		return clean, nil
	}
	if len(payload) > c.Capacity(data) {
		return nil, ErrCarrierTooSmall
	}

	insertPos := findJPEGInsertPos(clean)

	out := make([]byte, 0, len(clean)+len(payload)+64)
	out = append(out, clean[:insertPos]...)
	for start := 0; start < len(payload); start += jpegMaxSegmentPayload {
		end := start + jpegMaxSegmentPayload
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[start:end]
		out = append(out, 0xFF, jpegMarkerByte)
		segmentPayloadLen := 2 + len(Marker) + 8 + len(chunk)
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(segmentPayloadLen))
		out = append(out, lenBuf[:]...)
		out = append(out, Marker...)
		var chunkLenBuf [8]byte
		binary.BigEndian.PutUint64(chunkLenBuf[:], uint64(len(chunk)))
		out = append(out, chunkLenBuf[:]...)
		out = append(out, chunk...)
	}
	out = append(out, clean[insertPos:]...)
	return out, nil
}

// findJPEGInsertPos walks segments after SOI looking for SOS (start of
// scan data); new segments are inserted just before it so they never land
// inside compressed image data.
func findJPEGInsertPos(data []byte) int {
	insertPos := 2
	pos := 2
	for pos+4 < len(data) {
		if data[pos] != 0xFF {
			pos++
			continue
		}
		marker := data[pos+1]
		if marker == jpegSOSMarker {
			return pos
		}
		if pos+4 >= len(data) {
			break
		}
		length := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		pos += 2 + length
		insertPos = pos
	}
	return insertPos
}

func (c JPEGCarrier) Extract(data []byte) ([]byte, error) {
	if !c.Sniff(data) {
		return nil, ErrInvalidCarrier
	}
	segments := findStegoSegments(data)
	if len(segments) == 0 {
		return nil, ErrNoPayload
	}
	var payload []byte
	for _, seg := range segments {
		if seg.start+4+len(Marker)+8 >= seg.end {
			continue
		}
		lenStart := seg.start + 4 + len(Marker)
		chunkLen := int(binary.BigEndian.Uint64(data[lenStart : lenStart+8]))
		chunkStart := lenStart + 8
		chunkEnd := chunkStart + chunkLen
		if chunkEnd <= seg.end {
			payload = append(payload, data[chunkStart:chunkEnd]...)
		}
	}
	if len(payload) == 0 {
		return nil, ErrNoPayload
	}
	return payload, nil
}
