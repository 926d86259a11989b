package kbinxml

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/leo-cydar/kbinxml/internal/charset"
)

const (
	signatureByte      byte = 0xA0
	compressionCompact byte = 0x42
	compressionRaw     byte = 0x45
)

// IsBinaryXML reports whether b looks like a kbin container: at least
// three bytes, signature 0xA0, and a recognised compression byte.
func IsBinaryXML(b []byte) bool {
	if len(b) <= 2 {
		return false
	}
	if b[0] != signatureByte {
		return false
	}
	return b[1] == compressionCompact || b[1] == compressionRaw
}

// header is the fixed 8-byte prologue: signature, compression mode,
// encoding tag/negation, and the node buffer's byte length.
type header struct {
	compressed bool
	tag        charset.Tag
	lenNode    uint32
}

func readHeader(b []byte) (header, int, error) {
	if len(b) < 8 {
		return header{}, 0, &HeaderError{Field: "length", Value: 0}
	}
	if b[0] != signatureByte {
		return header{}, 0, &HeaderError{Field: "signature", Value: b[0]}
	}
	var compressed bool
	switch b[1] {
	case compressionCompact:
		compressed = true
	case compressionRaw:
		compressed = false
	default:
		return header{}, 0, &HeaderError{Field: "compression", Value: b[1]}
	}
	tag, neg := b[2], b[3]
	if neg != 0xFF^tag {
		return header{}, 0, &HeaderError{Field: "encoding_neg", Value: neg}
	}
	lenNode := binary.BigEndian.Uint32(b[4:8])
	return header{compressed: compressed, tag: charset.Tag(tag), lenNode: lenNode}, 8, nil
}

func writeHeader(buf *bytes.Buffer, compressed bool, tag charset.Tag, lenNode uint32) {
	buf.WriteByte(signatureByte)
	if compressed {
		buf.WriteByte(compressionCompact)
	} else {
		buf.WriteByte(compressionRaw)
	}
	buf.WriteByte(byte(tag))
	buf.WriteByte(0xFF ^ byte(tag))
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], lenNode)
	buf.Write(lenBuf[:])
}

// splitSections separates the node and data buffer contents out of a
// full container, per §4.8's length-prefixed framing. The returned data
// section excludes the self-inclusive u32 length prefix but includes
// everything after it.
func splitSections(b []byte) (h header, node []byte, data []byte, err error) {
	h, off, err := readHeader(b)
	if err != nil {
		return header{}, nil, nil, err
	}
	if off+int(h.lenNode) > len(b) {
		return header{}, nil, nil, fmt.Errorf("kbinxml: node section length %d exceeds input", h.lenNode)
	}
	node = b[off : off+int(h.lenNode)]
	rest := b[off+int(h.lenNode):]
	if len(rest) < 4 {
		return header{}, nil, nil, fmt.Errorf("kbinxml: missing data section length")
	}
	lenData := binary.BigEndian.Uint32(rest[:4])
	if int(lenData) > len(rest) || lenData < 4 {
		return header{}, nil, nil, fmt.Errorf("kbinxml: invalid data section length %d", lenData)
	}
	data = rest[4:int(lenData)]
	return h, node, data, nil
}

// writeSections assembles the final container bytes from a finished node
// buffer and data buffer payload (the payload, not including the
// self-inclusive length prefix).
func writeSections(compressed bool, tag charset.Tag, node, dataPayload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(8 + len(node) + 4 + 4 + len(dataPayload))
	writeHeader(&buf, compressed, tag, uint32(len(node)))
	buf.Write(node)

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(4+len(dataPayload)))
	buf.Write(lenBuf[:])
	buf.Write(dataPayload)
	return buf.Bytes()
}
