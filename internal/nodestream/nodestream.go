// Package nodestream reads and writes the kbin node buffer: a flat
// sequence of (type id, name) instructions that drives the tree
// reader/writer. Names are sixbit-packed in compressed mode (the only
// mode Encode uses) or length-prefixed encoded strings in uncompressed
// mode (selected on decode by the container's compression byte).
package nodestream

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/b71729/bin"

	"github.com/leo-cydar/kbinxml/internal/charset"
	"github.com/leo-cydar/kbinxml/internal/nodetype"
	"github.com/leo-cydar/kbinxml/internal/sixbit"
)

// Record is one decoded node-buffer instruction.
type Record struct {
	TypeID  uint8
	IsArray bool
	// Name is empty for NodeEnd/FileEnd, which carry no name.
	Name string
}

// Reader walks a node buffer's Records in order.
type Reader struct {
	br         bin.Reader
	compressed bool
	codec      *charset.Codec
	one        [1]byte
	four       [4]byte
}

// NewReader wraps a node section buffer. codec is only consulted in
// uncompressed-name mode.
func NewReader(nodeBuf []byte, compressed bool, codec *charset.Codec) *Reader {
	return &Reader{
		br:         bin.NewReader(bytes.NewReader(nodeBuf), binary.BigEndian),
		compressed: compressed,
		codec:      codec,
	}
}

// Next reads the next record. io.EOF (wrapped) is returned once the
// buffer is exhausted; callers are expected to stop at FileEnd before
// that happens.
func (r *Reader) Next() (Record, error) {
	if err := r.br.ReadBytes(r.one[:]); err != nil {
		return Record{}, fmt.Errorf("nodestream: read raw id: %w", err)
	}
	raw := r.one[0]

	// NodeEnd/FileEnd are literal sentinel bytes (190/191), matched
	// directly before the array-bit split the other records use. They
	// carry no name.
	if raw == nodetype.IDNodeEnd || raw == nodetype.IDFileEnd {
		return Record{TypeID: raw, IsArray: true}, nil
	}

	typeID := raw &^ 0x40
	isArray := raw&0x40 != 0

	name, err := r.readName()
	if err != nil {
		return Record{}, err
	}
	return Record{TypeID: typeID, IsArray: isArray, Name: name}, nil
}

func (r *Reader) readName() (string, error) {
	if r.compressed {
		if err := r.br.ReadBytes(r.one[:]); err != nil {
			return "", fmt.Errorf("nodestream: read name length: %w", err)
		}
		length := int(r.one[0])
		packed := make([]byte, sixbit.PackedLen(length))
		if err := r.br.ReadBytes(packed); err != nil {
			return "", fmt.Errorf("nodestream: read packed name: %w", err)
		}
		return sixbit.Unpack(length, packed)
	}

	if err := r.br.ReadBytes(r.four[:]); err != nil {
		return "", fmt.Errorf("nodestream: read name byte length: %w", err)
	}
	n := binary.BigEndian.Uint32(r.four[:])
	raw := make([]byte, n)
	if err := r.br.ReadBytes(raw); err != nil {
		return "", fmt.Errorf("nodestream: read uncompressed name: %w", err)
	}
	if r.codec == nil {
		return "", fmt.Errorf("nodestream: uncompressed name mode requires a codec")
	}
	return r.codec.Decode(raw)
}

// Writer appends Records to a growing node buffer. The container framer
// always selects compressed (sixbit) naming for writes.
type Writer struct {
	buf        []byte
	compressed bool
	codec      *charset.Codec
}

// NewWriter creates a node buffer writer. codec is only consulted in
// uncompressed-name mode.
func NewWriter(compressed bool, codec *charset.Codec) *Writer {
	return &Writer{compressed: compressed, codec: codec}
}

// Bytes returns the accumulated node buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// WriteRecord appends one instruction. name is ignored for NodeEnd/FileEnd.
// Per spec.md §4.5, NodeEnd and FileEnd are always written with their
// literal sentinel byte value (190/191); isArray is accepted for
// symmetry with the other type ids but has no effect on these two.
func (w *Writer) WriteRecord(typeID uint8, isArray bool, name string) error {
	if typeID == nodetype.IDNodeEnd || typeID == nodetype.IDFileEnd {
		w.buf = append(w.buf, typeID)
		return nil
	}

	raw := typeID
	if isArray {
		raw |= 0x40
	}
	w.buf = append(w.buf, raw)

	if w.compressed {
		packed, err := sixbit.Pack(name)
		if err != nil {
			return err
		}
		w.buf = append(w.buf, packed...)
		return nil
	}

	if w.codec == nil {
		return fmt.Errorf("nodestream: uncompressed name mode requires a codec")
	}
	enc, err := w.codec.Encode(name)
	if err != nil {
		return err
	}
	lenBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBytes, uint32(len(enc)))
	w.buf = append(w.buf, lenBytes...)
	w.buf = append(w.buf, enc...)
	return nil
}
