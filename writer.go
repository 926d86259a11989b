package kbinxml

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/leo-cydar/kbinxml/internal/charset"
	"github.com/leo-cydar/kbinxml/internal/databuf"
	"github.com/leo-cydar/kbinxml/internal/nodestream"
	"github.com/leo-cydar/kbinxml/internal/nodetype"
)

// Compression selects the node buffer's name encoding for Encode.
type Compression int

const (
	// CompressionCompressed packs names with the sixbit codec (§4.2).
	// This is the only mode Encode actually emits, per spec.md §4.8 and
	// §9(a): the writer always emits compressed names even though the
	// reader also accepts uncompressed ones.
	CompressionCompressed Compression = iota
	// CompressionUncompressed requests length-prefixed, codec-encoded
	// names instead of sixbit packing. Encode rejects it; see Open
	// Question (a) in SPEC_FULL.md.
	CompressionUncompressed
)

// EncodeOptions configures Encode. The zero value selects SHIFT_JIS
// text encoding and compressed (sixbit) names.
type EncodeOptions struct {
	// Encoding names a registered text codec ("SHIFT_JIS", "UTF-8",
	// "EUC-JP", "ASCII", "ISO-8859-1"). Empty selects SHIFT_JIS.
	Encoding string
	// Compression must be CompressionCompressed (the default); Encode
	// returns a ProtocolError for CompressionUncompressed.
	Compression Compression
}

func (o *EncodeOptions) encodingName() string {
	if o == nil || o.Encoding == "" {
		return "SHIFT_JIS"
	}
	return o.Encoding
}

// Encode walks root depth-first and serialises it into a kbin container,
// per spec.md §4.7 (Tree Writer).
func Encode(root Element, opts *EncodeOptions) ([]byte, error) {
	if opts != nil && opts.Compression == CompressionUncompressed {
		return nil, &ProtocolError{Reason: "Encode only emits compressed (sixbit) names; uncompressed writing is unsupported"}
	}

	name := opts.encodingName()
	codec, err := charset.ByName(name)
	if err != nil {
		return nil, &EncodingError{Err: err}
	}
	tag, ok := charset.TagByName(name)
	if !ok {
		return nil, &EncodingError{Err: fmt.Errorf("charset: %q has no wire tag and cannot be used to encode a container header", name)}
	}

	nw := nodestream.NewWriter(true, codec)
	dw := databuf.NewWriter()

	if root != nil {
		if err := writeElement(root, nw, dw, codec); err != nil {
			return nil, err
		}
	}
	if err := nw.WriteRecord(nodetype.IDFileEnd, true, ""); err != nil {
		return nil, &SixbitError{Err: err}
	}

	Log.Debugw("encoded container", "encoding", name, "nodeBytes", len(nw.Bytes()), "dataBytes", len(dw.Bytes()))
	return writeSections(true, tag, nw.Bytes(), dw.Bytes()), nil
}

// writeElement emits one element's node record, its attributes, its own
// value payload, then recurses into its children before closing with a
// NodeEnd. Per §9(b), NodeEnd follows every element, leaves included.
func writeElement(e Element, nw *nodestream.Writer, dw *databuf.Writer, codec *charset.Codec) error {
	spec, isArray, err := classify(e)
	if err != nil {
		return err
	}

	if err := nw.WriteRecord(spec.ID, isArray, e.Name()); err != nil {
		return &SixbitError{Err: err}
	}

	for _, a := range e.Attrs() {
		if a.Name == AttrType || a.Name == AttrCount || a.Name == AttrSize {
			continue
		}
		if err := nw.WriteRecord(nodetype.IDAttribute, false, a.Name); err != nil {
			return &SixbitError{Err: err}
		}
		enc, err := codec.Encode(a.Value)
		if err != nil {
			return &EncodingError{Err: err}
		}
		dw.WriteLengthPrefixed(enc)
	}

	if err := writeValue(e, spec, isArray, dw, codec); err != nil {
		return err
	}

	for _, c := range e.Children() {
		if err := writeElement(c, nw, dw, codec); err != nil {
			return err
		}
	}

	return nw.WriteRecord(nodetype.IDNodeEnd, true, "")
}

// classify determines an element's node type and array flag per §4.7
// steps 1-2: an explicit __type attribute wins; otherwise non-empty text
// makes it a String, and an empty, type-less element is a plain
// NodeStart. The array bit is set for markers (the observed wire
// convention, per S1), for variable-length types (String/Binary), and
// for any other type carrying a non-zero __count.
func classify(e Element) (*nodetype.Spec, bool, error) {
	if typeName, ok := e.Attr(AttrType); ok {
		spec, ok := nodetype.ByName(typeName)
		if !ok {
			return nil, false, &ProtocolError{Reason: "unknown __type " + typeName}
		}
		return spec, arrayFlag(e, spec), nil
	}
	if e.Text() != "" {
		spec, _ := nodetype.ByName("str")
		return spec, true, nil
	}
	spec, _ := nodetype.ByID(nodetype.IDNodeStart)
	return spec, true, nil
}

func arrayFlag(e Element, spec *nodetype.Spec) bool {
	if spec.Marker() || spec.Variable() {
		return true
	}
	count, ok := e.Attr(AttrCount)
	if !ok {
		return false
	}
	n, err := strconv.Atoi(count)
	return err == nil && n != 0
}

func writeValue(e Element, spec *nodetype.Spec, isArray bool, dw *databuf.Writer, codec *charset.Codec) error {
	switch spec.Kind {
	case nodetype.KindMarker:
		return nil

	case nodetype.KindString:
		enc, err := codec.Encode(e.Text())
		if err != nil {
			return &EncodingError{Err: err}
		}
		dw.WriteLengthPrefixed(enc)
		return nil

	case nodetype.KindBinary:
		raw, err := hex.DecodeString(e.Text())
		if err != nil {
			return &ConvertError{Kind: "hex", NodeType: spec.Name, Err: err}
		}
		dw.WriteLengthPrefixed(raw)
		return nil
	}

	raw, err := spec.FormatBytes(e.Text())
	if err != nil {
		return &ConvertError{Kind: "string", NodeType: spec.Name, Err: err}
	}

	if isArray {
		groupSize := int(spec.ElemSize) * int(spec.Count)
		if groupSize <= 0 || len(raw)%groupSize != 0 {
			return &SizeMismatchError{NodeType: spec.Name, Expected: groupSize, Actual: len(raw)}
		}
		dw.WriteLengthPrefixed(raw)
		return nil
	}

	writeAligned(dw, spec, raw)
	return nil
}

// writeAligned mirrors reader.go's readAligned: 1- and 2-byte scalars go
// through the narrow c1/c2 lanes, everything else through the main c4
// cursor.
func writeAligned(dw *databuf.Writer, spec *nodetype.Spec, raw []byte) {
	switch len(raw) {
	case 1:
		dw.WriteU8(raw[0])
	case 2:
		dw.WriteU16(binary.BigEndian.Uint16(raw))
	default:
		dw.WriteSized(raw)
	}
}
