package kbinxml

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"github.com/leo-cydar/kbinxml/internal/charset"
	"github.com/leo-cydar/kbinxml/internal/databuf"
	"github.com/leo-cydar/kbinxml/internal/nodestream"
	"github.com/leo-cydar/kbinxml/internal/nodetype"
)

// Decode parses a kbin container into an Element tree, the text-XML-like
// view of the document.
func Decode(b []byte) (Element, charset.Tag, error) {
	root, tag, err := decodeCore(b)
	if err != nil {
		return nil, 0, err
	}
	return nodeToElement(root), tag, nil
}

// DecodeToNodeCollection parses a kbin container into a NodeCollection,
// the typed-tree view that keeps TypeSpecs instead of stringly-typed
// `__type`/`__count` attributes.
func DecodeToNodeCollection(b []byte) (*NodeCollection, charset.Tag, error) {
	root, tag, err := decodeCore(b)
	if err != nil {
		return nil, 0, err
	}
	return &NodeCollection{Root: root}, tag, nil
}

func decodeCore(b []byte) (*Node, charset.Tag, error) {
	h, nodeBuf, dataBuf, err := splitSections(b)
	if err != nil {
		return nil, 0, err
	}
	codec, err := charset.ByTag(h.tag)
	if err != nil {
		return nil, 0, &EncodingError{Err: err}
	}

	nr := nodestream.NewReader(nodeBuf, h.compressed, codec)
	dr := databuf.NewReader(dataBuf)

	var stack []*Node
	var root *Node

	for {
		rec, err := nr.Next()
		if err != nil {
			return nil, 0, &DataError{Op: "read", Err: err}
		}

		switch rec.TypeID {
		case nodetype.IDFileEnd:
			if len(stack) > 1 {
				Log.Warnw("node stack not drained at FileEnd", "depth", len(stack))
			}
			if len(stack) > 0 {
				root = stack[0]
			}
			return root, h.tag, nil

		case nodetype.IDNodeEnd:
			if len(stack) == 0 {
				return nil, 0, &TypeMismatchError{Expected: "open element", Found: "NodeEnd"}
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, top)
			} else {
				root = top
			}

		case nodetype.IDNodeStart:
			stack = append(stack, &Node{Name: rec.Name})

		case nodetype.IDAttribute:
			if len(stack) == 0 {
				return nil, 0, &ProtocolError{Reason: "attribute record with no open element"}
			}
			raw, err := dr.ReadLengthPrefixed()
			if err != nil {
				return nil, 0, &DataError{Op: "read", Err: err}
			}
			val, err := codec.Decode(raw)
			if err != nil {
				return nil, 0, &EncodingError{Err: err}
			}
			top := stack[len(stack)-1]
			top.Attrs = append(top.Attrs, Attr{Name: rec.Name, Value: val})

		default:
			spec, ok := nodetype.ByID(rec.TypeID)
			if !ok {
				return nil, 0, &ProtocolError{Reason: "invalid node type id " + strconv.Itoa(int(rec.TypeID))}
			}
			n := &Node{Name: rec.Name, Type: spec}
			stack = append(stack, n)
			if err := readValue(n, rec.IsArray, dr, codec); err != nil {
				return nil, 0, err
			}
		}
	}
}

func readValue(n *Node, isArray bool, dr *databuf.Reader, codec *charset.Codec) error {
	switch n.Type.Kind {
	case nodetype.KindString:
		raw, err := dr.ReadLengthPrefixed()
		if err != nil {
			return &DataError{Op: "read", Err: err}
		}
		str, err := codec.Decode(raw)
		if err != nil {
			return &EncodingError{Err: err}
		}
		n.Value = Value{Kind: ValueString, String: str}
		return nil

	case nodetype.KindBinary:
		raw, err := dr.ReadLengthPrefixed()
		if err != nil {
			return &DataError{Op: "read", Err: err}
		}
		n.Value = Value{Kind: ValueBinary, Binary: append([]byte(nil), raw...)}
		return nil
	}

	if isArray {
		raw, err := dr.ReadLengthPrefixed()
		if err != nil {
			return &DataError{Op: "read", Err: err}
		}
		groupSize := int(n.Type.ElemSize) * int(n.Type.Count)
		if groupSize <= 0 || len(raw)%groupSize != 0 {
			return &SizeMismatchError{NodeType: n.Type.Name, Expected: groupSize, Actual: len(raw)}
		}
		count := len(raw) / groupSize
		arr := make([]string, count)
		for i := 0; i < count; i++ {
			tok, err := n.Type.ParseBytes(raw[i*groupSize : (i+1)*groupSize])
			var bie *nodetype.InvalidBooleanInputError
			if errors.As(err, &bie) {
				return &ProtocolError{Reason: bie.Error()}
			}
			if err != nil {
				return &ConvertError{Kind: "string", NodeType: n.Type.Name, Err: err}
			}
			arr[i] = tok
		}
		n.Value = Value{Kind: ValueArray, Array: arr}
		return nil
	}

	raw, err := readAligned(dr, n.Type)
	if err != nil {
		return &DataError{Op: "read", Err: err}
	}
	text, err := n.Type.ParseBytes(raw)
	var bie *nodetype.InvalidBooleanInputError
	if errors.As(err, &bie) {
		return &ProtocolError{Reason: bie.Error()}
	}
	if err != nil {
		return &ConvertError{Kind: "string", NodeType: n.Type.Name, Err: err}
	}
	n.Value = Value{Kind: ValueScalar, Scalar: text}
	return nil
}

// readAligned dispatches a single value's read through the narrow (c1/c2)
// lanes when its total footprint is 1 or 2 bytes, and through the main
// c4 cursor otherwise.
func readAligned(dr *databuf.Reader, spec *nodetype.Spec) ([]byte, error) {
	total := int(spec.ElemSize) * int(spec.Count)
	switch total {
	case 1:
		b, err := dr.ReadU8()
		if err != nil {
			return nil, err
		}
		return []byte{b}, nil
	case 2:
		v, err := dr.ReadU16()
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 2)
		binary.BigEndian.PutUint16(buf, v)
		return buf, nil
	default:
		return dr.ReadSized(total)
	}
}

func nodeToElement(n *Node) Element {
	e := NewElement(n.Name)
	for _, a := range n.Attrs {
		e.SetAttr(a.Name, a.Value)
	}
	if n.Type != nil {
		e.SetAttr(AttrType, n.Type.Name)
		switch n.Value.Kind {
		case ValueString:
			e.SetText(n.Value.String)
		case ValueBinary:
			e.SetAttr(AttrSize, strconv.Itoa(len(n.Value.Binary)))
			e.SetText(hex.EncodeToString(n.Value.Binary))
		case ValueScalar:
			e.SetText(n.Value.Scalar)
		case ValueArray:
			e.SetAttr(AttrCount, strconv.Itoa(len(n.Value.Array)))
			e.SetText(strings.Join(n.Value.Array, " "))
		}
	}
	for _, c := range n.Children {
		e.AddChild(nodeToElement(c))
	}
	return e
}
