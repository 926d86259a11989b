package kbinxml

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leo-cydar/kbinxml/internal/charset"
)

// TestEmptyRootRoundTrip mirrors S1: a single empty, type-less root
// element with no attributes or children.
func TestEmptyRootRoundTrip(t *testing.T) {
	root := NewElement("A")

	out, err := Encode(root, nil)
	require.NoError(t, err)
	assert.True(t, IsBinaryXML(out))

	decoded, tag, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, charset.TagShiftJIS, tag)
	assert.Equal(t, "A", decoded.Name())
	assert.Empty(t, decoded.Children())
	assert.Empty(t, decoded.Text())
}

// TestScalarAttributeRoundTrip mirrors S2: <A __type="u8">7</A>.
func TestScalarAttributeRoundTrip(t *testing.T) {
	root := NewElement("A")
	root.SetAttr(AttrType, "u8")
	root.SetText("7")

	out, err := Encode(root, nil)
	require.NoError(t, err)

	decoded, _, err := Decode(out)
	require.NoError(t, err)
	typ, ok := decoded.Attr(AttrType)
	require.True(t, ok)
	assert.Equal(t, "u8", typ)
	assert.Equal(t, "7", decoded.Text())
}

// TestStringRoundTrip mirrors S3: <A __type="str">hello</A> over UTF-8.
func TestStringRoundTrip(t *testing.T) {
	root := NewElement("A")
	root.SetAttr(AttrType, "str")
	root.SetText("hello")

	out, err := Encode(root, &EncodeOptions{Encoding: "UTF-8"})
	require.NoError(t, err)

	decoded, tag, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, charset.TagUTF8, tag)
	assert.Equal(t, "hello", decoded.Text())
}

// TestArrayRoundTrip mirrors S4: <A __type="u16" __count="3">1 2 3</A>.
func TestArrayRoundTrip(t *testing.T) {
	root := NewElement("A")
	root.SetAttr(AttrType, "u16")
	root.SetAttr(AttrCount, "3")
	root.SetText("1 2 3")

	out, err := Encode(root, nil)
	require.NoError(t, err)

	decoded, _, err := Decode(out)
	require.NoError(t, err)
	cnt, ok := decoded.Attr(AttrCount)
	require.True(t, ok)
	assert.Equal(t, "3", cnt)
	assert.Equal(t, "1 2 3", decoded.Text())
}

// TestNestedElementsRoundTrip mirrors S5: <A><B __type="bool">1</B></A>.
func TestNestedElementsRoundTrip(t *testing.T) {
	root := NewElement("A")
	b := NewElement("B")
	b.SetAttr(AttrType, "bool")
	b.SetText("1")
	root.AddChild(b)

	out, err := Encode(root, nil)
	require.NoError(t, err)

	decoded, _, err := Decode(out)
	require.NoError(t, err)
	require.Len(t, decoded.Children(), 1)
	child := decoded.Children()[0]
	assert.Equal(t, "B", child.Name())
	assert.Equal(t, "1", child.Text())
}

// TestIP4RoundTrip mirrors S6: <A __type="ip4">192.168.0.1</A>.
func TestIP4RoundTrip(t *testing.T) {
	root := NewElement("A")
	root.SetAttr(AttrType, "ip4")
	root.SetText("192.168.0.1")

	out, err := Encode(root, nil)
	require.NoError(t, err)

	decoded, _, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "192.168.0.1", decoded.Text())
}

// TestBinaryRoundTrip exercises the Binary type: hex text in, hex text
// out, with the derived __size attribute set on decode.
func TestBinaryRoundTrip(t *testing.T) {
	root := NewElement("A")
	root.SetAttr(AttrType, "bin")
	root.SetText("deadbeef")

	out, err := Encode(root, nil)
	require.NoError(t, err)

	decoded, _, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", decoded.Text())
	size, ok := decoded.Attr(AttrSize)
	require.True(t, ok)
	assert.Equal(t, "4", size)
}

// TestAttributesOnContainerRoundTrip exercises real (non-reserved)
// attributes attached to a NodeStart container element.
func TestAttributesOnContainerRoundTrip(t *testing.T) {
	root := NewElement("A")
	root.SetAttr("foo", "bar")
	root.SetAttr("baz", "qux")
	child := NewElement("B")
	root.AddChild(child)

	out, err := Encode(root, nil)
	require.NoError(t, err)

	decoded, _, err := Decode(out)
	require.NoError(t, err)
	foo, ok := decoded.Attr("foo")
	require.True(t, ok)
	assert.Equal(t, "bar", foo)
	baz, ok := decoded.Attr("baz")
	require.True(t, ok)
	assert.Equal(t, "qux", baz)
	require.Len(t, decoded.Children(), 1)
}

// TestDeepTreeRoundTrip exercises a multi-level tree with mixed sibling
// types, per P7 (tree round-trip).
func TestDeepTreeRoundTrip(t *testing.T) {
	root := NewElement("root")
	for i, typ := range []string{"u8", "u16", "u32", "s64", "float"} {
		child := NewElement("field")
		child.SetAttr(AttrType, typ)
		switch typ {
		case "float":
			child.SetText("3.500000")
		default:
			child.SetText(strconv.Itoa(i + 1))
		}
		root.AddChild(child)
	}

	out, err := Encode(root, nil)
	require.NoError(t, err)

	decoded, _, err := Decode(out)
	require.NoError(t, err)
	require.Len(t, decoded.Children(), 5)
	for i, c := range decoded.Children() {
		typ, _ := c.Attr(AttrType)
		assert.Equal(t, []string{"u8", "u16", "u32", "s64", "float"}[i], typ)
	}
}

// TestDecodeToNodeCollection exercises the supplemented typed-tree API.
func TestDecodeToNodeCollection(t *testing.T) {
	root := NewElement("A")
	root.SetAttr(AttrType, "u32")
	root.SetText("42")

	out, err := Encode(root, nil)
	require.NoError(t, err)

	nc, _, err := DecodeToNodeCollection(out)
	require.NoError(t, err)
	require.NotNil(t, nc.Root)
	assert.Equal(t, "A", nc.Root.Name)
	assert.Equal(t, ValueScalar, nc.Root.Value.Kind)
	assert.Equal(t, "42", nc.Root.Value.Scalar)
}

// TestEncodeRejectsUncompressedWrite checks the pinned Open Question (a)
// decision: the writer always emits compressed names.
func TestEncodeRejectsUncompressedWrite(t *testing.T) {
	root := NewElement("A")
	_, err := Encode(root, &EncodeOptions{Compression: CompressionUncompressed})
	require.Error(t, err)
	var pe *ProtocolError
	assert.ErrorAs(t, err, &pe)
}

// TestEncodeUnknownTypeErrors checks that an unrecognised __type
// attribute is rejected rather than silently producing a bad container.
func TestEncodeUnknownTypeErrors(t *testing.T) {
	root := NewElement("A")
	root.SetAttr(AttrType, "not-a-real-type")
	_, err := Encode(root, nil)
	require.Error(t, err)
	var pe *ProtocolError
	assert.ErrorAs(t, err, &pe)
}
