package kbinxml

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestIsBinaryXML checks P1: is_binary_xml(b) iff len(b) > 2, b[0]==0xA0,
// and b[1] is a recognised compression byte.
func TestIsBinaryXML(t *testing.T) {
	assert.True(t, IsBinaryXML([]byte{0xA0, 0x42, 0x00}))
	assert.True(t, IsBinaryXML([]byte{0xA0, 0x45, 0x00}))
	assert.False(t, IsBinaryXML([]byte{0xA0, 0x42}), "too short")
	assert.False(t, IsBinaryXML([]byte{0xA0}))
	assert.False(t, IsBinaryXML(nil))
	assert.False(t, IsBinaryXML([]byte{0xA1, 0x42, 0x00}), "bad signature")
	assert.False(t, IsBinaryXML([]byte{0xA0, 0x99, 0x00}), "bad compression byte")
}

// TestHeaderXOR checks P2: every encoded output's header satisfies
// b[2] XOR b[3] == 0xFF.
func TestHeaderXOR(t *testing.T) {
	root := NewElement("A")
	out, _, err := roundTripEncode(t, root, nil)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, byte(0xFF), out[2]^out[3])
}

func roundTripEncode(t *testing.T, root Element, opts *EncodeOptions) ([]byte, Element, error) {
	t.Helper()
	out, err := Encode(root, opts)
	if err != nil {
		return nil, nil, err
	}
	decoded, _, err := Decode(out)
	return out, decoded, err
}
