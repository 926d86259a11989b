package sixbit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	names := []string{"", "A", "param", "HEAD_TOP", "a0_9Z:z_", strings.Repeat("x", 255)}
	for _, name := range names {
		packed, err := Pack(name)
		require.NoError(t, err)
		assert.Equal(t, 1+PackedLen(len(name)), len(packed))

		got, err := Unpack(int(packed[0]), packed[1:])
		require.NoError(t, err)
		assert.Equal(t, name, got)
	}
}

func TestPackedLen(t *testing.T) {
	assert.Equal(t, 0, PackedLen(0))
	assert.Equal(t, 1, PackedLen(1))
	assert.Equal(t, 2, PackedLen(2))
	assert.Equal(t, 3, PackedLen(4))
	assert.Equal(t, 6, PackedLen(8))
}

func TestPackUnknownChar(t *testing.T) {
	_, err := Pack("bad name")
	require.Error(t, err)
	var uc *UnknownCharError
	assert.ErrorAs(t, err, &uc)
}

func TestPackTooLong(t *testing.T) {
	_, err := Pack(strings.Repeat("a", 256))
	assert.Error(t, err)
}

func TestAlphabetOrder(t *testing.T) {
	// The alphabet's ordinal position defines each character's 6-bit
	// code; spot-check a few fixed points from the spec.
	assert.Equal(t, byte('0'), Alphabet[0])
	assert.Equal(t, byte('9'), Alphabet[9])
	assert.Equal(t, byte('A'), Alphabet[10])
	assert.Equal(t, byte('Z'), Alphabet[35])
	assert.Equal(t, byte('a'), Alphabet[36])
	assert.Equal(t, byte('z'), Alphabet[61])
	assert.Equal(t, byte(':'), Alphabet[62])
	assert.Equal(t, byte('_'), Alphabet[63])
	assert.Len(t, Alphabet, 64)
}
