// Package charset maps the one-byte kbin encoding tag to a text codec and
// performs the trailing-NUL handling the wire format expects around it.
package charset

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// Tag is the one-byte value stored in the container header that selects a
// text codec for String/Attribute payloads.
type Tag byte

const (
	TagShiftJIS    Tag = 0x00
	TagASCII       Tag = 0x20
	TagISO8859_1   Tag = 0x40
	TagEUCJP       Tag = 0x60
	TagShiftJISAlt Tag = 0x80
	TagUTF8        Tag = 0xA0
)

// Codec bundles a display name with the x/text encoding it delegates to.
type Codec struct {
	Name     string
	Encoding encoding.Encoding
}

var byTag = map[Tag]*Codec{
	TagShiftJIS:    {Name: "SHIFT_JIS", Encoding: japanese.ShiftJIS},
	TagASCII:       {Name: "ASCII", Encoding: unicode.UTF8},
	TagISO8859_1:   {Name: "ISO-8859-1", Encoding: charmap.ISO8859_1},
	TagEUCJP:       {Name: "EUC-JP", Encoding: japanese.EUCJP},
	TagShiftJISAlt: {Name: "SHIFT_JIS", Encoding: japanese.ShiftJIS},
	TagUTF8:        {Name: "UTF-8", Encoding: unicode.UTF8},
}

// byName additionally exposes codecs with no dedicated wire tag (CJK
// character sets from the same text-encoding family) through ByName.
// Encode rejects them, since the container header has no tag for them,
// and decoding selects codecs by tag only.
var byName = map[string]*Codec{
	"EUC-KR":   {Name: "EUC-KR", Encoding: korean.EUCKR},
	"GB18030":  {Name: "GB18030", Encoding: simplifiedchinese.GB18030},
	"SHIFT_JIS": byTag[TagShiftJIS],
	"EUC-JP":    byTag[TagEUCJP],
	"ASCII":     byTag[TagASCII],
	"ISO-8859-1": byTag[TagISO8859_1],
	"UTF-8":      byTag[TagUTF8],
}

// tagByName recovers the wire tag for a codec selected by name, for
// Encode when the caller only supplied Options.Encoding. EUC-KR and
// GB18030 have no wire tag and are absent here.
var tagByName = map[string]Tag{
	"SHIFT_JIS":  TagShiftJIS,
	"ASCII":      TagASCII,
	"ISO-8859-1": TagISO8859_1,
	"EUC-JP":     TagEUCJP,
	"UTF-8":      TagUTF8,
}

// UnknownTagError reports an encoding tag the registry has no codec for.
type UnknownTagError struct {
	Tag Tag
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("charset: unknown encoding tag 0x%02x", byte(e.Tag))
}

// ByTag resolves a wire tag to its codec.
func ByTag(tag Tag) (*Codec, error) {
	c, ok := byTag[tag]
	if !ok {
		return nil, &UnknownTagError{Tag: tag}
	}
	return c, nil
}

// ByName resolves a codec by its display name, for Options.Encoding.
func ByName(name string) (*Codec, error) {
	c, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("charset: unknown encoding name %q", name)
	}
	return c, nil
}

// TagByName resolves the wire tag to stamp into the container header for
// a codec selected by display name. The bool result is false for codecs
// with no assigned wire tag (EUC-KR, GB18030).
func TagByName(name string) (Tag, bool) {
	t, ok := tagByName[name]
	return t, ok
}

// Decode strips trailing NUL bytes from raw and decodes what remains with
// the codec.
func (c *Codec) Decode(raw []byte) (string, error) {
	raw = bytes.TrimRight(raw, "\x00")
	if c.Name == "ASCII" {
		if err := checkASCII(raw); err != nil {
			return "", err
		}
	}
	out, err := c.Encoding.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("charset: decode with %s: %w", c.Name, err)
	}
	return string(out), nil
}

// Encode encodes s with the codec and appends a single NUL terminator.
func (c *Codec) Encode(s string) ([]byte, error) {
	if c.Name == "ASCII" {
		if err := checkASCII([]byte(s)); err != nil {
			return nil, err
		}
	}
	out, err := c.Encoding.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("charset: encode with %s: %w", c.Name, err)
	}
	return append(out, 0x00), nil
}

// checkASCII rejects any byte outside the 7-bit range; the ASCII tag
// delegates to the UTF8 codec for transcoding but the wire format's
// ASCII tag means 7-bit only.
func checkASCII(b []byte) error {
	for _, c := range b {
		if c > 0x7F {
			return fmt.Errorf("charset: byte 0x%02x is not valid 7-bit ASCII", c)
		}
	}
	return nil
}
