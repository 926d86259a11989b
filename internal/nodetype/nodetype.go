// Package nodetype enumerates the typed value kinds used by the kbin node
// stream and knows how to convert each one between its wire bytes and a
// whitespace-separated textual form.
package nodetype

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind groups type ids that share a byte<->text conversion.
type Kind int

const (
	// KindMarker covers ids with no registry-converted payload (NodeStart,
	// NodeEnd, FileEnd, and Attribute, whose string value the tree reader
	// and writer handle themselves).
	KindMarker Kind = iota
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindIp4
	KindBinary
	KindString
)

// Spec describes one entry of the type registry: its wire id, its textual
// names, the on-wire footprint of a single lane, and how many lanes make up
// one logical value (a vector's component count).
type Spec struct {
	ID      uint8
	Name    string
	AltName string
	// ElemSize is the byte width of a single lane. Count is -1 for
	// variable-length kinds (Binary, String), 0 for markers, otherwise the
	// number of lanes in one value (1 for scalars, 2-4, 8 or 16 for vectors).
	ElemSize int8
	Count    int8
	Kind     Kind
}

// Variable reports whether values of this type carry a length prefix
// instead of a fixed byte footprint.
func (s *Spec) Variable() bool { return s.Count == -1 }

// Marker reports whether this type carries no payload at all.
func (s *Spec) Marker() bool { return s.Kind == KindMarker }

// ElementSize returns the byte footprint of a single logical value
// (ElemSize * Count), or -1 for variable-length types.
func (s *Spec) ElementSize() int {
	if s.Variable() {
		return -1
	}
	return int(s.ElemSize) * int(s.Count)
}

const (
	IDNodeStart = 1
	IDS8        = 2
	IDU8        = 3
	IDS16       = 4
	IDU16       = 5
	IDS32       = 6
	IDU32       = 7
	IDS64       = 8
	IDU64       = 9
	IDBinary    = 10
	IDString    = 11
	IDIp4       = 12
	IDTime      = 13
	IDFloat     = 14
	IDDouble    = 15
	IDAttribute = 46
	IDVs8       = 48
	IDVu8       = 49
	IDVs16      = 50
	IDVu16      = 51
	IDBool      = 52
	IDBool2     = 53
	IDBool3     = 54
	IDBool4     = 55
	IDVb        = 56
	IDNodeEnd   = 190
	IDFileEnd   = 191
)

var registry = []Spec{
	{IDNodeStart, "void", "", 0, 0, KindMarker},
	{IDS8, "s8", "", 1, 1, KindInt8},
	{IDU8, "u8", "", 1, 1, KindUint8},
	{IDS16, "s16", "", 2, 1, KindInt16},
	{IDU16, "u16", "", 2, 1, KindUint16},
	{IDS32, "s32", "", 4, 1, KindInt32},
	{IDU32, "u32", "", 4, 1, KindUint32},
	{IDS64, "s64", "", 8, 1, KindInt64},
	{IDU64, "u64", "", 8, 1, KindUint64},
	{IDBinary, "bin", "binary", 1, -1, KindBinary},
	{IDString, "str", "string", 1, -1, KindString},
	{IDIp4, "ip4", "", 4, 1, KindIp4},
	{IDTime, "time", "", 4, 1, KindUint32},
	{IDFloat, "float", "f", 4, 1, KindFloat32},
	{IDDouble, "double", "d", 8, 1, KindFloat64},
	{16, "2s8", "", 1, 2, KindInt8},
	{17, "2u8", "", 1, 2, KindUint8},
	{18, "2s16", "", 2, 2, KindInt16},
	{19, "2u16", "", 2, 2, KindUint16},
	{20, "2s32", "", 4, 2, KindInt32},
	{21, "2u32", "", 4, 2, KindUint32},
	{22, "2s64", "vs64", 8, 2, KindInt64},
	{23, "2u64", "vu64", 8, 2, KindUint64},
	{24, "2f", "", 4, 2, KindFloat32},
	{25, "2d", "vd", 8, 2, KindFloat64},
	{26, "3s8", "", 1, 3, KindInt8},
	{27, "3u8", "", 1, 3, KindUint8},
	{28, "3s16", "", 2, 3, KindInt16},
	{29, "3u16", "", 2, 3, KindUint16},
	{30, "3s32", "", 4, 3, KindInt32},
	{31, "3u32", "", 4, 3, KindUint32},
	{32, "3s64", "", 8, 3, KindInt64},
	{33, "3u64", "", 8, 3, KindUint64},
	{34, "3f", "", 4, 3, KindFloat32},
	{35, "3d", "", 8, 3, KindFloat64},
	{36, "4s8", "", 1, 4, KindInt8},
	{37, "4u8", "", 1, 4, KindUint8},
	{38, "4s16", "", 2, 4, KindInt16},
	{39, "4u16", "", 2, 4, KindUint16},
	{40, "4s32", "vs32", 4, 4, KindInt32},
	{41, "4u32", "vu32", 4, 4, KindUint32},
	{42, "4s64", "", 8, 4, KindInt64},
	{43, "4u64", "", 8, 4, KindUint64},
	{44, "4f", "vf", 4, 4, KindFloat32},
	{45, "4d", "", 8, 4, KindFloat64},
	{IDAttribute, "attr", "", 0, 0, KindMarker},
	{IDVs8, "vs8", "", 1, 16, KindInt8},
	{IDVu8, "vu8", "", 1, 16, KindUint8},
	{IDVs16, "vs16", "", 2, 8, KindInt16},
	{IDVu16, "vu16", "", 2, 8, KindUint16},
	{IDBool, "bool", "b", 1, 1, KindBool},
	{IDBool2, "2b", "", 1, 2, KindBool},
	{IDBool3, "3b", "", 1, 3, KindBool},
	{IDBool4, "4b", "", 1, 4, KindBool},
	{IDVb, "vb", "", 1, 16, KindBool},
	{IDNodeEnd, "nodeEnd", "", 0, 0, KindMarker},
	{IDFileEnd, "fileEnd", "", 0, 0, KindMarker},
}

var (
	byID   = make(map[uint8]*Spec, len(registry))
	byName = make(map[string]*Spec, len(registry)*2)
)

func init() {
	for i := range registry {
		s := &registry[i]
		byID[s.ID] = s
		byName[s.Name] = s
		if s.AltName != "" {
			byName[s.AltName] = s
		}
	}
}

// ByID looks up a TypeSpec by wire id. The bool result is false for an
// unrecognised id (InvalidNodeType at the call site).
func ByID(id uint8) (*Spec, bool) {
	s, ok := byID[id]
	return s, ok
}

// ByName looks up a TypeSpec by its registry name or alt_name, as used for
// the `__type` attribute on the Element side.
func ByName(name string) (*Spec, bool) {
	s, ok := byName[name]
	return s, ok
}

// ParseBytes renders the raw bytes of a fixed-width value (scalar or
// vector, never Binary/String/marker) as whitespace-separated text, one
// token per lane. The number of repeated values packed into data (1 for a
// plain scalar/vector, >1 for an array read) is len(data) divided by the
// value's footprint.
func (s *Spec) ParseBytes(data []byte) (string, error) {
	if s.Marker() {
		return "", fmt.Errorf("nodetype: %s carries no byte payload", s.Name)
	}
	if s.Variable() {
		return "", fmt.Errorf("nodetype: %s is variable-length, not byte-parseable", s.Name)
	}

	lane := int(s.ElemSize)
	groupSize := lane * int(s.Count)
	if groupSize <= 0 {
		return "", fmt.Errorf("nodetype: %s has zero-size lane", s.Name)
	}
	if len(data)%groupSize != 0 {
		return "", fmt.Errorf("nodetype: %s data length %d not a multiple of %d", s.Name, len(data), groupSize)
	}

	arrCount := len(data) / groupSize
	totalLanes := int(s.Count) * arrCount

	var b strings.Builder
	for i := 0; i < totalLanes; i++ {
		off := i * lane
		tok, err := s.decodeLane(data[off : off+lane])
		if err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
	}
	return b.String(), nil
}

// FormatBytes is the inverse of ParseBytes: it parses whitespace-separated
// tokens back into the lane-width binary representation.
func (s *Spec) FormatBytes(text string) ([]byte, error) {
	if s.Marker() || s.Variable() {
		return nil, fmt.Errorf("nodetype: %s has no byte-level format", s.Name)
	}

	fields := strings.Fields(text)
	lane := int(s.ElemSize)
	out := make([]byte, 0, lane*len(fields))
	for _, tok := range fields {
		b, err := s.encodeLane(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func (s *Spec) decodeLane(b []byte) (string, error) {
	switch s.Kind {
	case KindInt8:
		return strconv.FormatInt(int64(int8(b[0])), 10), nil
	case KindUint8:
		return strconv.FormatUint(uint64(b[0]), 10), nil
	case KindInt16:
		return strconv.FormatInt(int64(int16(binary.BigEndian.Uint16(b))), 10), nil
	case KindUint16:
		return strconv.FormatUint(uint64(binary.BigEndian.Uint16(b)), 10), nil
	case KindInt32:
		return strconv.FormatInt(int64(int32(binary.BigEndian.Uint32(b))), 10), nil
	case KindUint32:
		return strconv.FormatUint(uint64(binary.BigEndian.Uint32(b)), 10), nil
	case KindInt64:
		return strconv.FormatInt(int64(binary.BigEndian.Uint64(b)), 10), nil
	case KindUint64:
		return strconv.FormatUint(binary.BigEndian.Uint64(b), 10), nil
	case KindFloat32:
		return strconv.FormatFloat(float64(math.Float32frombits(binary.BigEndian.Uint32(b))), 'f', 6, 32), nil
	case KindFloat64:
		return strconv.FormatFloat(math.Float64frombits(binary.BigEndian.Uint64(b)), 'f', 6, 64), nil
	case KindBool:
		switch b[0] {
		case 0x00:
			return "0", nil
		case 0x01:
			return "1", nil
		default:
			return "", &InvalidBooleanInputError{Input: b[0]}
		}
	case KindIp4:
		return fmt.Sprintf("%d.%d.%d.%d", b[0], b[1], b[2], b[3]), nil
	default:
		return "", fmt.Errorf("nodetype: unhandled kind for %s", s.Name)
	}
}

func (s *Spec) encodeLane(tok string) ([]byte, error) {
	switch s.Kind {
	case KindInt8:
		v, err := strconv.ParseInt(tok, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("nodetype: parse %s as s8: %w", tok, err)
		}
		return []byte{byte(int8(v))}, nil
	case KindUint8:
		v, err := strconv.ParseUint(tok, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("nodetype: parse %s as u8: %w", tok, err)
		}
		return []byte{byte(v)}, nil
	case KindInt16:
		v, err := strconv.ParseInt(tok, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("nodetype: parse %s as s16: %w", tok, err)
		}
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(int16(v)))
		return b, nil
	case KindUint16:
		v, err := strconv.ParseUint(tok, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("nodetype: parse %s as u16: %w", tok, err)
		}
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(v))
		return b, nil
	case KindInt32:
		v, err := strconv.ParseInt(tok, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("nodetype: parse %s as s32: %w", tok, err)
		}
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(int32(v)))
		return b, nil
	case KindUint32:
		v, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("nodetype: parse %s as u32: %w", tok, err)
		}
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(v))
		return b, nil
	case KindInt64:
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("nodetype: parse %s as s64: %w", tok, err)
		}
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(v))
		return b, nil
	case KindUint64:
		v, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("nodetype: parse %s as u64: %w", tok, err)
		}
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, v)
		return b, nil
	case KindFloat32:
		v, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return nil, fmt.Errorf("nodetype: parse %s as float: %w", tok, err)
		}
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, math.Float32bits(float32(v)))
		return b, nil
	case KindFloat64:
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("nodetype: parse %s as double: %w", tok, err)
		}
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, math.Float64bits(v))
		return b, nil
	case KindBool:
		switch tok {
		case "0":
			return []byte{0x00}, nil
		case "1":
			return []byte{0x01}, nil
		default:
			return nil, fmt.Errorf("nodetype: invalid boolean text %q", tok)
		}
	case KindIp4:
		parts := strings.Split(tok, ".")
		if len(parts) != 4 {
			return nil, fmt.Errorf("nodetype: invalid ip4 text %q", tok)
		}
		out := make([]byte, 4)
		for i, p := range parts {
			v, err := strconv.ParseUint(p, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("nodetype: parse ip4 segment %q: %w", p, err)
			}
			out[i] = byte(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("nodetype: unhandled kind for %s", s.Name)
	}
}

// InvalidBooleanInputError reports a bool-typed byte outside {0x00, 0x01}.
type InvalidBooleanInputError struct {
	Input byte
}

func (e *InvalidBooleanInputError) Error() string {
	return fmt.Sprintf("nodetype: invalid input for boolean: %d", e.Input)
}
