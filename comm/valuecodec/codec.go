package valuecodec

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/hollysys/plc-comm-forge/comm/model"
)

// permute rearranges a big-endian-packed register buffer per order. ABCD is
// the identity; BADC swaps the two bytes of every 16-bit word; CDAB swaps
// the buffer's two halves (the two 16-bit words for a 32-bit value, the two
// 32-bit halves for a 64-bit value); DCBA reverses the whole buffer. Every
// permutation is its own inverse, so the same function is used to both
// pack-for-encode and unpack-for-decode.
func permute(buf []byte, order model.ByteOrder32) []byte {
	out := make([]byte, len(buf))
	switch order {
	case model.ByteOrderBADC:
		for i := 0; i < len(buf); i += 2 {
			out[i], out[i+1] = buf[i+1], buf[i]
		}
	case model.ByteOrderCDAB:
		half := len(buf) / 2
		copy(out, buf[half:])
		copy(out[half:], buf[:half])
	case model.ByteOrderDCBA:
		for i, b := range buf {
			out[len(buf)-1-i] = b
		}
	default: // ABCD and anything else: identity
		copy(out, buf)
	}
	return out
}

func packRegistersBE(regs []uint16) []byte {
	buf := make([]byte, len(regs)*2)
	for i, r := range regs {
		binary.BigEndian.PutUint16(buf[i*2:], r)
	}
	return buf
}

// DecodeFromRegisters decodes dt from regs under the given 32-bit byte
// order, returning the raw numeric value as a float64 (display formatting
// and scale application happen separately in FormatDisplay).
func DecodeFromRegisters(dt model.DataType, order model.ByteOrder32, regs []uint16) (float64, error) {
	if dt == model.DataTypeUnknown {
		return 0, &DecodeError{Unsupported: "Unknown"}
	}
	if dt == model.DataTypeBool {
		return 0, &DecodeError{Unsupported: "Bool is read from bits, not registers"}
	}

	span, ok := dt.RegisterSpan()
	if !ok {
		return 0, &DecodeError{Unsupported: dt.String()}
	}
	if len(regs) < span {
		return 0, &DecodeError{Insufficient: true, Expected: span * 2, Got: len(regs) * 2}
	}
	regs = regs[:span]

	if span == 1 {
		switch dt {
		case model.DataTypeInt16:
			return float64(int16(regs[0])), nil
		case model.DataTypeUint16:
			return float64(regs[0]), nil
		}
	}

	buf := permute(packRegistersBE(regs), order)

	switch dt {
	case model.DataTypeInt32:
		return float64(int32(binary.BigEndian.Uint32(buf))), nil
	case model.DataTypeUint32:
		return float64(binary.BigEndian.Uint32(buf)), nil
	case model.DataTypeFloat32:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(buf))), nil
	case model.DataTypeInt64:
		return float64(int64(binary.BigEndian.Uint64(buf))), nil
	case model.DataTypeUint64:
		return float64(binary.BigEndian.Uint64(buf)), nil
	case model.DataTypeFloat64:
		return math.Float64frombits(binary.BigEndian.Uint64(buf)), nil
	default:
		return 0, &DecodeError{Unsupported: dt.String()}
	}
}

// EncodeToRegisters is the inverse of DecodeFromRegisters, used by tests to
// exercise the round-trip law of spec §8.
func EncodeToRegisters(dt model.DataType, order model.ByteOrder32, value float64) ([]uint16, error) {
	span, ok := dt.RegisterSpan()
	if !ok {
		return nil, &DecodeError{Unsupported: dt.String()}
	}

	if span == 1 {
		switch dt {
		case model.DataTypeInt16:
			return []uint16{uint16(int16(value))}, nil
		case model.DataTypeUint16:
			return []uint16{uint16(value)}, nil
		}
	}

	buf := make([]byte, span*2)
	switch dt {
	case model.DataTypeInt32:
		binary.BigEndian.PutUint32(buf, uint32(int32(value)))
	case model.DataTypeUint32:
		binary.BigEndian.PutUint32(buf, uint32(value))
	case model.DataTypeFloat32:
		binary.BigEndian.PutUint32(buf, math.Float32bits(float32(value)))
	case model.DataTypeInt64:
		binary.BigEndian.PutUint64(buf, uint64(int64(value)))
	case model.DataTypeUint64:
		binary.BigEndian.PutUint64(buf, uint64(value))
	case model.DataTypeFloat64:
		binary.BigEndian.PutUint64(buf, math.Float64bits(value))
	default:
		return nil, &DecodeError{Unsupported: dt.String()}
	}

	permuted := permute(buf, order)
	regs := make([]uint16, span)
	for i := range regs {
		regs[i] = binary.BigEndian.Uint16(permuted[i*2:])
	}
	return regs, nil
}

// DecodeFromBit decodes dt from a single coil/discrete bit. Only Bool is
// supported; every other type fails.
func DecodeFromBit(dt model.DataType, bit bool) (float64, error) {
	if dt != model.DataTypeBool {
		return 0, &DecodeError{Unsupported: dt.String() + " cannot be read from a bit"}
	}
	if bit {
		return 1, nil
	}
	return 0, nil
}

// FormatDisplay renders raw*scale using the shortest round-trip decimal
// representation, locale-independent. Bool values ignore scale and render
// as "1"/"0".
func FormatDisplay(dt model.DataType, raw float64, scale float64) string {
	if dt == model.DataTypeBool {
		if raw != 0 {
			return "1"
		}
		return "0"
	}
	return strconv.FormatFloat(raw*scale, 'g', -1, 64)
}
