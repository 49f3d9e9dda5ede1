// Package mfc implements the primitive read/write operations of an MFC
// CObject::Serialize-style binary stream: little-endian integers,
// length-prefixed ANSI/GBK or UTF-16LE strings, 4-byte alignment, and the
// object-tag/runtime-class-table protocol used to self-describe embedded
// objects.
package mfc

import (
	"golang.org/x/text/encoding/simplifiedchinese"
)

// stringMode tracks whether the reader currently decodes length-prefixed
// strings as single-byte GBK or as UTF-16LE, per the 0xFFFE mode-switch
// sentinel.
type stringMode int

const (
	modeGBK stringMode = iota
	modeUTF16LE
)

// Reader is a seekable cursor over an MFC object stream byte buffer.
type Reader struct {
	buf  []byte
	pos  int
	mode stringMode

	classes *ClassTable
}

// NewReader builds a Reader over buf, pre-scanning it to seed the runtime
// class table with well-known class names (see ClassTable.prefillWellKnown).
func NewReader(buf []byte) *Reader {
	r := &Reader{buf: buf, mode: modeGBK, classes: newClassTable()}
	r.classes.prefillWellKnown(buf)
	return r
}

// Pos returns the current read offset.
func (r *Reader) Pos() int { return r.pos }

// Len returns the total buffer length.
func (r *Reader) Len() int { return len(r.buf) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// SeekTo repositions the cursor to an absolute offset.
func (r *Reader) SeekTo(pos int) error {
	if pos < 0 || pos > len(r.buf) {
		return newParseError(EndOfStream, r.pos, "seek out of range")
	}
	r.pos = pos
	return nil
}

// RemainingAllZero reports whether every unread byte is zero, used to
// tolerate the codec's fixed trailing guard while flagging real garbage.
func (r *Reader) RemainingAllZero() bool {
	for _, b := range r.buf[r.pos:] {
		if b != 0 {
			return false
		}
	}
	return true
}

func (r *Reader) require(n int) error {
	if r.pos+n > len(r.buf) {
		return newParseError(EndOfStream, r.pos, "need more bytes than remain")
	}
	return nil
}

// ReadBytes reads n raw bytes and advances the cursor.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadU8 reads one byte.
func (r *Reader) ReadU8() (uint8, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// PeekU8 reads one byte without advancing the cursor.
func (r *Reader) PeekU8() (uint8, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	return r.buf[r.pos], nil
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	v := uint16(r.buf[r.pos]) | uint16(r.buf[r.pos+1])<<8
	r.pos += 2
	return v, nil
}

// PeekU16 reads a little-endian uint16 without advancing the cursor.
func (r *Reader) PeekU16() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	return uint16(r.buf[r.pos]) | uint16(r.buf[r.pos+1])<<8, nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := uint32(r.buf[r.pos]) | uint32(r.buf[r.pos+1])<<8 | uint32(r.buf[r.pos+2])<<16 | uint32(r.buf[r.pos+3])<<24
	r.pos += 4
	return v, nil
}

// PeekU32 reads a little-endian uint32 without advancing the cursor.
func (r *Reader) PeekU32() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	return uint32(r.buf[r.pos]) | uint32(r.buf[r.pos+1])<<8 | uint32(r.buf[r.pos+2])<<16 | uint32(r.buf[r.pos+3])<<24, nil
}

// ReadI32 reads a little-endian int32.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	if err := r.require(8); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(r.buf[r.pos+i]) << (8 * i)
	}
	r.pos += 8
	return v, nil
}

// AlignTo4 skips 0..3 bytes so Pos() becomes a multiple of 4.
func (r *Reader) AlignTo4() error {
	remainder := r.pos % 4
	if remainder == 0 {
		return nil
	}
	pad := 4 - remainder
	_, err := r.ReadBytes(pad)
	return err
}

// ReadMfcStringLength implements the escalating length prefix described in
// spec §4.1: a single byte unless it reads 0xFF, in which case a u16 is
// read; 0xFFFE switches the active string mode to UTF-16LE and continues
// the same escalation; 0xFFFF escalates to a u32, where 0xFFFFFFFF is the
// empty/extended sentinel (itself followed by a second 0xFFFFFFFF marker).
func (r *Reader) ReadMfcStringLength() (int, error) {
	b0, err := r.ReadU8()
	if err != nil {
		return 0, err
	}
	if b0 != 0xFF {
		return int(b0), nil
	}

	u16, err := r.ReadU16()
	if err != nil {
		return 0, err
	}
	if u16 == 0xFFFE {
		r.mode = modeUTF16LE
		return r.ReadMfcStringLength()
	}
	if u16 != 0xFFFF {
		return int(u16), nil
	}

	u32, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	if u32 == 0xFFFFFFFF {
		marker, err := r.ReadU32()
		if err != nil {
			return 0, err
		}
		if marker != 0xFFFFFFFF {
			return 0, newParseError(BadEncoding, r.pos, "expected empty-string marker")
		}
		return 0, nil
	}
	return int(u32), nil
}

// ReadMfcString reads a length-prefixed string in the stream's current
// string mode (GBK or UTF-16LE).
func (r *Reader) ReadMfcString() (string, error) {
	n, err := r.ReadMfcStringLength()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	switch r.mode {
	case modeUTF16LE:
		raw, err := r.ReadBytes(n * 2)
		if err != nil {
			return "", err
		}
		return decodeUTF16LE(raw)
	default:
		raw, err := r.ReadBytes(n)
		if err != nil {
			return "", err
		}
		return decodeGBK(raw)
	}
}

func decodeGBK(raw []byte) (string, error) {
	out, err := simplifiedchinese.GBK.NewDecoder().Bytes(raw)
	if err != nil {
		return "", newParseError(BadEncoding, 0, err.Error())
	}
	return string(out), nil
}

func decodeUTF16LE(raw []byte) (string, error) {
	if len(raw)%2 != 0 {
		return "", newParseError(BadEncoding, 0, "odd length utf16le buffer")
	}
	runes := make([]uint16, len(raw)/2)
	for i := range runes {
		runes[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
	}
	return utf16ToString(runes), nil
}
