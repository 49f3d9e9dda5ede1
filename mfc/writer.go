package mfc

import "golang.org/x/text/encoding/simplifiedchinese"

// Writer is the symmetric encoder to Reader. It always emits GBK strings;
// the decoder's UTF-16LE acceptance exists only to round-trip pre-existing
// clipboard payloads produced by other encoders (spec §9).
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 256)}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// WriteBytes appends raw bytes.
func (w *Writer) WriteBytes(b []byte) { w.buf = append(w.buf, b...) }

// WriteU8 appends one byte.
func (w *Writer) WriteU8(v uint8) { w.buf = append(w.buf, v) }

// WriteU16 appends a little-endian uint16.
func (w *Writer) WriteU16(v uint16) {
	w.buf = append(w.buf, byte(v), byte(v>>8))
}

// WriteU32 appends a little-endian uint32.
func (w *Writer) WriteU32(v uint32) {
	w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// WriteI32 appends a little-endian int32.
func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }

// WriteU64 appends a little-endian uint64.
func (w *Writer) WriteU64(v uint64) {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	w.buf = append(w.buf, b...)
}

// AlignTo4 pads with zero bytes until Len() is a multiple of 4.
func (w *Writer) AlignTo4() {
	remainder := len(w.buf) % 4
	if remainder == 0 {
		return
	}
	pad := 4 - remainder
	for i := 0; i < pad; i++ {
		w.buf = append(w.buf, 0)
	}
}

// WriteMfcString GBK-encodes s and writes it with the escalating
// length-prefix (single byte unless the GBK length needs 0xFF escalation).
func (w *Writer) WriteMfcString(s string) error {
	enc, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return &EncodingError{Value: s, Cause: err}
	}
	n := len(enc)
	if n < 0xFF {
		w.WriteU8(uint8(n))
	} else {
		w.WriteU8(0xFF)
		w.WriteU16(uint16(n))
	}
	w.WriteBytes(enc)
	return nil
}

// WriteClassSig writes the MFC new-by-name object tag (0xFFFF) followed by
// a zero schema id and the class name, as emitted ahead of every CLDNetwork/
// CLDBox/CLDContact/CLDCoil/CLDElement/CLDVariable record.
func (w *Writer) WriteClassSig(name string) error {
	w.WriteU16(0xFFFF)
	w.WriteU16(0) // schema, ignored on read
	enc, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(name))
	if err != nil {
		return &EncodingError{Value: name, Cause: err}
	}
	if len(enc) >= 0x40 {
		return &EncodingError{Value: name, Cause: errStringLenOverflow}
	}
	w.WriteU16(uint16(len(enc)))
	w.WriteBytes(enc)
	return nil
}
