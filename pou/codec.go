package pou

import (
	"strings"
	"time"

	"github.com/hollysys/plc-comm-forge/mfc"
)

const (
	ldLanguageID = 1
	boolTypeName = "BOOL"

	elementHeaderFlag = 0x8001
	variableTag       = 0x15
	variableTailU8    = 0x04
	networksHint      = 6

	trailingGuardLen = 64
)

// timeNow is overridable in tests so Encode's timestamp field can be masked
// when asserting round-trip equality, per the invariant in spec §8.
var timeNow = time.Now

// Encode serializes pou into the MFC object-stream byte layout for variant,
// following the Hollysys clipboard convention byte-for-byte.
func Encode(p *UniversalPou, variant Variant) ([]byte, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}

	w := mfc.NewWriter()

	if err := w.WriteMfcString(p.Name); err != nil {
		return nil, &EncodingError{Field: "name", Cause: err}
	}
	w.AlignTo4()

	if variant == Normal {
		w.WriteU32(uint32(timeNow().Unix()))
	}
	if err := w.WriteMfcString(p.Name); err != nil {
		return nil, &EncodingError{Field: "name", Cause: err}
	}
	w.AlignTo4()

	if variant == Normal {
		w.WriteU32(0)
		w.WriteU32(0)
		w.WriteU32(0)
	} else {
		w.WriteU32(0)
		w.WriteU32(256)
		w.WriteU32(0)
		w.WriteU32(0)
		w.WriteU32(0)
	}

	w.WriteU32(ldLanguageID)
	w.WriteU32(1)
	if err := w.WriteMfcString(boolTypeName); err != nil {
		return nil, &EncodingError{Field: "returnType", Cause: err}
	}
	w.WriteU32(1)
	w.WriteU32(0)

	w.WriteU16(networksHint)
	if err := w.WriteClassSig("CLDNetwork"); err != nil {
		return nil, &EncodingError{Field: "networks", Cause: err}
	}
	w.WriteU16(uint16(len(p.Networks)))

	for _, n := range p.Networks {
		if err := encodeNetwork(w, n); err != nil {
			return nil, err
		}
	}

	for _, v := range p.Variables {
		if err := encodeVariable(w, v); err != nil {
			return nil, err
		}
	}

	w.WriteBytes(make([]byte, trailingGuardLen))

	return w.Bytes(), nil
}

func encodeNetwork(w *mfc.Writer, n Network) error {
	w.WriteI32(n.ID)
	w.WriteU8(0x09)
	w.WriteI32(1) // expanded
	w.WriteI32(n.ID + 1)
	if err := w.WriteMfcString(n.Label); err != nil {
		return &EncodingError{Field: "network.label", Cause: err}
	}
	if err := w.WriteMfcString(n.Comment); err != nil {
		return &EncodingError{Field: "network.comment", Cause: err}
	}
	w.WriteU16(elementHeaderFlag)
	w.WriteU16(uint16(len(n.Elements)))
	for _, e := range n.Elements {
		if err := encodeElement(w, e); err != nil {
			return err
		}
	}
	return nil
}

func elementClassSig(t ElementType) string {
	switch t {
	case ElementBox:
		return "CLDBox"
	case ElementContact:
		return "CLDContact"
	case ElementCoil:
		return "CLDCoil"
	default:
		return "CLDElement"
	}
}

// decodeClassSig reads an object tag and resolves it through the class
// table, failing with mfc.UnknownClassId when a reference-by-id tag points
// at a class this stream never declared or pre-scanned (spec §4.1/§9), and
// rejecting a resolved name that doesn't match the expected signature.
func decodeClassSig(r *mfc.Reader, want string) error {
	tag, err := r.ReadObjectTag()
	if err != nil {
		return err
	}
	got, err := r.ResolveClass(tag)
	if err != nil {
		return err
	}
	if got != "" && got != want {
		return &DecodingError{Field: "classSig", Cause: &ClassSignatureError{Want: want, Got: got}}
	}
	return nil
}

// decodeElementClassSig is decodeClassSig for element tags, whose class
// signature can be any of the element kinds this codec knows how to decode.
func decodeElementClassSig(r *mfc.Reader) error {
	tag, err := r.ReadObjectTag()
	if err != nil {
		return err
	}
	got, err := r.ResolveClass(tag)
	if err != nil {
		return err
	}
	switch got {
	case "", "CLDBox", "CLDContact", "CLDCoil", "CLDElement":
		return nil
	default:
		return &DecodingError{Field: "element.classSig", Cause: &ClassSignatureError{Want: "CLDBox/CLDContact/CLDCoil/CLDElement", Got: got}}
	}
}

func encodeElement(w *mfc.Writer, e LdElement) error {
	if err := w.WriteClassSig(elementClassSig(e.Type)); err != nil {
		return &EncodingError{Field: "element.classSig", Cause: err}
	}
	w.WriteI32(e.ID)
	w.WriteU8(uint8(e.Type))
	if err := w.WriteMfcString(e.Name); err != nil {
		return &EncodingError{Field: "element.name", Cause: err}
	}

	switch e.Type {
	case ElementBox:
		w.WriteI32(0)
		if e.Instance != "" {
			w.WriteU8(1)
			if err := w.WriteMfcString(e.Instance); err != nil {
				return &EncodingError{Field: "element.instance", Cause: err}
			}
			w.WriteU16(uint16(len(e.Pins)))
			for _, pin := range e.Pins {
				if err := w.WriteMfcString(pin.Name); err != nil {
					return &EncodingError{Field: "pin.name", Cause: err}
				}
				if err := w.WriteMfcString(pin.Variable); err != nil {
					return &EncodingError{Field: "pin.variable", Cause: err}
				}
			}
		} else {
			w.WriteU16(uint16(len(e.Pins)))
			for _, pin := range e.Pins {
				w.WriteI32(2)
				if err := w.WriteMfcString(pin.Name); err != nil {
					return &EncodingError{Field: "pin.name", Cause: err}
				}
				w.WriteU8(0)
				if err := w.WriteMfcString(pin.Variable); err != nil {
					return &EncodingError{Field: "pin.variable", Cause: err}
				}
			}
		}
	case ElementContact, ElementCoil:
		w.WriteU8(e.SubType)
		w.WriteI32(-1)
	default:
		// nested network elements carry no payload beyond the common prefix
	}
	return nil
}

func encodeVariable(w *mfc.Writer, v Variable) error {
	w.WriteU8(variableTag)
	if err := w.WriteMfcString(v.Name); err != nil {
		return &EncodingError{Field: "variable.name", Cause: err}
	}
	w.WriteU32(0)
	if err := w.WriteMfcString(v.DataType); err != nil {
		return &EncodingError{Field: "variable.dataType", Cause: err}
	}
	if err := w.WriteMfcString(v.InitValue); err != nil {
		return &EncodingError{Field: "variable.initValue", Cause: err}
	}
	w.WriteU8(variableTailU8)
	w.WriteI32(-1)
	return nil
}

// Validate checks the pre-codec invariants of p.
func Validate(p *UniversalPou) error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Kind: EmptyName}
	}
	return nil
}

// Decode parses buf into a UniversalPou for variant, inverting Encode.
func Decode(buf []byte, variant Variant) (*UniversalPou, error) {
	r := mfc.NewReader(buf)

	name, err := r.ReadMfcString()
	if err != nil {
		return nil, err
	}
	if err := r.AlignTo4(); err != nil {
		return nil, err
	}

	if variant == Normal {
		if _, err := r.ReadU32(); err != nil { // timestamp, discarded
			return nil, err
		}
	}
	if _, err := r.ReadMfcString(); err != nil { // name repeated
		return nil, err
	}
	if err := r.AlignTo4(); err != nil {
		return nil, err
	}

	metaWords := 3
	if variant == Safety {
		metaWords = 5
	}
	for i := 0; i < metaWords; i++ {
		if _, err := r.ReadU32(); err != nil {
			return nil, err
		}
	}

	if _, err := r.ReadU32(); err != nil { // language id
		return nil, err
	}
	if _, err := r.ReadU32(); err != nil {
		return nil, err
	}
	if _, err := r.ReadMfcString(); err != nil { // return type
		return nil, err
	}
	if _, err := r.ReadU32(); err != nil {
		return nil, err
	}
	if _, err := r.ReadU32(); err != nil {
		return nil, err
	}

	if _, err := r.ReadU16(); err != nil { // networks hint
		return nil, err
	}
	if err := decodeClassSig(r, "CLDNetwork"); err != nil {
		return nil, err
	}
	networkCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}

	pou := &UniversalPou{Name: name}
	for i := 0; i < int(networkCount); i++ {
		n, err := decodeNetwork(r)
		if err != nil {
			return nil, err
		}
		pou.Networks = append(pou.Networks, n)
	}

	for {
		tag, err := r.PeekU8()
		if err != nil {
			return nil, err
		}
		if tag != variableTag {
			break
		}
		v, err := decodeVariable(r)
		if err != nil {
			return nil, err
		}
		pou.Variables = append(pou.Variables, v)
	}

	if r.Remaining() > 0 && !r.RemainingAllZero() {
		return nil, &TrailingGarbageError{Offset: r.Pos()}
	}

	return pou, nil
}

func decodeNetwork(r *mfc.Reader) (Network, error) {
	var n Network

	id, err := r.ReadI32()
	if err != nil {
		return n, err
	}
	n.ID = id

	if _, err := r.ReadU8(); err != nil { // 0x09 type tag
		return n, err
	}
	if _, err := r.ReadI32(); err != nil { // expanded
		return n, err
	}
	if _, err := r.ReadI32(); err != nil { // rung id
		return n, err
	}
	label, err := r.ReadMfcString()
	if err != nil {
		return n, err
	}
	n.Label = label
	comment, err := r.ReadMfcString()
	if err != nil {
		return n, err
	}
	n.Comment = comment

	if _, err := r.ReadU16(); err != nil { // element header flag
		return n, err
	}
	elementCount, err := r.ReadU16()
	if err != nil {
		return n, err
	}

	for i := 0; i < int(elementCount); i++ {
		e, err := decodeElement(r)
		if err != nil {
			return n, err
		}
		n.Elements = append(n.Elements, e)
	}
	return n, nil
}

func decodeElement(r *mfc.Reader) (LdElement, error) {
	var e LdElement

	if err := decodeElementClassSig(r); err != nil {
		return e, err
	}
	id, err := r.ReadI32()
	if err != nil {
		return e, err
	}
	e.ID = id

	typeCode, err := r.ReadU8()
	if err != nil {
		return e, err
	}
	e.Type = ElementType(typeCode)

	name, err := r.ReadMfcString()
	if err != nil {
		return e, err
	}
	e.Name = name

	switch e.Type {
	case ElementBox:
		if _, err := r.ReadI32(); err != nil { // padding / reserved
			return e, err
		}
		probe, err := r.PeekU8()
		if err != nil {
			return e, err
		}
		if probe == 0x01 {
			if _, err := r.ReadU8(); err != nil {
				return e, err
			}
			instance, err := r.ReadMfcString()
			if err != nil {
				return e, err
			}
			e.Instance = instance
			pinCount, err := r.ReadU16()
			if err != nil {
				return e, err
			}
			for i := 0; i < int(pinCount); i++ {
				pname, err := r.ReadMfcString()
				if err != nil {
					return e, err
				}
				pvar, err := r.ReadMfcString()
				if err != nil {
					return e, err
				}
				e.Pins = append(e.Pins, BoxPin{Name: pname, Variable: pvar})
			}
		} else {
			pinCount, err := r.ReadU16()
			if err != nil {
				return e, err
			}
			for i := 0; i < int(pinCount); i++ {
				if _, err := r.ReadI32(); err != nil { // fixed per-pin type tag == 2
					return e, err
				}
				pname, err := r.ReadMfcString()
				if err != nil {
					return e, err
				}
				if _, err := r.ReadU8(); err != nil { // flag byte == 0
					return e, err
				}
				pvar, err := r.ReadMfcString()
				if err != nil {
					return e, err
				}
				e.Pins = append(e.Pins, BoxPin{Name: pname, Variable: pvar})
			}
		}
	case ElementContact, ElementCoil:
		subType, err := r.ReadU8()
		if err != nil {
			return e, err
		}
		e.SubType = subType
		if _, err := r.ReadI32(); err != nil { // == -1
			return e, err
		}
	default:
		// nested network elements: no extra payload
	}
	return e, nil
}

func decodeVariable(r *mfc.Reader) (Variable, error) {
	var v Variable
	if _, err := r.ReadU8(); err != nil { // 0x15 tag
		return v, err
	}
	name, err := r.ReadMfcString()
	if err != nil {
		return v, err
	}
	v.Name = name
	if _, err := r.ReadU32(); err != nil {
		return v, err
	}
	dt, err := r.ReadMfcString()
	if err != nil {
		return v, err
	}
	v.DataType = dt
	iv, err := r.ReadMfcString()
	if err != nil {
		return v, err
	}
	v.InitValue = iv
	if _, err := r.ReadU8(); err != nil { // 0x04
		return v, err
	}
	if _, err := r.ReadI32(); err != nil { // == -1
		return v, err
	}
	return v, nil
}
