package mfc

import "golang.org/x/text/encoding/simplifiedchinese"

// ObjectTagKind discriminates the four shapes an MFC object tag can take.
type ObjectTagKind int

const (
	// TagNull is an empty (nil) object reference.
	TagNull ObjectTagKind = iota
	// TagNewByName introduces a previously-undeclared runtime class.
	TagNewByName
	// TagNewByID declares a new object of an already-known class id.
	TagNewByID
	// TagReference points at a previously-seen object by id.
	TagReference
)

// ObjectTag is the decoded form of one MFC object-tag read.
type ObjectTag struct {
	Kind      ObjectTagKind
	ClassName string // set only for TagNewByName
	ClassID   uint32 // set for TagNewByID / TagReference
}

// ClassTable tracks runtime class names declared (or pre-scanned) within one
// decode call. It is scoped to a single Reader and never shared across
// calls, matching spec §5's "transient class table scoped to the call".
type ClassTable struct {
	names []string // index 0 is reserved; ids are 1-based per MFC convention
}

func newClassTable() *ClassTable {
	return &ClassTable{names: []string{""}}
}

func (c *ClassTable) add(name string) uint32 {
	c.names = append(c.names, name)
	return uint32(len(c.names) - 1)
}

// Lookup returns the class name registered under id, or ok=false if the
// producer referenced an id this table never saw declared or pre-scanned.
func (c *ClassTable) Lookup(id uint32) (string, bool) {
	if id == 0 || int(id) >= len(c.names) {
		return "", false
	}
	return c.names[id], true
}

// prefillWellKnown scans buf once for plausible runtime-class declarations:
// length-prefixed ASCII strings beginning with 'C' that look like class
// names, pre-populating the table so reference-by-id tags that point
// backward into a producer's own class table can still resolve even when
// this fragment never replays the original declaration (spec §9).
func (c *ClassTable) prefillWellKnown(buf []byte) {
	i := 0
	for i < len(buf) {
		n := int(buf[i])
		if n == 0 || n >= 0x40 || i+1+n > len(buf) {
			i++
			continue
		}
		candidate := buf[i+1 : i+1+n]
		if looksLikeClassName(candidate) {
			name, err := simplifiedchinese.GBK.NewDecoder().Bytes(candidate)
			if err == nil {
				c.add(string(name))
			}
		}
		i++
	}
}

func looksLikeClassName(b []byte) bool {
	if len(b) == 0 || b[0] != 'C' {
		return false
	}
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

// ReadObjectTag decodes the next MFC object tag: a 16-bit tag where 0x0000
// is null, 0xFFFF introduces a new class by name, 0x7FFF escalates to a
// 32-bit extended tag, and any other value's high bit distinguishes
// new-by-id (set) from reference-by-id (clear).
func (r *Reader) ReadObjectTag() (ObjectTag, error) {
	tag, err := r.ReadU16()
	if err != nil {
		return ObjectTag{}, err
	}
	switch tag {
	case 0x0000:
		return ObjectTag{Kind: TagNull}, nil
	case 0xFFFF:
		if _, err := r.ReadU16(); err != nil { // schema, ignored
			return ObjectTag{}, err
		}
		nameLen, err := r.ReadU16()
		if err != nil {
			return ObjectTag{}, err
		}
		if nameLen >= 0x40 {
			return ObjectTag{}, newParseError(StringLenOverflow, r.pos, "class name length >= 0x40")
		}
		raw, err := r.ReadBytes(int(nameLen))
		if err != nil {
			return ObjectTag{}, err
		}
		name, err := decodeGBK(raw)
		if err != nil {
			return ObjectTag{}, err
		}
		r.classes.add(name)
		return ObjectTag{Kind: TagNewByName, ClassName: name}, nil
	case 0x7FFF:
		ext, err := r.ReadU32()
		if err != nil {
			return ObjectTag{}, err
		}
		if ext&0x80000000 != 0 {
			return ObjectTag{Kind: TagNewByID, ClassID: ext &^ 0x80000000}, nil
		}
		return ObjectTag{Kind: TagReference, ClassID: ext}, nil
	default:
		if tag&0x8000 != 0 {
			return ObjectTag{Kind: TagNewByID, ClassID: uint32(tag &^ 0x8000)}, nil
		}
		return ObjectTag{Kind: TagReference, ClassID: uint32(tag)}, nil
	}
}

// ResolveClass returns the class name for a decoded tag, looking up the
// table for TagNewByID/TagReference and failing with UnknownClassId when
// the producer referenced an id this stream never declared or pre-scanned.
func (r *Reader) ResolveClass(tag ObjectTag) (string, error) {
	switch tag.Kind {
	case TagNewByName:
		return tag.ClassName, nil
	case TagNewByID, TagReference:
		name, ok := r.classes.Lookup(tag.ClassID)
		if !ok {
			return "", newParseError(UnknownClassId, r.pos, "")
		}
		return name, nil
	default:
		return "", nil
	}
}
