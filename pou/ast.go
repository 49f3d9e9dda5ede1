// Package pou implements the brand-neutral Program Organization Unit (POU)
// abstract syntax tree and its bidirectional binary codec to/from the
// Hollysys clipboard MFC object-stream format.
package pou

// Variant distinguishes the two incompatible POU header layouts. Modeled as
// a sum type (never a union with optional fields) per the codec's design
// notes: Normal and Safety each own their own header serializer.
type Variant int

const (
	// Normal is the standard PLC POU header layout.
	Normal Variant = iota
	// Safety is the ITCC safety-certified POU header layout.
	Safety
)

// ClipboardFormat returns the Windows clipboard format name this variant is
// registered under.
func (v Variant) ClipboardFormat() string {
	if v == Safety {
		return "POU_TREE_Clipboard_ITCC"
	}
	return "POU_TREE_Clipboard_PLC"
}

func (v Variant) String() string {
	if v == Safety {
		return "Safety"
	}
	return "Normal"
}

// ElementType is the discriminator of an LdElement variant.
type ElementType int

const (
	// ElementNetwork tags a nested network element (class code 0x09).
	ElementNetwork ElementType = 0x09
	// ElementBox tags a function-block instruction (class code 0x03).
	ElementBox ElementType = 0x03
	// ElementContact tags a ladder contact bound to a variable (0x04).
	ElementContact ElementType = 0x04
	// ElementCoil tags a ladder coil bound to a variable (0x05).
	ElementCoil ElementType = 0x05
)

// BoxPin is one named pin of a Box element, bound to a variable name.
type BoxPin struct {
	Name     string
	Variable string
}

// LdElement is one element of a Network's element list. Its Type determines
// which fields are meaningful: Box uses Instance/Pins; Contact/Coil use
// SubType and the single variable carried in Name.
type LdElement struct {
	ID   int32
	Type ElementType

	// Name is the instruction name for a Box, or the bound variable name for
	// Contact/Coil.
	Name string

	// Instance is the function-block instance name. A non-empty Instance
	// marks the Box as "instanced", which controls both its presence on the
	// wire and the pin encoding format (compact vs per-pin type tag).
	Instance string

	Pins []BoxPin

	// SubType is meaningful for Contact/Coil only: 0 = normally open,
	// 1 = normally closed.
	SubType uint8
}

// Network is an ordered list of ladder elements under one rung.
type Network struct {
	ID       int32
	Label    string
	Comment  string
	Elements []LdElement
}

// Variable is one entry of a POU's local variable table.
type Variable struct {
	Name          string
	DataType      string
	InitValue     string
	Comment       string
	SOEEnable     bool
	PowerDownKeep bool
}

// UniversalPou is the brand-neutral representation of one Hollysys LD POU
// fragment: a name, an ordered network list, and an ordered variable table.
// It is immutable while a codec call is in progress (spec §3): callers must
// not mutate a Pou value concurrently with Encode/Decode.
type UniversalPou struct {
	Name      string
	Networks  []Network
	Variables []Variable
}
