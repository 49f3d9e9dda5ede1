package mfc

import "unicode/utf16"

func utf16ToString(units []uint16) string {
	return string(utf16.Decode(units))
}
