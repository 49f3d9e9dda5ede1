package pou

// Config bundles the variant-dependent codec parameters a Hollysys
// engineering tool associates with one POU export target: the header
// variant, the fixed clipboard arena size callers pad/truncate to, and the
// serializer version stamp carried for forward compatibility.
//
// The codec itself does not enforce PouTotalLen; clipboard buffer sizing is
// owned by the OS clipboard glue this module excludes.
type Config struct {
	Variant          Variant
	PouTotalLen      int
	SerializeVersion int
}

// NormalConfig returns the default configuration for the Normal (PLC)
// variant.
func NormalConfig() Config {
	return Config{Variant: Normal, PouTotalLen: 0x2000, SerializeVersion: 6}
}

// SafetyConfig returns the default configuration for the Safety (ITCC)
// variant.
func SafetyConfig() Config {
	return Config{Variant: Safety, PouTotalLen: 0x2000, SerializeVersion: 6}
}
