package stream

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// StripBOM wraps r so that a leading UTF-8 or UTF-16 (BE/LE) byte-order
// mark, if present, is consumed (and, for UTF-16, the remaining bytes
// transcoded to UTF-8) before anything reaches engine.ParseState.Feed. The
// engine itself stays strictly byte-oriented per spec §3; this is purely an
// input-shaping step a caller may opt into when it cannot guarantee its
// byte source is already BOM-free UTF-8. Input with no BOM passes through
// unchanged.
func StripBOM(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
