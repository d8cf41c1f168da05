package csv

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeReader strips a leading byte-order mark and transcodes UTF-16 input
// (detected by its BOM) to UTF-8. Input without a BOM is read as UTF-8;
// invalid sequences become U+FFFD instead of failing the read.
func decodeReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
