package parser

import (
	"io"

	"golang.org/x/net/html/charset"
)

// NewUTF8Reader wraps an io.Reader with charset detection and conversion to UTF-8.
// Native caption snapshots come from the host page, which may declare a legacy
// encoding through <meta charset> or a byte order mark.
func NewUTF8Reader(body io.Reader) (io.Reader, error) {
	return charset.NewReader(body, "")
}

// xmlCharsetReader resolves the encoding label of an <?xml encoding="..."?>
// declaration for encoding/xml.
func xmlCharsetReader(label string, input io.Reader) (io.Reader, error) {
	return charset.NewReaderLabel(label, input)
}
