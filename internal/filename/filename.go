// Package filename derives an upload filename from a source response the
// way spec §6 requires: a Content-Disposition filename parameter,
// Latin-1-as-UTF-8 decoded through the legacy decodeURIComponent(escape(x))
// trick, falling back to the URL path basename.
package filename

import (
	"net/url"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/zulfikawr/transload/internal/protocol"
)

// FromResponse returns the derived filename for a download, given its
// Content-Disposition header value (may be empty) and its source URL.
func FromResponse(contentDisposition, sourceURL string) string {
	if contentDisposition != "" {
		if name, ok := fromContentDisposition(contentDisposition); ok {
			return name
		}
	}
	return fromURL(sourceURL)
}

// fromContentDisposition applies protocol.ContentDispositionFilenameRegexp
// and decodes the captured group.
//
// Go's regexp package (RE2) has no backreferences, so unlike spec's
// `(['"])?([^'";\n]+)\1?` the closing quote is matched independently of
// which quote character opened the value; this can only diverge from the
// backreference form on the pathological case of a value that opens with
// one quote character and is suffixed by the other, which real servers do
// not produce.
func fromContentDisposition(headerValue string) (string, bool) {
	match := protocol.ContentDispositionFilenameRegexp.FindStringSubmatch(headerValue)
	if match == nil {
		return "", false
	}
	raw := match[2]
	decoded, err := decodeLegacyEscape(raw)
	if err != nil || decoded == "" {
		return raw, raw != ""
	}
	return decoded, true
}

// decodeLegacyEscape reproduces JavaScript's decodeURIComponent(escape(x)):
// percent-decode the string, then read the resulting bytes (the Latin-1
// code units of the header value) as UTF-8. When those bytes are not valid
// UTF-8, the filename was escaped one Latin-1 character per byte, so each
// byte is taken as a Latin-1 code point instead.
func decodeLegacyEscape(s string) (string, error) {
	percentDecoded, err := url.PathUnescape(s)
	if err != nil {
		return "", err
	}
	if utf8.ValidString(percentDecoded) {
		return percentDecoded, nil
	}

	var sb strings.Builder
	sb.Grow(len(percentDecoded) * 2)
	for i := 0; i < len(percentDecoded); i++ {
		sb.WriteRune(rune(percentDecoded[i]))
	}
	return sb.String(), nil
}

// fromURL returns the basename of the URL path, or "download" if the URL
// has no usable path component.
func fromURL(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return "download"
	}
	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return "download"
	}
	return base
}
