// Package protocol holds the wire-level constants shared by the source
// reader, the fanout coordinator, and every leg: I/O buffer sizing tiers,
// the default timeouts, and the filename-extraction regex.
package protocol

import (
	"regexp"
	"time"
)

// I/O copy-buffer size tiers by declared payload size. The source pump
// reads with a fixed BufferSizeLarge buffer; GetOptimalBufferSize is not
// called by the pipeline, and a leg's outbound body is copied by net/http.
const (
	BufferSizeSmall     = 8 * 1024        // < 64KB
	BufferSizeMedium    = 64 * 1024       // 64KB - 1MB
	BufferSizeLarge     = 1024 * 1024     // 1MB - 100MB
	BufferSizeVeryLarge = 4 * 1024 * 1024 // > 100MB
	DefaultIOBufferSize = BufferSizeLarge

	SmallFileThreshold  = 64 * 1024
	MediumFileThreshold = 1024 * 1024
	LargeFileThreshold  = 100 * 1024 * 1024
)

// GetOptimalBufferSize returns the best io.CopyBuffer size for a payload of
// the given declared length. A non-positive length (unknown) gets the
// default.
func GetOptimalBufferSize(declaredSize int64) int {
	switch {
	case declaredSize <= 0:
		return DefaultIOBufferSize
	case declaredSize < SmallFileThreshold:
		return BufferSizeSmall
	case declaredSize < MediumFileThreshold:
		return BufferSizeMedium
	case declaredSize < LargeFileThreshold:
		return BufferSizeLarge
	default:
		return BufferSizeVeryLarge
	}
}

// Engine defaults (spec §3, §4.1), overridable per-session via
// internal/config environment bindings.
const (
	// DefaultBufferCapBytes is BUFFER_CAP from spec §3: the bounded FIFO
	// capacity each leg's buffer carries before a write is reported as
	// accepted-but-over-capacity.
	DefaultBufferCapBytes int64 = 20 * 1024 * 1024

	// DefaultIdleTimeout is the per-leg idle-timeout window (spec §4.1).
	DefaultIdleTimeout = 60 * time.Second

	// DefaultProgressInterval is how often the session logs / broadcasts
	// download progress (spec §4.4 step 3).
	DefaultProgressInterval = 5 * time.Second
)

// DefaultSourceUserAgent is sent on every source GET, and on each upload
// request whose headers carry no User-Agent (spec §6).
const DefaultSourceUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36"

// ContentDispositionFilenameRegexp implements spec §6's filename extraction
// pattern: filename*?=(UTF-8|ISO-8859-2)?(['"])?([^'";\n]+)\1?
var ContentDispositionFilenameRegexp = regexp.MustCompile(`(?i)filename\*?=(?:UTF-8|ISO-8859-2)?(['"])?([^'";\n]+)['"]?`)
