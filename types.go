package transload

import (
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// UploadConfig describes one upload destination (spec §3).
type UploadConfig struct {
	// UploadURL is the destination endpoint.
	UploadURL string
	// Method is "POST" or "PUT". Empty defaults to POST.
	Method string
	// FileName overrides the session-derived filename for this leg. If
	// empty, the Fanout Coordinator sets it once the source's filename
	// is known.
	FileName string
	// RandomBytesCount, if non-zero, appends that many cryptographically
	// random bytes to this leg's stream on clean finalization, altering
	// its declared size and content hash relative to the source.
	RandomBytesCount uint32
	// Headers are sent on the upload request. A User-Agent entry here
	// suppresses the default one.
	Headers map[string]string
	// Agent overrides the session's HTTP client for this leg only.
	Agent *http.Client
}

// SessionConfig carries the session-wide, optional settings (spec §3).
// A nil *SessionConfig is equivalent to the zero value.
type SessionConfig struct {
	// SaveToLocalPath, if set, also writes the source stream to a local
	// file, truncated-created at this path.
	SaveToLocalPath string
	// CalculateMD5 enables the running session-level MD5 digest.
	CalculateMD5 bool
	// Logger receives structured session/leg/source log output. Nil uses
	// the package default logger.
	Logger *zap.Logger
	// Agent is the HTTP client used for the source download and any leg
	// that doesn't supply its own. Nil builds a client tuned for large
	// streaming transfers (internal/httpagent).
	Agent *http.Client

	// ProgressAddr, if set, starts a WebSocket progress feed (and,
	// if EnableMetrics, a Prometheus /metrics handler) on this address
	// for the lifetime of Run.
	ProgressAddr string
	// EnableMetrics exposes Prometheus metrics on ProgressAddr's
	// /metrics route. Has no effect if ProgressAddr is empty.
	EnableMetrics bool

	// BufferCapBytes overrides the per-leg buffer capacity. Zero uses
	// the configured/default value (20 MiB).
	BufferCapBytes int64
	// IdleTimeout overrides the per-leg idle timeout. Zero uses the
	// configured/default value (60s).
	IdleTimeout time.Duration

	// NewHasher overrides the default MD5 running-hash collaborator.
	// Only consulted when CalculateMD5 is true.
	NewHasher func() Hasher
	// MultipartEncoder overrides the default multipart/form-data body
	// encoder used for non-PUT uploads.
	MultipartEncoder MultipartEncoder
	// NewLocalWriter overrides the default local-file collaborator used
	// when SaveToLocalPath is set.
	NewLocalWriter func(path string) (LocalWriter, error)
}

// Hasher is the running-hash collaborator (spec §1: "Out of scope: MD5
// primitive"). The default is an MD5 digest (internal/hashutil).
type Hasher interface {
	Write(chunk []byte)
	Sum() string
}

// MultipartEncoder is the collaborator that wraps a leg's buffer in a
// multipart/form-data body (spec §1: "Out of scope: multipart encoder").
// The default streams through an io.Pipe (internal/multipart).
type MultipartEncoder interface {
	Encode(body io.Reader, filename string) (io.ReadCloser, string)
}

// LocalWriter is the collaborator behind SaveToLocalPath (spec §1: "Out
// of scope: local filesystem writer"). The default truncates/creates the
// file at construction (internal/localwriter).
type LocalWriter interface {
	Write(chunk []byte) error
	Close() error
	Path() string
	Size() int64
}

// TransloadResult is the caller-visible aggregate result (spec §6).
type TransloadResult struct {
	URL      string
	Size     uint64
	Filename string
	MD5      string
	Local    *LocalResult
	Uploads  []UploadResult
}

// LocalResult describes the local file written when SaveToLocalPath was
// configured.
type LocalResult struct {
	Path string
	Size uint64
}

// UploadResult is the per-leg outcome (spec §6). UploadedByes preserves
// the spec's field-name misspelling; it is part of the external contract.
type UploadResult struct {
	UploadURL        string
	FileName         string
	Size             uint64
	UploadedByes     uint64
	RandomBytesCount uint32
	MD5              string
	Response         interface{}
	Error            string
}
