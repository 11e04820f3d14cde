// Package httpagent builds the *http.Client used for both the source
// download and each leg's upload, grounded on the teacher's
// internal/client defaultHTTPClient: same transport tuning, same
// Accept-Encoding injection, adapted for long-lived streaming transfers
// instead of the teacher's short-lived file uploads.
package httpagent

import (
	"net/http"
	"time"
)

// Default returns an *http.Client tuned for large streaming transfers.
// Unlike the teacher's client, it carries no overall request Timeout — a
// transload can run for as long as the source keeps sending bytes and at
// least one leg keeps accepting them. Liveness is instead enforced by the
// caller via context cancellation and, per leg, the idle-timeout watchdog
// in internal/leg.
func Default() *http.Client {
	base := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		DisableKeepAlives:     false,
		ForceAttemptHTTP2:     true,
		WriteBufferSize:       256 * 1024,
		ReadBufferSize:        256 * 1024,
		DisableCompression:    true, // source decoding is handled explicitly in internal/source
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	return &http.Client{
		Transport: &acceptEncodingTransport{base},
	}
}

// acceptEncodingTransport injects an Accept-Encoding header advertising
// zstd and gzip support, unless the caller already set one.
type acceptEncodingTransport struct {
	base http.RoundTripper
}

func (t *acceptEncodingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "zstd, gzip")
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
