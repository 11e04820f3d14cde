package source

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// decodeBody wraps resp.Body in a transparent decompressor when the
// server sent Content-Encoding: gzip or zstd — the transport advertises
// support for both (internal/httpagent) but disables Go's built-in
// automatic gzip handling so declared Content-Length stays under our
// control.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		return &joinCloser{Reader: gz, closers: []io.Closer{gz, resp.Body}}, nil
	case "zstd":
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		return &zstdBody{Decoder: zr, body: resp.Body}, nil
	default:
		return resp.Body, nil
	}
}

type joinCloser struct {
	io.Reader
	closers []io.Closer
}

func (j *joinCloser) Close() error {
	var firstErr error
	for _, c := range j.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type zstdBody struct {
	*zstd.Decoder
	body io.ReadCloser
}

func (z *zstdBody) Close() error {
	z.Decoder.Close()
	return z.body.Close()
}
