// Package multipart streams a Leg's buffer into a multipart/form-data body
// without a second buffering pass, the way the spec's default POST upload
// (spec §4.5) requires: a single part named "file".
package multipart

import (
	"io"
	"mime/multipart"
)

// Encoded is the result of Encode: a Reader to use as the request body and
// the Content-Type header value carrying the boundary.
type Encoded struct {
	Body        io.ReadCloser
	ContentType string
}

// Encode wraps body in a multipart/form-data envelope with a single part
// named "file" and the given filename, writing through an io.Pipe so the
// envelope is produced incrementally as the returned Body is read, rather
// than being assembled in memory first.
func Encode(body io.Reader, filename string) *Encoded {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, body); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := writer.Close(); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.Close()
	}()

	return &Encoded{Body: pr, ContentType: writer.FormDataContentType()}
}
