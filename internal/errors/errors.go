// Package errors implements the taxonomy from spec §7: SourceOpenError is
// the only kind of this taxonomy a Session's Run returns; every other kind
// is recorded on the affected Leg (or the session-level MD5) instead of
// being thrown. (Run also returns a local-file creation error as is.)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UserError pairs a human-readable message with remediation suggestions and
// an optional wrapped cause, the shape the teacher's CLI used for
// actionable error output.
type UserError struct {
	Message     string
	Suggestions []string
	Err         error
}

func (e *UserError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if len(e.Suggestions) > 0 {
		sb.WriteString("\n\nPossible solutions:")
		for _, suggestion := range e.Suggestions {
			sb.WriteString("\n  - ")
			sb.WriteString(suggestion)
		}
	}

	if e.Err != nil {
		sb.WriteString("\n\nTechnical details: ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying error, if any.
func (e *UserError) Unwrap() error {
	return e.Err
}

// New creates a UserError.
func New(message string, suggestions []string, err error) *UserError {
	return &UserError{Message: message, Suggestions: suggestions, Err: err}
}

// IsUserError reports whether err is (or wraps) a *UserError.
func IsUserError(err error) bool {
	var userErr *UserError
	return errors.As(err, &userErr)
}

// SourceOpenError (spec §7 category 1): the initial GET failed or never
// yielded a response body. This is the only category Session.Run returns
// (besides a failure to create the local file, returned before any
// request); every other category is recorded per-leg instead.
func SourceOpenError(url string, err error) error {
	return New(
		fmt.Sprintf("failed to open download %s", url),
		[]string{
			"verify the download URL is reachable",
			"check DNS resolution for the host",
			"confirm the server is not rejecting the request outright",
		},
		err,
	)
}

// SourceStreamError (spec §7 category 2): the source body errored mid
// transfer, after bytes had already started flowing.
func SourceStreamError(err error) error {
	return New(
		"download stream failed before completion",
		[]string{
			"the source connection was interrupted partway through",
			"legs received a prefix of the stream; none will report a completed MD5",
		},
		err,
	)
}

// LegHTTPError (spec §7 category 3): a leg's own HTTP round trip failed.
// Recorded on that leg only; surviving legs continue.
func LegHTTPError(uploadURL string, err error) error {
	return New(
		fmt.Sprintf("upload to %s failed", uploadURL),
		[]string{
			"verify the upload endpoint accepts the configured method (POST/PUT)",
			"check that the endpoint is reachable from this host",
		},
		err,
	)
}

// LegIdleTimeoutError (spec §7 category 4): a leg made no forward progress
// for the idle-timeout window while Active. Equivalent to LegHTTPError with
// a cancellation-shaped cause.
func LegIdleTimeoutError(uploadURL string, idleTimeout string) error {
	return New(
		fmt.Sprintf("upload to %s timed out after %s of inactivity", uploadURL, idleTimeout),
		[]string{
			"the destination stopped accepting bytes without closing the connection",
			"a Stalled leg does not count toward this timeout — only an Active one that stops making progress does",
		},
		nil,
	)
}
