// Package source implements the Source Reader (spec §4.3, component C3):
// opens the download, derives its length and filename, and pumps its body
// into the Fanout Coordinator (and, optionally, a local file), pausing
// and resuming on the Coordinator's backpressure signals.
package source

import (
	"context"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"

	txerrors "github.com/zulfikawr/transload/internal/errors"
	"github.com/zulfikawr/transload/internal/filename"
	"github.com/zulfikawr/transload/internal/logging"
	"github.com/zulfikawr/transload/internal/metrics"
	"github.com/zulfikawr/transload/internal/protocol"
)

// Hasher is the running-hash collaborator for the session-level digest.
type Hasher interface {
	Write(chunk []byte)
	Sum() string
}

// LocalWriter is the optional local-save collaborator.
type LocalWriter interface {
	Write(chunk []byte) error
	Close() error
}

// Coordinator is the subset of the Fanout Coordinator the Source Reader
// drives directly.
type Coordinator interface {
	SetSize(contentLength uint64)
	SetFilename(name string)
	Broadcast(chunk []byte)
	FinalizeAll()
	AbortAll(err error)
}

// Config configures a Source Reader.
type Config struct {
	DownloadURL string
	Agent       *http.Client
	Logger      *zap.Logger
	Hasher      Hasher      // nil if session MD5 is disabled
	LocalWriter LocalWriter // nil if no local save path was configured
}

// Source opens a single download and pumps it into a Coordinator.
type Source struct {
	cfg    Config
	logger *zap.Logger
	gate   *pauseGate

	ctx    context.Context
	cancel context.CancelFunc
	body   io.ReadCloser

	mu                 sync.Mutex
	bytesDownloaded    uint64
	contentLength      uint64
	fileName           string
	completed          bool
	continueOnUnusable bool
}

// New constructs a Source Reader as a child of parent. The returned
// CancelFunc tears down the in-flight request and unblocks the pump.
func New(cfg Config, parent context.Context) (*Source, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	s := &Source{
		cfg:                cfg,
		logger:             logging.Pick(cfg.Logger),
		gate:               newPauseGate(),
		ctx:                ctx,
		cancel:             cancel,
		continueOnUnusable: cfg.LocalWriter != nil,
	}
	return s, cancel
}

// Open performs the GET request and reads its headers. Any failure here —
// DNS, connect, a response that never yields a body — is spec §7's
// category 1, SourceOpenError, the only error the Session propagates.
func (s *Source) Open() (contentLength uint64, derivedFileName string, err error) {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, s.cfg.DownloadURL, nil)
	if err != nil {
		return 0, "", txerrors.SourceOpenError(s.cfg.DownloadURL, err)
	}
	req.Header.Set("User-Agent", protocol.DefaultSourceUserAgent)

	resp, err := s.cfg.Agent.Do(req)
	if err != nil {
		return 0, "", txerrors.SourceOpenError(s.cfg.DownloadURL, err)
	}

	body, err := decodeBody(resp)
	if err != nil {
		resp.Body.Close()
		return 0, "", txerrors.SourceOpenError(s.cfg.DownloadURL, err)
	}
	s.body = body

	// A decoded body's length differs from the encoded Content-Length, so
	// the header is only trusted for an identity-encoded body.
	if resp.ContentLength > 0 && body == resp.Body {
		contentLength = uint64(resp.ContentLength)
	}
	derivedFileName = filename.FromResponse(resp.Header.Get("Content-Disposition"), s.cfg.DownloadURL)

	s.mu.Lock()
	s.contentLength = contentLength
	s.fileName = derivedFileName
	s.mu.Unlock()

	return contentLength, derivedFileName, nil
}

// Pump reads the response body to completion, broadcasting every chunk to
// coordinator (and, if configured, the local writer) in source order. It
// returns once the source has ended, errored, or been cancelled; the
// return value is advisory only — spec §7 category 2/5/6 failures here
// are recorded on Legs and the local digest, never thrown.
func (s *Source) Pump(coordinator Coordinator) error {
	defer func() {
		if s.cfg.LocalWriter != nil {
			if err := s.cfg.LocalWriter.Close(); err != nil {
				s.logger.Warn("failed to close local file", zap.Error(err))
			}
		}
	}()
	defer s.body.Close()

	buf := make([]byte, protocol.BufferSizeLarge)
	for {
		if err := s.gate.waitWhilePaused(s.ctx); err != nil {
			coordinator.AbortAll(txerrors.SourceStreamError(err))
			return err
		}

		n, readErr := s.body.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			s.mu.Lock()
			s.bytesDownloaded += uint64(n)
			s.mu.Unlock()
			metrics.BytesDownloadedTotal.Add(float64(n))

			if s.cfg.Hasher != nil {
				s.cfg.Hasher.Write(chunk)
			}
			coordinator.Broadcast(chunk)
			if s.cfg.LocalWriter != nil {
				if werr := s.cfg.LocalWriter.Write(chunk); werr != nil {
					s.logger.Warn("local write failed", zap.Error(werr))
				}
			}
		}

		if readErr == io.EOF {
			coordinator.FinalizeAll()
			s.mu.Lock()
			s.completed = true
			s.mu.Unlock()
			return nil
		}
		if readErr != nil {
			coordinator.AbortAll(txerrors.SourceStreamError(readErr))
			return readErr
		}
	}
}

// Pause implements coordinator.Signals: stop reading the response body.
func (s *Source) Pause() {
	s.gate.pause()
}

// Resume implements coordinator.Signals: resume reading the response body.
func (s *Source) Resume() {
	s.gate.resume()
}

// Unusable implements coordinator.Signals. With no local save configured,
// there is nothing left to do with further bytes, so the source (and any
// already-dead Legs) are cancelled; with local save configured, the pump
// is resumed (a Leg that died while Stalled may have left it paused) and
// keeps draining to disk.
func (s *Source) Unusable() {
	if !s.continueOnUnusable {
		s.cancel()
		return
	}
	s.gate.resume()
}

// BytesDownloaded returns the running count of bytes read from the
// source, safe to read while Pump is still in flight.
func (s *Source) BytesDownloaded() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytesDownloaded
}

// FileName returns the derived filename (set once, by Open).
func (s *Source) FileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileName
}

// MD5 returns the session-level digest, or "" if no hasher was configured
// or the source never reached a clean end-of-stream (spec §7 category 2:
// an aborted source omits md5).
func (s *Source) MD5() string {
	s.mu.Lock()
	completed := s.completed
	s.mu.Unlock()
	if !completed || s.cfg.Hasher == nil {
		return ""
	}
	return s.cfg.Hasher.Sum()
}
