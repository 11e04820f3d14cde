// Package leg implements one upload destination (spec §4.1, component
// C1): a bounded buffer, a running hash, a byte counter, an idle timer, a
// cancellation handle, and the outbound HTTP request that drains the
// buffer.
package leg

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	txerrors "github.com/zulfikawr/transload/internal/errors"
	"github.com/zulfikawr/transload/internal/logging"
	"github.com/zulfikawr/transload/internal/metrics"
	"github.com/zulfikawr/transload/internal/protocol"
)

// Hasher is the running-hash collaborator a Leg feeds every accepted
// chunk and the final suffix into.
type Hasher interface {
	Write(chunk []byte)
	Sum() string
}

// SignalSink receives backpressure events from a Leg — the Fanout
// Coordinator implements this (spec §4.2).
type SignalSink interface {
	Stuck(idx int)
	Unstuck(idx int)
}

// Config is the construction-time, immutable configuration for one Leg,
// derived by the Session from a caller-supplied UploadConfig plus the
// session-wide defaults (buffer capacity, idle timeout, collaborators).
type Config struct {
	Index            int
	UploadURL        string
	Method           string
	FileName         string
	RandomBytesCount uint32
	Headers          map[string]string
	Agent            *http.Client

	CalculateMD5   bool
	BufferCapBytes int64
	IdleTimeout    time.Duration
	Logger         *zap.Logger

	NewHasher       func() Hasher
	EncodeMultipart func(body io.Reader, filename string) (io.ReadCloser, string)
}

// Result is the outcome of Leg.Run, folded by the Session into the
// caller-visible UploadResult (spec §6).
type Result struct {
	UploadURL        string
	FileName         string
	DeclaredSize     uint64
	UploadedBytes    uint64
	RandomBytesCount uint32
	MD5              string
	Response         interface{}
	Err              error
}

// Leg is one upload destination's state machine and HTTP round trip.
type Leg struct {
	cfg    Config
	index  int
	logger *zap.Logger
	sink   SignalSink

	mu           sync.Mutex
	state        State
	declaredSize uint64
	sizeSet      bool
	fileName     string
	err          error
	finalMD5     string
	idleTimer    *time.Timer

	uploadedBytes atomic.Uint64
	hash          Hasher

	buf    *buffer
	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs a Leg and performs spec §4.1's prepare() step: buffer,
// hash, and cancellation handle are all created here, with state starting
// at Preparing. parent is the session-wide cancellation context (spec §5:
// "Session-wide: a single cancellation propagates to the source and to
// every Leg"); aborting this Leg alone only cancels its own derived ctx.
func New(cfg Config, sink SignalSink, parent context.Context) *Leg {
	if cfg.Method == "" {
		cfg.Method = http.MethodPost
	}
	if cfg.BufferCapBytes <= 0 {
		cfg.BufferCapBytes = protocol.DefaultBufferCapBytes
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = protocol.DefaultIdleTimeout
	}

	l := &Leg{
		cfg:      cfg,
		index:    cfg.Index,
		logger:   logging.Pick(cfg.Logger),
		sink:     sink,
		state:    Preparing,
		fileName: cfg.FileName,
	}
	l.ctx, l.cancel = context.WithCancel(parent)
	l.buf = newBuffer(cfg.BufferCapBytes, l.handleDrain)
	if cfg.CalculateMD5 && cfg.NewHasher != nil {
		l.hash = cfg.NewHasher()
	}
	return l
}

// Index returns this Leg's position in the input upload list.
func (l *Leg) Index() int {
	return l.index
}

// SetSize records the declared size (content-length plus any random-byte
// suffix), arms the idle timer, and transitions Preparing to Active.
// Written at most once (spec §3 invariant 3).
func (l *Leg) SetSize(contentLength uint64) {
	l.mu.Lock()
	if l.sizeSet {
		l.mu.Unlock()
		return
	}
	l.sizeSet = true
	l.declaredSize = contentLength + uint64(l.cfg.RandomBytesCount)
	if l.state == Preparing {
		l.state = Active
	}
	l.mu.Unlock()

	l.armIdleTimer()
	metrics.LegState.WithLabelValues(l.cfg.UploadURL).Set(metrics.LegStateActive)
}

// SetFilename adopts name if no filename has been set yet (spec §3
// invariant 4: written at most once after construction).
func (l *Leg) SetFilename(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fileName == "" {
		l.fileName = name
	}
}

// Write enqueues chunk, updates the byte counter and running hash, and
// reports whether the buffer is still within capacity. A false return
// moves this Leg to Stalled and notifies the Coordinator via Stuck. A true
// return re-arms the idle timer (spec §4.1: "armed on setSize and every
// successful non-overflowing write") so a Leg making steady progress never
// times out just because its buffer happens not to drain to zero.
func (l *Leg) Write(chunk []byte) bool {
	l.mu.Lock()
	alive := l.state == Active || l.state == Stalled
	l.mu.Unlock()
	if !alive {
		return true
	}

	accepted := l.buf.write(chunk)
	l.uploadedBytes.Add(uint64(len(chunk)))
	if l.hash != nil {
		l.hash.Write(chunk)
	}

	if accepted {
		l.armIdleTimer()
	} else {
		l.mu.Lock()
		transitioned := l.state == Active
		if transitioned {
			l.state = Stalled
		}
		l.mu.Unlock()

		if transitioned {
			l.clearIdleTimer()
			metrics.LegStuckTotal.WithLabelValues(l.cfg.UploadURL).Inc()
			metrics.LegState.WithLabelValues(l.cfg.UploadURL).Set(metrics.LegStateStalled)
			l.sink.Stuck(l.index)
		}
	}
	return accepted
}

// handleDrain is the buffer's onDrain callback: fired when occupancy
// falls back to zero from a non-zero level. Re-arms the idle timer,
// returns the Leg to Active, and notifies the Coordinator via Unstuck.
func (l *Leg) handleDrain() {
	l.mu.Lock()
	if l.state != Stalled {
		l.mu.Unlock()
		return
	}
	l.state = Active
	l.mu.Unlock()

	l.armIdleTimer()
	metrics.LegUnstuckTotal.WithLabelValues(l.cfg.UploadURL).Inc()
	metrics.LegState.WithLabelValues(l.cfg.UploadURL).Set(metrics.LegStateActive)
	l.sink.Unstuck(l.index)
}

func (l *Leg) armIdleTimer() {
	l.mu.Lock()
	if l.idleTimer != nil {
		l.idleTimer.Stop()
	}
	l.idleTimer = time.AfterFunc(l.cfg.IdleTimeout, l.onIdleTimeout)
	l.mu.Unlock()
}

func (l *Leg) clearIdleTimer() {
	l.mu.Lock()
	if l.idleTimer != nil {
		l.idleTimer.Stop()
		l.idleTimer = nil
	}
	l.mu.Unlock()
}

// onIdleTimeout fires after IdleTimeout has elapsed without forward
// progress on an Active Leg (spec §4.1's idle-timer policy: cleared on
// Stalled entry, so a Stalled Leg never times out — the slowest Leg
// dictates progress, by design).
func (l *Leg) onIdleTimeout() {
	l.mu.Lock()
	active := l.state == Active
	l.mu.Unlock()
	if !active {
		return
	}

	l.logger.Warn("leg idle timeout", zap.String("uploadURL", l.cfg.UploadURL))
	metrics.LegIdleTimeoutsTotal.WithLabelValues(l.cfg.UploadURL).Inc()
	l.Abort(txerrors.LegIdleTimeoutError(l.cfg.UploadURL, l.cfg.IdleTimeout.String()))
}

// Finalize appends the random-byte suffix (if any), digests the hash, and
// closes the buffer for clean end-of-stream. The outbound HTTP body
// completes once the buffer finishes draining.
func (l *Leg) Finalize() {
	l.mu.Lock()
	if l.state != Active && l.state != Stalled {
		l.mu.Unlock()
		return
	}
	l.state = Finalizing
	l.mu.Unlock()

	l.clearIdleTimer()

	if l.cfg.RandomBytesCount > 0 {
		suffix := make([]byte, l.cfg.RandomBytesCount)
		if _, err := rand.Read(suffix); err != nil {
			l.Abort(err)
			return
		}
		l.buf.write(suffix)
		l.uploadedBytes.Add(uint64(len(suffix)))
		if l.hash != nil {
			l.hash.Write(suffix)
		}
	}

	if l.hash != nil {
		sum := l.hash.Sum()
		l.mu.Lock()
		l.finalMD5 = sum
		l.mu.Unlock()
	}

	l.buf.closeStream()
}

// Abort trips the cancellation handle, destroys the buffer with err, and
// transitions to DoneError. Only the first error is kept — later calls on
// an already-Done Leg are ignored (spec §7: "exactly one terminal outcome
// per Leg").
func (l *Leg) Abort(err error) {
	l.mu.Lock()
	if !l.state.alive() {
		l.mu.Unlock()
		return
	}
	l.state = DoneError
	if l.err == nil {
		l.err = err
	}
	l.mu.Unlock()

	l.clearIdleTimer()
	l.cancel()
	l.buf.destroy(err)
	metrics.LegState.WithLabelValues(l.cfg.UploadURL).Set(metrics.LegStateDead)
}

// IsAlive reports whether this Leg still participates in the pipeline.
func (l *Leg) IsAlive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.alive()
}

// Run performs the outbound HTTP request (spec §4.5), streaming the
// buffer as the body, and returns the final Result once the response (or
// a failure) settles.
func (l *Leg) Run() Result {
	l.mu.Lock()
	declaredSize := l.declaredSize
	fileName := l.fileName
	l.mu.Unlock()

	req, err := l.buildRequest(declaredSize, fileName)
	if err != nil {
		return l.fail(fileName, declaredSize, txerrors.LegHTTPError(l.cfg.UploadURL, err))
	}

	resp, err := l.cfg.Agent.Do(req)
	if err != nil {
		return l.fail(fileName, declaredSize, txerrors.LegHTTPError(l.cfg.UploadURL, err))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return l.fail(fileName, declaredSize, txerrors.LegHTTPError(l.cfg.UploadURL, err))
	}

	l.mu.Lock()
	if l.state == Finalizing {
		l.state = DoneSuccess
	}
	uploaded := l.uploadedBytes.Load()
	md5sum := l.finalMD5
	l.mu.Unlock()

	metrics.LegState.WithLabelValues(l.cfg.UploadURL).Set(metrics.LegStateDone)
	metrics.LegUploadedBytesTotal.WithLabelValues(l.cfg.UploadURL).Add(float64(uploaded))

	return Result{
		UploadURL:        l.cfg.UploadURL,
		FileName:         fileName,
		DeclaredSize:     declaredSize,
		UploadedBytes:    uploaded,
		RandomBytesCount: l.cfg.RandomBytesCount,
		MD5:              md5sum,
		Response:         parseResponse(bodyBytes),
	}
}

func (l *Leg) buildRequest(declaredSize uint64, fileName string) (*http.Request, error) {
	var body io.Reader = l.buf
	var contentType string

	isPut := strings.EqualFold(l.cfg.Method, http.MethodPut)
	if !isPut {
		rc, ct := l.cfg.EncodeMultipart(l.buf, fileName)
		body = rc
		contentType = ct
	}

	req, err := http.NewRequestWithContext(l.ctx, l.cfg.Method, l.cfg.UploadURL, body)
	if err != nil {
		return nil, err
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if isPut {
		req.ContentLength = int64(declaredSize)
	}

	hasUserAgent := false
	for k, v := range l.cfg.Headers {
		req.Header.Set(k, v)
		if strings.EqualFold(k, "User-Agent") {
			hasUserAgent = true
		}
	}
	if !hasUserAgent {
		req.Header.Set("User-Agent", protocol.DefaultSourceUserAgent)
	}

	return req, nil
}

func (l *Leg) fail(fileName string, declaredSize uint64, err error) Result {
	l.Abort(err)
	return Result{
		UploadURL:        l.cfg.UploadURL,
		FileName:         fileName,
		DeclaredSize:     declaredSize,
		UploadedBytes:    l.uploadedBytes.Load(),
		RandomBytesCount: l.cfg.RandomBytesCount,
		Err:              err,
	}
}

func parseResponse(data []byte) interface{} {
	if len(data) > 0 {
		var v interface{}
		if err := json.Unmarshal(data, &v); err == nil {
			return v
		}
	}
	return string(data)
}
