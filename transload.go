// Package transload streams a single source HTTP download simultaneously
// to one or more upload destinations, and optionally a local file,
// without buffering the complete payload in memory or on disk.
//
// The hard engineering lives in the internal tee-with-backpressure
// pipeline: internal/leg owns each destination's bounded buffer and HTTP
// round trip, internal/coordinator fans a chunk out to every live leg and
// turns buffer pressure into pause/resume signals, and internal/source
// pumps the download's body through that pipeline. Session wires the
// three together and assembles the final result.
package transload

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zulfikawr/transload/internal/config"
	"github.com/zulfikawr/transload/internal/coordinator"
	"github.com/zulfikawr/transload/internal/hashutil"
	"github.com/zulfikawr/transload/internal/httpagent"
	"github.com/zulfikawr/transload/internal/leg"
	"github.com/zulfikawr/transload/internal/localwriter"
	"github.com/zulfikawr/transload/internal/logging"
	"github.com/zulfikawr/transload/internal/metrics"
	multipartenc "github.com/zulfikawr/transload/internal/multipart"
	"github.com/zulfikawr/transload/internal/progress"
	"github.com/zulfikawr/transload/internal/source"
	"github.com/zulfikawr/transload/internal/ui"
)

// Session is the public entry point (spec §4.4, component C4): one
// download, N uploads, constructed once and run once.
type Session struct {
	downloadURL string
	uploads     []UploadConfig
	cfg         SessionConfig
}

// New constructs a Session. cfg may be nil to accept every default.
func New(downloadURL string, uploads []UploadConfig, cfg *SessionConfig) *Session {
	resolved := SessionConfig{}
	if cfg != nil {
		resolved = *cfg
	}
	return &Session{downloadURL: downloadURL, uploads: uploads, cfg: resolved}
}

// Run performs the transload and returns the aggregate result. Run returns
// an error in two cases only: spec §7 category 1, SourceOpenError (the
// source download never yielded a response body), and, before any request
// is made, a failure to create the local file when SaveToLocalPath is set.
// Every other failure — a dead leg, an aborted source stream — is recorded
// on the returned result instead.
func (s *Session) Run(ctx context.Context) (*TransloadResult, error) {
	start := time.Now()
	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	engineCfg := config.Load().WithOverrides(s.cfg.BufferCapBytes, s.cfg.IdleTimeout)
	logger := logging.Pick(s.cfg.Logger)

	sessionAgent := s.cfg.Agent
	if sessionAgent == nil {
		sessionAgent = httpagent.Default()
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	local, err := s.openLocalWriter()
	if err != nil {
		return nil, err
	}

	var srcHasher source.Hasher
	if s.cfg.CalculateMD5 {
		srcHasher = s.newHasher()
	}

	var srcLocalWriter source.LocalWriter
	if local != nil {
		srcLocalWriter = local
	}

	src, srcCancel := source.New(source.Config{
		DownloadURL: s.downloadURL,
		Agent:       sessionAgent,
		Logger:      logger,
		Hasher:      srcHasher,
		LocalWriter: srcLocalWriter,
	}, sessionCtx)
	defer srcCancel()

	coord := coordinator.New(nil, src, logger)

	legs := make([]*leg.Leg, len(s.uploads))
	for i, u := range s.uploads {
		legAgent := u.Agent
		if legAgent == nil {
			legAgent = sessionAgent
		}
		legs[i] = leg.New(leg.Config{
			Index:            i,
			UploadURL:        u.UploadURL,
			Method:           normalizeMethod(u.Method),
			FileName:         u.FileName,
			RandomBytesCount: u.RandomBytesCount,
			Headers:          u.Headers,
			Agent:            legAgent,
			CalculateMD5:     s.cfg.CalculateMD5,
			BufferCapBytes:   engineCfg.BufferCapBytes,
			IdleTimeout:      engineCfg.IdleTimeout,
			Logger:           logger,
			NewHasher: func() leg.Hasher {
				return s.newHasher()
			},
			EncodeMultipart: s.encodeMultipart,
		}, coord, sessionCtx)
	}
	coord.SetLegs(legs)

	contentLength, filename, err := src.Open()
	if err != nil {
		if local != nil {
			_ = local.Close()
		}
		return nil, err
	}
	coord.SetSize(contentLength)
	coord.SetFilename(filename)

	var broadcaster *progress.Broadcaster
	if s.cfg.ProgressAddr != "" {
		b := progress.New(logger)
		if startErr := b.Start(s.cfg.ProgressAddr, s.cfg.EnableMetrics); startErr != nil {
			logger.Warn("failed to start progress server", zap.Error(startErr))
		} else {
			broadcaster = b
			defer func() {
				stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer stopCancel()
				_ = broadcaster.Stop(stopCtx)
			}()
		}
	}

	progressDone := make(chan struct{})
	go s.runProgressLoop(sessionCtx, src, broadcaster, engineCfg.ProgressInterval, contentLength, filename, logger, progressDone)
	defer close(progressDone)

	var wg sync.WaitGroup
	results := make([]leg.Result, len(legs))
	for i, l := range legs {
		wg.Add(1)
		go func(i int, l *leg.Leg) {
			defer wg.Done()
			res := l.Run()
			results[i] = res
			coord.LegDone(l.Index(), res.Err)
		}(i, l)
	}

	_ = src.Pump(coord)
	wg.Wait()

	sessionMD5 := src.MD5()
	result := assembleResult(s.downloadURL, contentLength, filename, sessionMD5, local, results)

	metrics.RecordSession(time.Since(start).Seconds())
	return result, nil
}

func (s *Session) openLocalWriter() (LocalWriter, error) {
	if s.cfg.SaveToLocalPath == "" {
		return nil, nil
	}
	if s.cfg.NewLocalWriter != nil {
		return s.cfg.NewLocalWriter(s.cfg.SaveToLocalPath)
	}
	return localwriter.Create(s.cfg.SaveToLocalPath)
}

// newHasher returns the configured MD5 collaborator. Its Write/Sum method
// set satisfies internal/leg.Hasher and internal/source.Hasher directly —
// no adapter needed, since both are structurally identical to this
// package's exported Hasher interface.
func (s *Session) newHasher() Hasher {
	if s.cfg.NewHasher != nil {
		return s.cfg.NewHasher()
	}
	return hashutil.NewMD5()
}

func (s *Session) encodeMultipart(body io.Reader, filename string) (io.ReadCloser, string) {
	if s.cfg.MultipartEncoder != nil {
		return s.cfg.MultipartEncoder.Encode(body, filename)
	}
	enc := multipartenc.Encode(body, filename)
	return enc.Body, enc.ContentType
}

func (s *Session) runProgressLoop(ctx context.Context, src *source.Source, b *progress.Broadcaster, interval time.Duration, contentLength uint64, filename string, logger *zap.Logger, done chan struct{}) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			downloaded := src.BytesDownloaded()
			logger.Info("transload progress",
				zap.String("downloaded", ui.FormatBytes(int64(downloaded))),
				zap.String("total", ui.FormatBytes(int64(contentLength))),
			)
			if b != nil {
				b.Broadcast(progress.Snapshot{
					URL:             s.downloadURL,
					Filename:        filename,
					ContentLength:   contentLength,
					BytesDownloaded: downloaded,
				})
			}
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func normalizeMethod(method string) string {
	if method == "" {
		return http.MethodPost
	}
	return strings.ToUpper(method)
}
