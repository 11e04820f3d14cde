package leg

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type nopSink struct {
	stuck   []int
	unstuck []int
}

func (s *nopSink) Stuck(idx int)   { s.stuck = append(s.stuck, idx) }
func (s *nopSink) Unstuck(idx int) { s.unstuck = append(s.unstuck, idx) }

func testConfig(uploadURL string) Config {
	return Config{
		Index:          0,
		UploadURL:      uploadURL,
		Method:         http.MethodPut,
		BufferCapBytes: 64,
		IdleTimeout:    time.Minute,
		Agent:          http.DefaultClient,
	}
}

func TestLeg_WriteAcceptsUnderCapacity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
	}))
	defer srv.Close()

	sink := &nopSink{}
	l := New(testConfig(srv.URL), sink, context.Background())
	l.SetSize(10)

	if !l.Write([]byte("hello")) {
		t.Error("expected accepted write under capacity")
	}
}

func TestLeg_WriteOverflowStalls(t *testing.T) {
	sink := &nopSink{}
	l := New(testConfig("http://example.invalid"), sink, context.Background())
	l.SetSize(1000)

	big := make([]byte, 100)
	if accepted := l.Write(big); accepted {
		t.Error("expected overflow write to report not-accepted")
	}
	if len(sink.stuck) != 1 {
		t.Errorf("expected exactly one Stuck signal, got %d", len(sink.stuck))
	}
}

func TestLeg_FinalizeWithRandomSuffix(t *testing.T) {
	var uploadedLen int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		uploadedLen = len(b)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RandomBytesCount = 12
	sink := &nopSink{}
	l := New(cfg, sink, context.Background())
	l.SetSize(5)

	done := make(chan Result, 1)
	go func() { done <- l.Run() }()

	l.Write([]byte("hello"))
	l.Finalize()

	result := <-done
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.UploadedBytes != 17 {
		t.Errorf("expected 17 uploaded bytes, got %d", result.UploadedBytes)
	}
	if uploadedLen != 17 {
		t.Errorf("expected server to see 17 bytes, got %d", uploadedLen)
	}
}

func TestLeg_AbortRecordsError(t *testing.T) {
	sink := &nopSink{}
	l := New(testConfig("http://example.invalid"), sink, context.Background())
	l.SetSize(10)

	boom := io.ErrUnexpectedEOF
	l.Abort(boom)

	if l.IsAlive() {
		t.Error("expected leg to be dead after abort")
	}
	if l.err != boom {
		t.Errorf("expected recorded error %v, got %v", boom, l.err)
	}
}
