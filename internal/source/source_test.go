package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/zulfikawr/transload/internal/hashutil"
)

type recordingCoordinator struct {
	mu       sync.Mutex
	chunks   [][]byte
	finalize bool
	aborted  error
}

func (r *recordingCoordinator) SetSize(uint64)   {}
func (r *recordingCoordinator) SetFilename(string) {}
func (r *recordingCoordinator) Broadcast(chunk []byte) {
	r.mu.Lock()
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	r.chunks = append(r.chunks, cp)
	r.mu.Unlock()
}
func (r *recordingCoordinator) FinalizeAll() {
	r.mu.Lock()
	r.finalize = true
	r.mu.Unlock()
}
func (r *recordingCoordinator) AbortAll(err error) {
	r.mu.Lock()
	r.aborted = err
	r.mu.Unlock()
}

func TestSource_OpenAndPump(t *testing.T) {
	body := "hello world, this is the source payload"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="payload.bin"`)
		w.Write([]byte(body))
	}))
	defer srv.Close()

	hasher := hashutil.NewMD5()
	s, cancel := New(Config{
		DownloadURL: srv.URL,
		Agent:       http.DefaultClient,
		Hasher:      hasher,
	}, context.Background())
	defer cancel()

	_, fname, err := s.Open()
	if err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	if fname != "payload.bin" {
		t.Errorf("got filename %q, want payload.bin", fname)
	}

	coord := &recordingCoordinator{}
	if err := s.Pump(coord); err != nil {
		t.Fatalf("unexpected pump error: %v", err)
	}

	if !coord.finalize {
		t.Error("expected FinalizeAll to be called")
	}
	if s.BytesDownloaded() != uint64(len(body)) {
		t.Errorf("got %d bytes downloaded, want %d", s.BytesDownloaded(), len(body))
	}
	if s.MD5() == "" {
		t.Error("expected a completed MD5 digest")
	}
}

func TestSource_OpenFailsOnUnresolvableHost(t *testing.T) {
	s, cancel := New(Config{
		DownloadURL: "http://this-host-does-not-resolve.invalid",
		Agent:       http.DefaultClient,
	}, context.Background())
	defer cancel()

	_, _, err := s.Open()
	if err == nil {
		t.Fatal("expected an error opening an unresolvable host")
	}
}
