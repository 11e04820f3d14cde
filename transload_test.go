package transload_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/zulfikawr/transload"
)

// uploadRecorder captures one destination's received body and headers,
// the way a real upload endpoint would see them.
type uploadRecorder struct {
	mu       sync.Mutex
	method   string
	body     []byte
	filename string
}

func newUploadServer(t *testing.T, rec *uploadRecorder) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.method = r.Method

		if r.Method == http.MethodPut {
			b, _ := io.ReadAll(r.Body)
			rec.body = b
		} else {
			if err := r.ParseMultipartForm(32 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			f, hdr, err := r.FormFile("file")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			defer f.Close()
			b, _ := io.ReadAll(f)
			rec.body = b
			rec.filename = hdr.Filename
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
}

// TestSession_TwoUploadsOneWithRandomSuffix covers spec §8's POST scenario:
// two legs receive the full source payload, one appends a random-byte
// suffix on finalize and so diverges from the other's MD5.
func TestSession_TwoUploadsOneWithRandomSuffix(t *testing.T) {
	const payload = "the quick brown fox jumps over the lazy dog"

	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="fox.txt"`)
		w.Write([]byte(payload))
	}))
	defer src.Close()

	recA := &uploadRecorder{}
	recB := &uploadRecorder{}
	srvA := newUploadServer(t, recA)
	defer srvA.Close()
	srvB := newUploadServer(t, recB)
	defer srvB.Close()

	session := transload.New(src.URL, []transload.UploadConfig{
		{UploadURL: srvA.URL, Method: "POST"},
		{UploadURL: srvB.URL, Method: "POST", RandomBytesCount: 8},
	}, &transload.SessionConfig{CalculateMD5: true})

	result, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.MD5 == "" {
		t.Error("expected a session-level MD5")
	}
	if len(result.Uploads) != 2 {
		t.Fatalf("expected 2 upload results, got %d", len(result.Uploads))
	}

	plain, withSuffix := result.Uploads[0], result.Uploads[1]
	if plain.Error != "" {
		t.Errorf("leg 0 unexpected error: %s", plain.Error)
	}
	if withSuffix.Error != "" {
		t.Errorf("leg 1 unexpected error: %s", withSuffix.Error)
	}
	if plain.MD5 != result.MD5 {
		t.Errorf("leg without a suffix should match the session MD5: got %s want %s", plain.MD5, result.MD5)
	}
	if withSuffix.MD5 == result.MD5 {
		t.Error("leg with a random suffix should diverge from the session MD5")
	}
	if withSuffix.UploadedByes != uint64(len(payload))+8 {
		t.Errorf("got %d uploaded bytes on the suffixed leg, want %d", withSuffix.UploadedByes, len(payload)+8)
	}
	if len(recA.body) != len(payload) {
		t.Errorf("server A received %d bytes, want %d", len(recA.body), len(payload))
	}
	if len(recB.body) != len(payload)+8 {
		t.Errorf("server B received %d bytes, want %d", len(recB.body), len(payload)+8)
	}
	if recA.filename != "fox.txt" {
		t.Errorf("server A got filename %q, want fox.txt", recA.filename)
	}
}

// TestSession_PUTUploadsRawBody covers the raw-body PUT path: no
// multipart wrapper, exact byte-for-byte body.
func TestSession_PUTUploadsRawBody(t *testing.T) {
	const payload = "raw bytes, no envelope"

	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer src.Close()

	rec := &uploadRecorder{}
	srv := newUploadServer(t, rec)
	defer srv.Close()

	session := transload.New(src.URL, []transload.UploadConfig{
		{UploadURL: srv.URL, Method: "PUT"},
	}, nil)

	result, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.method != http.MethodPut {
		t.Errorf("got method %s, want PUT", rec.method)
	}
	if string(rec.body) != payload {
		t.Errorf("got body %q, want %q", rec.body, payload)
	}
	if result.Uploads[0].Error != "" {
		t.Errorf("unexpected leg error: %s", result.Uploads[0].Error)
	}
}

// TestSession_DeadLegWithLocalSaveStillCompletes covers spec §7 category
// 3/6: one leg can never connect, but a local save is configured, so the
// source keeps draining to disk and Run still returns a result instead of
// an error.
func TestSession_DeadLegWithLocalSaveStillCompletes(t *testing.T) {
	const payload = "saved locally even though the only upload leg is dead"

	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer src.Close()

	dir := t.TempDir()
	localPath := filepath.Join(dir, "saved.bin")

	session := transload.New(src.URL, []transload.UploadConfig{
		{UploadURL: "http://this-upload-host-does-not-resolve.invalid"},
	}, &transload.SessionConfig{SaveToLocalPath: localPath})

	result, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Uploads[0].Error == "" {
		t.Error("expected the unresolvable leg to record an error")
	}
	if result.Local == nil {
		t.Fatal("expected a local result")
	}

	saved, err := os.ReadFile(localPath)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if string(saved) != payload {
		t.Errorf("got saved content %q, want %q", saved, payload)
	}
}

// TestSession_SourceOpenFailureReturnsError covers spec §7 category 1:
// the source never yields a response, so Run returns an error instead of
// a result.
func TestSession_SourceOpenFailureReturnsError(t *testing.T) {
	session := transload.New(
		"http://this-download-host-does-not-resolve.invalid",
		[]transload.UploadConfig{{UploadURL: "http://irrelevant.invalid"}},
		nil,
	)

	result, err := session.Run(context.Background())
	if err == nil {
		t.Fatal("expected a SourceOpenError")
	}
	if result != nil {
		t.Error("expected a nil result alongside a source-open error")
	}
}

// TestSession_CustomHasherIsHonored exercises the pluggable Hasher
// collaborator (spec §1's MD5 primitive is out of scope — callers may
// swap in their own).
func TestSession_CustomHasherIsHonored(t *testing.T) {
	const payload = "hashed by a caller-supplied digest"

	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer src.Close()

	rec := &uploadRecorder{}
	srv := newUploadServer(t, rec)
	defer srv.Close()

	session := transload.New(src.URL, []transload.UploadConfig{
		{UploadURL: srv.URL, Method: "PUT"},
	}, &transload.SessionConfig{
		CalculateMD5: true,
		NewHasher:    func() transload.Hasher { return &fixedHasher{} },
	})

	result, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MD5 != "fixed" {
		t.Errorf("got MD5 %q, want the custom hasher's fixed sum", result.MD5)
	}
}

type fixedHasher struct{}

func (*fixedHasher) Write(chunk []byte) {}
func (*fixedHasher) Sum() string        { return "fixed" }
