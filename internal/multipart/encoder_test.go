package multipart

import (
	"io"
	"mime"
	"net/http"
	"strings"
	"testing"
)

func TestEncode_SinglePartRoundTrip(t *testing.T) {
	source := "hello world"
	enc := Encode(strings.NewReader(source), "test.zip")
	defer enc.Body.Close()

	mediaType, params, err := mime.ParseMediaType(enc.ContentType)
	if err != nil {
		t.Fatal(err)
	}
	if mediaType != "multipart/form-data" {
		t.Fatalf("got media type %q", mediaType)
	}

	req, _ := http.NewRequest("POST", "http://example.invalid", enc.Body)
	req.Header.Set("Content-Type", enc.ContentType)

	reader, err := req.MultipartReader()
	if err != nil {
		t.Fatal(err)
	}
	part, err := reader.NextPart()
	if err != nil {
		t.Fatal(err)
	}
	if part.FormName() != "file" {
		t.Errorf("got form name %q, want file", part.FormName())
	}
	if part.FileName() != "test.zip" {
		t.Errorf("got filename %q, want test.zip", part.FileName())
	}

	data, err := io.ReadAll(part)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != source {
		t.Errorf("got body %q, want %q", data, source)
	}

	_ = params
}
