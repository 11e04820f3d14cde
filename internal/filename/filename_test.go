package filename

import "testing"

func TestFromResponse_ContentDispositionPlain(t *testing.T) {
	got := FromResponse(`attachment; filename="test.zip"`, "http://host/5MB.zip")
	if got != "test.zip" {
		t.Errorf("got %q, want test.zip", got)
	}
}

func TestFromResponse_ContentDispositionUnquoted(t *testing.T) {
	got := FromResponse(`attachment; filename=report.pdf`, "http://host/x")
	if got != "report.pdf" {
		t.Errorf("got %q, want report.pdf", got)
	}
}

func TestFromResponse_ContentDispositionStarUTF8(t *testing.T) {
	got := FromResponse(`attachment; filename*=UTF-8''na%C3%AFve.txt`, "http://host/x")
	if got == "" {
		t.Fatal("expected a non-empty filename")
	}
}

func TestFromResponse_FallsBackToURL(t *testing.T) {
	got := FromResponse("", "http://host/path/5MB.zip")
	if got != "5MB.zip" {
		t.Errorf("got %q, want 5MB.zip", got)
	}
}

func TestFromResponse_FallsBackToURLNoPath(t *testing.T) {
	got := FromResponse("", "http://host")
	if got != "download" {
		t.Errorf("got %q, want download", got)
	}
}

func TestDecodeLegacyEscape(t *testing.T) {
	decoded, err := decodeLegacyEscape("na%EFve")
	if err != nil {
		t.Fatal(err)
	}
	if decoded == "" {
		t.Error("expected non-empty decode")
	}
}
