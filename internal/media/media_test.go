package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestFromBytesSniffsImages(t *testing.T) {
	m, err := FromBytes(pngHeader, "")
	if err != nil {
		t.Fatalf("from bytes: %v", err)
	}
	if !strings.HasPrefix(string(m), "data:image/png;base64,") || !IsImage(m) {
		t.Fatalf("unexpected data uri %q", m)
	}
}

func TestFromBytesUsesHintForAudio(t *testing.T) {
	// raw MPEG frames sniff as application/octet-stream
	m, err := FromBytes([]byte{0xff, 0xfb, 0x90, 0x44, 0x00}, "audio/mpeg")
	if err != nil {
		t.Fatalf("from bytes: %v", err)
	}
	if !IsAudio(m) {
		t.Fatalf("expected audio data uri, got %q", m)
	}
}

func TestFromBytesRejectsOtherContent(t *testing.T) {
	if _, err := FromBytes([]byte("<html><script>x</script>"), "text/html"); !errors.Is(err, ErrUnsupportedMedia) {
		t.Fatalf("expected unsupported media, got %v", err)
	}
	if _, err := FromBytes(nil, "image/png"); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected empty error, got %v", err)
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	if err := os.WriteFile(path, pngHeader, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := FromFile(path)
	if err != nil {
		t.Fatalf("from file: %v", err)
	}
	if !IsImage(m) {
		t.Fatalf("expected image, got %q", m)
	}
}

type stubClipboard struct{ data []byte }

func (c stubClipboard) ReadImage(context.Context) ([]byte, error) { return c.data, nil }

func TestClipboard(t *testing.T) {
	if _, err := FromClipboard(context.Background(), NoClipboard{}); !errors.Is(err, ErrClipboardUnsupported) {
		t.Fatalf("expected unsupported, got %v", err)
	}
	if _, err := FromClipboard(context.Background(), nil); !errors.Is(err, ErrClipboardUnsupported) {
		t.Fatalf("expected unsupported for nil clipboard, got %v", err)
	}
	m, err := FromClipboard(context.Background(), stubClipboard{data: pngHeader})
	if err != nil || !IsImage(m) {
		t.Fatalf("clipboard image = %q, %v", m, err)
	}
}
