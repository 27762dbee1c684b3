// Package media loads images and audio into inline data URIs.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"quiz-studio/internal/domain"
)

var (
	// ErrUnsupportedMedia is returned for content that is neither image nor audio.
	ErrUnsupportedMedia = errors.New("unsupported media type")
	// ErrClipboardUnsupported is returned when the environment cannot read
	// images from the clipboard.
	ErrClipboardUnsupported = errors.New("clipboard image read is not supported")
	// ErrEmpty is returned for a zero-length file.
	ErrEmpty = errors.New("empty media")
)

// MaxSize bounds inlined media; everything lives inside the saved session.
const MaxSize = 8 << 20

// FromFile reads path into a data URI.
func FromFile(path string) (domain.Media, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > MaxSize {
		return "", fmt.Errorf("%s: %d bytes exceeds %d", path, info.Size(), MaxSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return FromBytes(data, mime.TypeByExtension(filepath.Ext(path)))
}

// FromBytes encodes data as a data URI. The content type is sniffed; hint
// is used when sniffing only finds a generic type.
func FromBytes(data []byte, hint string) (domain.Media, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if len(data) > MaxSize {
		return "", fmt.Errorf("%d bytes exceeds %d", len(data), MaxSize)
	}
	ct := http.DetectContentType(data)
	if !inline(ct) && inline(hint) {
		ct = hint
	}
	if !inline(ct) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, ct)
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return domain.Media("data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(data)), nil
}

// IsImage reports whether m holds an inline image.
func IsImage(m domain.Media) bool { return strings.HasPrefix(string(m), "data:image/") }

// IsAudio reports whether m holds inline audio.
func IsAudio(m domain.Media) bool { return strings.HasPrefix(string(m), "data:audio/") }

func inline(ct string) bool {
	return strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "audio/")
}

// Clipboard reads an image from the system clipboard.
type Clipboard interface {
	ReadImage(ctx context.Context) ([]byte, error)
}

// NoClipboard is the Clipboard of environments without clipboard access.
type NoClipboard struct{}

func (NoClipboard) ReadImage(context.Context) ([]byte, error) {
	return nil, ErrClipboardUnsupported
}

// FromClipboard reads the clipboard image as a data URI.
func FromClipboard(ctx context.Context, c Clipboard) (domain.Media, error) {
	if c == nil {
		return "", ErrClipboardUnsupported
	}
	data, err := c.ReadImage(ctx)
	if err != nil {
		return "", err
	}
	m, err := FromBytes(data, "image/png")
	if err != nil {
		return "", err
	}
	if !IsImage(m) {
		return "", fmt.Errorf("%w: clipboard holds audio", ErrUnsupportedMedia)
	}
	return m, nil
}
