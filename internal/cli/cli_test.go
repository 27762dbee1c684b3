package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-studio/internal/export"
	"quiz-studio/internal/media"
)

type workspace struct {
	dir    string
	config string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf("storage:\n  backend: file\n  dir: %q\nquiz:\n  seed: 7\nlog:\n  level: error\n", filepath.Join(dir, "data"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return workspace{dir: dir, config: path}
}

func (w workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", w.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (w workspace) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := w.run(t, args...)
	require.NoError(t, err, out)
	return out
}

const sampleQuestions = `[
  {"type":"multiple-choice","question":{"text":"كم يساوي ٢ + ٢؟"},"options":[{"text":"3"},{"text":"4"},{"text":""},{"text":""}],"correct":1},
  {"type":"true-false","question":{"text":"الأرض كروية"},"correctAnswer":true}
]`

func TestImportEditExport(t *testing.T) {
	w := newWorkspace(t)
	src := filepath.Join(w.dir, "in.json")
	require.NoError(t, os.WriteFile(src, []byte(sampleQuestions), 0o600))

	assert.Contains(t, w.mustRun(t, "import", src), "imported 2 questions")

	list := w.mustRun(t, "question", "list")
	assert.Contains(t, list, "multiple-choice")
	assert.Contains(t, list, "true-false")

	w.mustRun(t, "question", "add", "--type", "ordering")
	w.mustRun(t, "question", "set", "2", "question.text", "رتّب الأعداد")
	w.mustRun(t, "question", "set", "2", "items", `[{"text":"1"},{"text":"2"}]`)
	show := w.mustRun(t, "question", "show", "2")
	assert.Contains(t, show, "رتّب الأعداد")
	assert.Contains(t, show, `"ordering"`)

	w.mustRun(t, "question", "move", "2", "0")
	w.mustRun(t, "question", "type", "2", "short answer")
	list = w.mustRun(t, "question", "list")
	lines := strings.Split(strings.TrimSpace(list), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "ordering")
	assert.Contains(t, lines[2], "short-answer")

	out := filepath.Join(w.dir, "out.json")
	w.mustRun(t, "export", "-o", out)
	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	qs, err := export.ReadQuestions(f)
	require.NoError(t, err)
	require.Len(t, qs, 3)

	xlsx := filepath.Join(w.dir, "out.xlsx")
	w.mustRun(t, "export", "-o", xlsx)
	fx, err := os.Open(xlsx)
	require.NoError(t, err)
	defer fx.Close()
	fromSheet, err := export.ReadXLSX(fx)
	require.NoError(t, err)
	assert.Len(t, fromSheet, 3)
}

func TestSettingsAndConfig(t *testing.T) {
	w := newWorkspace(t)
	src := filepath.Join(w.dir, "in.json")
	require.NoError(t, os.WriteFile(src, []byte(sampleQuestions), 0o600))
	w.mustRun(t, "import", src)

	out := w.mustRun(t, "settings", "--time", "45", "--numerals", "eastern", "--layout", "4x1")
	assert.Contains(t, out, "time=45s numerals=eastern layout=4x1")

	out = w.mustRun(t, "settings", "--clean-numerals")
	assert.Contains(t, out, "converted digits in 1 questions")
	assert.Contains(t, w.mustRun(t, "question", "show", "0"), "2 + 2")

	_, err := w.run(t, "settings", "--time", "500")
	assert.Error(t, err)

	out = w.mustRun(t, "config", "--title", "اختبار الرياضيات")
	assert.Contains(t, out, "اختبار الرياضيات")

	logo := filepath.Join(w.dir, "notes.txt")
	require.NoError(t, os.WriteFile(logo, []byte("plain text"), 0o600))
	_, err = w.run(t, "config", "--logo", logo)
	assert.Error(t, err)
}

type pngClipboard struct{}

func (pngClipboard) ReadImage(context.Context) ([]byte, error) {
	return []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), nil
}

func TestConfigLogoFromClipboard(t *testing.T) {
	w := newWorkspace(t)

	_, err := w.run(t, "config", "--logo-from-clipboard")
	require.Error(t, err)
	assert.ErrorIs(t, err, media.ErrClipboardUnsupported)

	saved := clipboard
	clipboard = pngClipboard{}
	defer func() { clipboard = saved }()
	assert.Contains(t, w.mustRun(t, "config", "--logo-from-clipboard"), "logo: true")
}

func TestResetAndRemove(t *testing.T) {
	w := newWorkspace(t)
	src := filepath.Join(w.dir, "in.json")
	require.NoError(t, os.WriteFile(src, []byte(sampleQuestions), 0o600))
	w.mustRun(t, "import", src)

	assert.Contains(t, w.mustRun(t, "question", "rm", "0"), "1 questions left")
	_, err := w.run(t, "question", "rm", "9")
	assert.Error(t, err)
	_, err = w.run(t, "question", "show", "x")
	assert.Error(t, err)

	w.mustRun(t, "reset")
	assert.Contains(t, w.mustRun(t, "question", "list"), "true-false")

	w.mustRun(t, "reset", "--questions")
	assert.Empty(t, strings.TrimSpace(w.mustRun(t, "question", "list")))
}

func TestParseValue(t *testing.T) {
	v, err := parseValue("3")
	require.NoError(t, err)
	assert.Equal(t, float64(3), v)

	v, err = parseValue("true")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = parseValue("plain words")
	require.NoError(t, err)
	assert.Equal(t, "plain words", v)

	_, err = parseValue("@" + filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}
