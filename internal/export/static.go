package export

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"quiz-studio/internal/content"
	"quiz-studio/internal/domain"
	"quiz-studio/internal/persist"
)

// StaticFileName is the download name of the student document.
const StaticFileName = "quiz_student_offline_ar.html"

const (
	domPurifyURL   = "https://cdn.jsdelivr.net/npm/dompurify@3.1.6/dist/purify.min.js"
	html2canvasURL = "https://cdnjs.cloudflare.com/ajax/libs/html2canvas/1.4.1/html2canvas.min.js"
)

//go:embed templates/student.html.tmpl assets/bootstrap.js assets/styles.css
var files embed.FS

var studentTemplate = template.Must(template.ParseFS(files, "templates/student.html.tmpl"))

// Runtime supplies the compiled quiz core that runs inside the document:
// the js/wasm module and the Go glue script that starts it.
type Runtime interface {
	Load(ctx context.Context) (wasm, glue []byte, err error)
}

// WasmRuntime reads the runtime from files produced by
// `GOOS=js GOARCH=wasm go build ./cmd/quizwasm` and `$(go env GOROOT)/misc/wasm/wasm_exec.js`
// (lib/wasm on newer toolchains).
type WasmRuntime struct {
	WasmPath string
	GluePath string
}

func (r WasmRuntime) Load(ctx context.Context) ([]byte, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	wasm, err := os.ReadFile(r.WasmPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read wasm runtime: %w", err)
	}
	glue, err := os.ReadFile(r.GluePath)
	if err != nil {
		return nil, nil, fmt.Errorf("read wasm glue: %w", err)
	}
	return wasm, glue, nil
}

// StudentKey returns a fresh storage key for one exported document, so
// progress in two downloaded quizzes never collides.
func StudentKey() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return "quiz_student_" + id.String()
}

// Static renders the single-file student document.
type Static struct {
	Runtime Runtime
	KeyFunc func() string
	Now     func() time.Time
	// Tick and AutoAdvance are handed to the document's countdown; zero
	// keeps the runtime default and disables auto-advance respectively.
	Tick        time.Duration
	AutoAdvance time.Duration
}

func NewStatic(rt Runtime) *Static {
	return &Static{Runtime: rt, KeyFunc: StudentKey, Now: time.Now}
}

type studentData struct {
	State       json.RawMessage   `json:"state"`
	Config      domain.QuizConfig `json:"config"`
	StorageKey  string            `json:"storageKey"`
	TickMS      int64             `json:"tickMs,omitempty"`
	AutoAdvance int64             `json:"autoAdvanceMs"`
}

type page struct {
	Title        template.HTML
	Instructions template.HTML
	Footer       template.HTML
	Logo         template.URL
	LogoAlt      string
	Generated    string
	DOMPurify    string
	HTML2Canvas  string
	Styles       template.CSS
	Data         template.JS
	Wasm         template.JS
	Glue         template.JS
	Bootstrap    template.JS
}

// Render writes the document for the quiz in st. Progress is not carried
// over: the student starts at question one with nothing answered. The same
// inputs, storage key and clock give byte-identical output.
func (s *Static) Render(ctx context.Context, w io.Writer, st domain.SessionState, cfg domain.QuizConfig) error {
	if len(st.Questions) == 0 {
		return domain.ErrNoQuestions
	}
	wasm, glue, err := s.Runtime.Load(ctx)
	if err != nil {
		return err
	}

	student, err := persist.EncodeSession(StudentState(st))
	if err != nil {
		return err
	}
	key := StudentKey
	if s.KeyFunc != nil {
		key = s.KeyFunc
	}
	data, err := scriptJSON(studentData{
		State:       student,
		Config:      cfg,
		StorageKey:  key(),
		TickMS:      s.Tick.Milliseconds(),
		AutoAdvance: s.AutoAdvance.Milliseconds(),
	})
	if err != nil {
		return err
	}
	bootstrap, err := files.ReadFile("assets/bootstrap.js")
	if err != nil {
		return err
	}
	styles, err := files.ReadFile("assets/styles.css")
	if err != nil {
		return err
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	sys := st.NumeralType
	alt := cfg.LogoAlt
	if alt == "" {
		alt = "Logo"
	}
	p := page{
		Title:        template.HTML(content.FormatHeader(cfg.Title, sys)),
		Instructions: template.HTML(content.FormatSubheader(cfg.Instructions, sys)),
		Footer:       template.HTML(content.LocalizeDigits(content.Sanitize(cfg.TeacherFooterHTML), sys)),
		Logo:         logoURL(cfg.Logo),
		LogoAlt:      alt,
		Generated:    now().UTC().Format("2006-01-02"),
		DOMPurify:    domPurifyURL,
		HTML2Canvas:  html2canvasURL,
		Styles:       template.CSS(styles),
		Data:         template.JS(data),
		Wasm:         template.JS(`"` + base64.StdEncoding.EncodeToString(wasm) + `"`),
		Glue:         template.JS(escapeScript(string(glue))),
		Bootstrap:    template.JS(escapeScript(string(bootstrap))),
	}

	var buf bytes.Buffer
	if err := studentTemplate.Execute(&buf, p); err != nil {
		return fmt.Errorf("render student document: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// StudentState is st with progress cleared and questions re-sanitized.
func StudentState(st domain.SessionState) domain.SessionState {
	out := domain.NewSessionState()
	out.Questions = make([]domain.Question, len(st.Questions))
	for i, q := range st.Questions {
		out.Questions[i] = domain.Normalize(q)
	}
	n := len(out.Questions)
	out.AnsweredQuestions = make([]*bool, n)
	out.LastWrong = make([]domain.Answer, n)
	out.ShuffledMaps = make([][]int, n)
	if st.QuestionTime >= domain.MinQuestionTime && st.QuestionTime <= domain.MaxQuestionTime {
		out.QuestionTime = st.QuestionTime
	}
	out.TimeLeft = out.QuestionTime
	if st.NumeralType.Valid() {
		out.NumeralType = st.NumeralType
	}
	if st.OptionsLayout.Valid() {
		out.OptionsLayout = st.OptionsLayout
	}
	return out
}

// scriptJSON encodes v for use as a literal inside a script element.
func scriptJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode student data: %w", err)
	}
	return strings.ReplaceAll(strings.TrimSpace(buf.String()), "</", `<\/`), nil
}

// escapeScript keeps inlined code from closing its script element early.
func escapeScript(src string) string {
	return strings.ReplaceAll(src, "</script", `<\/script`)
}

func logoURL(m domain.Media) template.URL {
	s := string(m)
	if strings.HasPrefix(s, "data:image/") {
		return template.URL(s)
	}
	return ""
}
