// Package certificate builds the completion certificate shown to students
// who pass the quiz.
package certificate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"quiz-studio/internal/content"
	"quiz-studio/internal/domain"
)

// PassPercent is the minimum score, in percent, that earns a certificate.
const PassPercent = 80

// ErrStudentNameRequired is returned when no student name was entered.
var ErrStudentNameRequired = errors.New("student name is required")

// Certificate is the data printed on the certificate.
type Certificate struct {
	StudentName string       `json:"studentName"`
	TeacherLine string       `json:"teacherLine"`
	QuizTitle   string       `json:"quizTitle"`
	Logo        domain.Media `json:"logo,omitempty"`
	LogoAlt     string       `json:"logoAlt"`
	ScoreText   string       `json:"scoreText"`
	Percent     int          `json:"percent"`
	FileName    string       `json:"fileName"`
}

// Eligible reports whether score out of total reaches PassPercent.
func Eligible(score, total int) bool {
	if total <= 0 {
		return false
	}
	return float64(score)/float64(total)*100 >= PassPercent
}

// New fills a certificate for student. titleHTML is the already formatted
// quiz title.
func New(student, teacher string, score, total int, sys domain.NumeralSystem, titleHTML string, cfg domain.QuizConfig) (Certificate, error) {
	student = strings.TrimSpace(student)
	if student == "" {
		return Certificate{}, ErrStudentNameRequired
	}
	pct := 0
	if total > 0 {
		pct = int(math.Round(float64(score) / float64(total) * 100))
	}
	alt := cfg.LogoAlt
	if alt == "" {
		alt = "شعار"
	}
	return Certificate{
		StudentName: student,
		TeacherLine: "المعلم: " + strings.TrimSpace(teacher),
		QuizTitle:   titleHTML,
		Logo:        cfg.Logo,
		LogoAlt:     alt,
		ScoreText: fmt.Sprintf("حققت نتيجة %s من %s (%d%%)",
			content.FormatNumber(score, sys), content.FormatNumber(total, sys), pct),
		Percent:  pct,
		FileName: FileName(student),
	}, nil
}

var unsafeName = strings.NewReplacer("/", "", "\\", "", "\x00", "")

// FileName is the download name of the certificate image.
func FileName(student string) string {
	return "شهادة_إنجاز_" + unsafeName.Replace(strings.TrimSpace(student)) + ".png"
}

// Renderer rasterizes the certificate into PNG bytes.
type Renderer interface {
	Render(ctx context.Context) ([]byte, error)
}

// Chrome is the transient UI (buttons) that must not appear in the image.
type Chrome interface {
	Hide()
	Restore()
}

// Capture hides the chrome, renders, and restores the chrome whether or
// not rendering succeeded.
func Capture(ctx context.Context, r Renderer, chrome Chrome) ([]byte, error) {
	if chrome != nil {
		chrome.Hide()
		defer chrome.Restore()
	}
	img, err := r.Render(ctx)
	if err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return img, nil
}
