package certificate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-studio/internal/certificate"
	"quiz-studio/internal/domain"
)

func TestEligible(t *testing.T) {
	assert.True(t, certificate.Eligible(4, 5))
	assert.True(t, certificate.Eligible(5, 5))
	assert.False(t, certificate.Eligible(3, 5))
	assert.False(t, certificate.Eligible(0, 0))
}

func TestNew(t *testing.T) {
	c, err := certificate.New(" سارة ", "أحمد", 4, 5, domain.NumeralsEastern, "<b>اختبار</b>", domain.DefaultQuizConfig())
	require.NoError(t, err)
	assert.Equal(t, "سارة", c.StudentName)
	assert.Equal(t, "المعلم: أحمد", c.TeacherLine)
	assert.Equal(t, "حققت نتيجة ٤ من ٥ (80%)", c.ScoreText)
	assert.Equal(t, 80, c.Percent)
	assert.Equal(t, "شهادة_إنجاز_سارة.png", c.FileName)
	assert.Equal(t, "شعار", c.LogoAlt)

	_, err = certificate.New("  ", "", 5, 5, domain.NumeralsArabic, "", domain.QuizConfig{})
	assert.ErrorIs(t, err, certificate.ErrStudentNameRequired)
}

func TestFileNameStripsSeparators(t *testing.T) {
	assert.Equal(t, "شهادة_إنجاز_..etcpasswd.png", certificate.FileName("../etc/passwd"))
}

type fakeChrome struct{ hidden, restored int }

func (f *fakeChrome) Hide()    { f.hidden++ }
func (f *fakeChrome) Restore() { f.restored++ }

type renderFunc func(ctx context.Context) ([]byte, error)

func (f renderFunc) Render(ctx context.Context) ([]byte, error) { return f(ctx) }

func TestCaptureRestoresChrome(t *testing.T) {
	chrome := &fakeChrome{}
	img, err := certificate.Capture(context.Background(), renderFunc(func(context.Context) ([]byte, error) {
		assert.Equal(t, 1, chrome.hidden)
		assert.Equal(t, 0, chrome.restored)
		return []byte("png"), nil
	}), chrome)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), img)
	assert.Equal(t, 1, chrome.restored)

	boom := errors.New("canvas tainted")
	_, err = certificate.Capture(context.Background(), renderFunc(func(context.Context) ([]byte, error) {
		return nil, boom
	}), chrome)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, chrome.restored)
}
