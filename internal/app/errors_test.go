package app_test

import (
	"errors"
	"fmt"
	"testing"

	"quiz-studio/internal/app"
	"quiz-studio/internal/certificate"
	"quiz-studio/internal/domain"
)

func TestDescribe(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("submit: %w", domain.ErrAlreadyAnswered), "answered"},
		{domain.ErrIncompleteArrangement, "incomplete"},
		{fmt.Errorf("%w: question time 500", domain.ErrInvalidSetting), "invalid_setting"},
		{certificate.ErrStudentNameRequired, "student_name"},
		{fmt.Errorf("%w: quiz not completed", app.ErrNotEligible), "not_eligible"},
		{errors.New("disk on fire"), "internal"},
	}
	for _, tc := range cases {
		code, msg := app.Describe(tc.err)
		if code != tc.code {
			t.Fatalf("%v: expected code %s, got %s", tc.err, tc.code, code)
		}
		if msg == "" {
			t.Fatalf("%v: empty message", tc.err)
		}
	}
	if code, msg := app.Describe(nil); code != "" || msg != "" {
		t.Fatalf("nil error should describe as empty, got %q %q", code, msg)
	}
}
