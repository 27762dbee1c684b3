package app

import (
	"errors"

	"quiz-studio/internal/certificate"
	"quiz-studio/internal/domain"
	"quiz-studio/internal/validator"
)

var errorMessages = []struct {
	err     error
	code    string
	message string
}{
	{domain.ErrIncompleteArrangement, "incomplete", "يرجى إكمال جميع الإجابات قبل التحقق"},
	{domain.ErrAlreadyAnswered, "answered", "تمت الإجابة عن هذا السؤال"},
	{domain.ErrInvalidAnswer, "invalid_answer", "إجابة غير صالحة"},
	{domain.ErrQuizCompleted, "completed", "انتهى الاختبار"},
	{domain.ErrNoQuestions, "no_questions", "لا توجد أسئلة"},
	{domain.ErrQuestionNotFound, "not_found", "السؤال غير موجود"},
	{domain.ErrLastQuestion, "last_question", "لا يمكن حذف السؤال الوحيد"},
	{domain.ErrMalformedImport, "malformed_import", "ملف الأسئلة غير صالح"},
	{domain.ErrUnknownField, "unknown_field", "حقل غير مسموح لهذا النوع من الأسئلة"},
	{domain.ErrInvalidSetting, "invalid_setting", "إعداد غير صالح"},
	{certificate.ErrStudentNameRequired, "student_name", "يرجى إدخال اسم الطالب"},
	{ErrNotEligible, "not_eligible", "لم تصل إلى النسبة المطلوبة للحصول على الشهادة"},
}

// Describe maps an error to a stable code and an Arabic message for the
// student. Unknown errors get code "internal" and their own text.
func Describe(err error) (code, message string) {
	if err == nil {
		return "", ""
	}
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return m.code, m.message
		}
	}
	if validator.IsValidation(err) {
		return "validation", err.Error()
	}
	return "internal", err.Error()
}
