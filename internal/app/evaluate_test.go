package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-studio/internal/app"
	"quiz-studio/internal/domain"
)

func items(texts ...string) []domain.ContentItem {
	out := make([]domain.ContentItem, len(texts))
	for i, t := range texts {
		out[i] = domain.ContentItem{Text: t}
	}
	return out
}

func TestEvaluateMultipleChoice(t *testing.T) {
	q := &domain.MultipleChoice{Options: items("a", "b", "c", "d"), Correct: 2}

	for pick := 0; pick < 4; pick++ {
		res, err := app.Evaluate(q, domain.ChoiceAnswer(pick))
		require.NoError(t, err)
		assert.Equal(t, pick == 2, res.Correct, "pick %d", pick)
		assert.Equal(t, domain.ChoiceAnswer(pick), res.Answer)
	}

	_, err := app.Evaluate(q, domain.ChoiceAnswer(4))
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)
	_, err = app.Evaluate(q, domain.TextAnswer("c"))
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)
}

func TestEvaluateFillInBlank(t *testing.T) {
	q := &domain.FillInBlank{CorrectAnswer: "Paris|paris "}

	res, err := app.Evaluate(q, domain.TextAnswer("  PARIS"))
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, domain.TextAnswer("  PARIS"), res.Answer, "raw text kept for redisplay")

	res, err = app.Evaluate(q, domain.TextAnswer("Lyon"))
	require.NoError(t, err)
	assert.False(t, res.Correct)
}

func TestEvaluateTrueFalse(t *testing.T) {
	q := &domain.TrueFalse{CorrectAnswer: false}
	res, err := app.Evaluate(q, domain.BoolAnswer(false))
	require.NoError(t, err)
	assert.True(t, res.Correct)

	res, err = app.Evaluate(q, domain.BoolAnswer(true))
	require.NoError(t, err)
	assert.False(t, res.Correct)
}

func TestEvaluateShortAnswer(t *testing.T) {
	q := &domain.ShortAnswer{CorrectAnswer: "the quick brown fox"}

	assert.InDelta(t, 75.0, app.Similarity("quick brown fox", q.CorrectAnswer), 0.001)
	res, err := app.Evaluate(q, domain.TextAnswer("quick brown fox"))
	require.NoError(t, err)
	assert.True(t, res.Correct)

	assert.InDelta(t, 25.0, app.Similarity("fox", q.CorrectAnswer), 0.001)
	res, err = app.Evaluate(q, domain.TextAnswer("fox"))
	require.NoError(t, err)
	assert.False(t, res.Correct)
}

func TestShortAnswerNormalization(t *testing.T) {
	tests := []struct {
		name   string
		model  string
		answer string
		want   bool
	}{
		{"punctuation and case", "The Quick, Brown Fox!", "quick brown fox.", true},
		{"arabic question mark", "ما عاصمة مصر؟", "ما عاصمة مصر", true},
		{"any candidate", "photosynthesis|plants make food from light", "plants make food", false},
		{"second candidate", "photosynthesis|plants make food", "plants make food", true},
		{"extra words ignored", "water boils", "water boils at one hundred", true},
		{"empty submission", "anything", "", false},
		{"punctuation only model", "...", "!!", true},
		{"punctuation only model vs words", "...", "words", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := app.Evaluate(&domain.ShortAnswer{CorrectAnswer: tt.model}, domain.TextAnswer(tt.answer))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Correct)
		})
	}
}

func TestEvaluateOrdering(t *testing.T) {
	q := &domain.Ordering{Items: items("A", "B", "C")}

	res, err := app.Evaluate(q, domain.Arrangement{0, 1, 2})
	require.NoError(t, err)
	assert.True(t, res.Correct)

	res, err = app.Evaluate(q, domain.Arrangement{1, 0, 2})
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, domain.Arrangement{1, 0, 2}, res.Answer)
	assert.Equal(t, []bool{false, false, true}, res.Slots)

	for _, bad := range []domain.Arrangement{{0, 1}, {0, 0, 1}, {0, 1, 3}, {-1, 1, 2}} {
		_, err := app.Evaluate(q, bad)
		assert.ErrorIs(t, err, domain.ErrInvalidAnswer, "%v", bad)
	}
}

func TestEvaluateMatching(t *testing.T) {
	q := &domain.Matching{Prompts: items("a", "b", "c"), Answers: items("1", "2", "3")}

	res, err := app.Evaluate(q, domain.Arrangement{0, 2, 1})
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, []bool{true, false, false}, res.Slots)
	assert.Equal(t, domain.Arrangement{0, 2, 1}, res.Answer)

	res, err = app.Evaluate(q, domain.Arrangement{0, 1, 2})
	require.NoError(t, err)
	assert.True(t, res.Correct)

	_, err = app.Evaluate(q, domain.Arrangement{0, -1, 1})
	assert.ErrorIs(t, err, domain.ErrIncompleteArrangement)
	_, err = app.Evaluate(q, domain.Arrangement{0, 1})
	assert.ErrorIs(t, err, domain.ErrIncompleteArrangement)
	_, err = app.Evaluate(q, domain.Arrangement{0, 0, 1})
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)
	_, err = app.Evaluate(q, domain.Arrangement{0, 1, 2, 3})
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)
}

func TestEvaluateConnectingLines(t *testing.T) {
	q := &domain.ConnectingLines{Prompts: items("a", "b", ""), Answers: items("1", "2", "3")}

	_, err := app.Evaluate(q, domain.Connections{{PromptIndex: 0, AnswerIndex: 0}})
	assert.ErrorIs(t, err, domain.ErrIncompleteArrangement)

	res, err := app.Evaluate(q, domain.Connections{{PromptIndex: 0, AnswerIndex: 0}, {PromptIndex: 1, AnswerIndex: 1}})
	require.NoError(t, err)
	assert.True(t, res.Correct, "the blank prompt needs no line")

	res, err = app.Evaluate(q, domain.Connections{{PromptIndex: 0, AnswerIndex: 1}, {PromptIndex: 1, AnswerIndex: 0}})
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Len(t, res.Answer, 2)

	_, err = app.Evaluate(q, domain.Connections{{PromptIndex: 0, AnswerIndex: 0}, {PromptIndex: 1, AnswerIndex: 0}})
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)
	_, err = app.Evaluate(q, domain.Connections{{PromptIndex: 0, AnswerIndex: 9}, {PromptIndex: 1, AnswerIndex: 1}})
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)
}
