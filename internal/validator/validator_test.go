package validator_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-studio/internal/domain"
	"quiz-studio/internal/validator"
)

func rules(t *testing.T, err error) []string {
	t.Helper()
	var ve validator.ValidationErrors
	require.True(t, errors.As(err, &ve), "expected validation errors, got %v", err)
	out := make([]string, 0, len(ve))
	for _, e := range ve {
		out = append(out, e.Rule)
		assert.NotEmpty(t, e.Message)
	}
	return out
}

func TestMultipleChoiceRules(t *testing.T) {
	v := validator.New()

	q := domain.NewQuestion(domain.TypeMultipleChoice).(*domain.MultipleChoice)
	q.Options[0].Text = "only one"
	assert.ElementsMatch(t, []string{"min_options"}, rules(t, v.Question(q)))

	q.Options[2].Image = "data:image/png;base64,AA"
	require.NoError(t, v.Question(q))

	q.Correct = 1
	assert.ElementsMatch(t, []string{"correct_filled"}, rules(t, v.Question(q)))

	q.Correct = 2
	assert.NoError(t, v.Question(q))
}

func TestTextAnswerRules(t *testing.T) {
	v := validator.New()

	fill := domain.NewQuestion(domain.TypeFillInBlank).(*domain.FillInBlank)
	fill.CorrectAnswer = "   "
	assert.Equal(t, []string{"required"}, rules(t, v.Question(fill)))
	fill.CorrectAnswer = "Paris"
	assert.NoError(t, v.Question(fill))

	short := domain.NewQuestion(domain.TypeShortAnswer)
	assert.Equal(t, []string{"required_model"}, rules(t, v.Question(short)))

	assert.NoError(t, v.Question(domain.NewQuestion(domain.TypeTrueFalse)))
}

func TestPairAndItemRules(t *testing.T) {
	v := validator.New()

	m := domain.NewQuestion(domain.TypeMatching).(*domain.Matching)
	m.Prompts = []domain.ContentItem{{Text: "a"}, {Text: "b"}, {Text: ""}}
	m.Answers = []domain.ContentItem{{Text: "1"}, {Text: ""}, {Text: "3"}}
	assert.Equal(t, []string{"min_pairs"}, rules(t, v.Question(m)))
	m.Answers[1].Text = "2"
	assert.NoError(t, v.Question(m))

	c := domain.NewQuestion(domain.TypeConnectingLines)
	assert.Equal(t, []string{"min_pairs"}, rules(t, v.Question(c)))

	o := domain.NewQuestion(domain.TypeOrdering).(*domain.Ordering)
	o.Items = []domain.ContentItem{{Text: "x"}, {}}
	assert.Equal(t, []string{"min_items"}, rules(t, v.Question(o)))
	o.Items[1].Image = "data:image/png;base64,AA"
	assert.NoError(t, v.Question(o))
}

func TestCompactKeepsPairsAligned(t *testing.T) {
	m := domain.NewQuestion(domain.TypeMatching).(*domain.Matching)
	m.Prompts = []domain.ContentItem{{Text: "a"}, {Text: ""}, {Text: "c"}}
	m.Answers = []domain.ContentItem{{Text: "1"}, {Text: "2"}, {Text: "3"}}

	out := validator.Compact(m).(*domain.Matching)
	assert.Equal(t, []domain.ContentItem{{Text: "a"}, {Text: "c"}}, out.Prompts)
	assert.Equal(t, []domain.ContentItem{{Text: "1"}, {Text: "3"}}, out.Answers)
	assert.Len(t, m.Prompts, 3, "input left untouched")
}

func TestNilQuestion(t *testing.T) {
	err := validator.New().Question(nil)
	assert.True(t, validator.IsValidation(err))
}
