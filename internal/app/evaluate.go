package app

import (
	"fmt"
	"regexp"
	"strings"

	"quiz-studio/internal/domain"
)

// SimilarityThreshold is the minimum short-answer word overlap, in percent.
const SimilarityThreshold = 70.0

// Result is the outcome of evaluating one submission.
type Result struct {
	Correct bool
	// Answer is the normalized form stored in the slot's last answer.
	Answer domain.Answer
	// Slots holds per-slot correctness for matching, connecting-lines
	// and ordering questions.
	Slots []bool
}

// Evaluate scores a submission against q. It never mutates q and returns
// ErrIncompleteArrangement or ErrInvalidAnswer without scoring when the
// submission cannot be evaluated.
func Evaluate(q domain.Question, a domain.Answer) (Result, error) {
	switch q := q.(type) {
	case *domain.MultipleChoice:
		pick, ok := a.(domain.ChoiceAnswer)
		if !ok || int(pick) < 0 || int(pick) >= len(q.Options) {
			return Result{}, invalid(q, a)
		}
		return Result{Correct: int(pick) == q.Correct, Answer: pick}, nil

	case *domain.FillInBlank:
		text, ok := a.(domain.TextAnswer)
		if !ok {
			return Result{}, invalid(q, a)
		}
		return Result{Correct: matchesLiteral(string(text), q.CorrectAnswer), Answer: text}, nil

	case *domain.TrueFalse:
		pick, ok := a.(domain.BoolAnswer)
		if !ok {
			return Result{}, invalid(q, a)
		}
		return Result{Correct: bool(pick) == q.CorrectAnswer, Answer: pick}, nil

	case *domain.ShortAnswer:
		text, ok := a.(domain.TextAnswer)
		if !ok {
			return Result{}, invalid(q, a)
		}
		return Result{Correct: matchesModel(string(text), q.CorrectAnswer), Answer: text}, nil

	case *domain.Matching:
		arr, ok := a.(domain.Arrangement)
		if !ok {
			return Result{}, invalid(q, a)
		}
		return evaluateMatching(len(q.Prompts), arr)

	case *domain.Ordering:
		arr, ok := a.(domain.Arrangement)
		if !ok {
			return Result{}, invalid(q, a)
		}
		return evaluateOrdering(len(q.Items), arr)

	case *domain.ConnectingLines:
		lines, ok := a.(domain.Connections)
		if !ok {
			return Result{}, invalid(q, a)
		}
		return evaluateConnections(q, lines)
	}
	return Result{}, fmt.Errorf("%w: unsupported question %T", domain.ErrInvalidAnswer, q)
}

func invalid(q domain.Question, a domain.Answer) error {
	return fmt.Errorf("%w: %T for %s", domain.ErrInvalidAnswer, a, q.Kind())
}

func matchesLiteral(submitted, accepted string) bool {
	want := strings.ToLower(strings.TrimSpace(submitted))
	for _, candidate := range strings.Split(accepted, "|") {
		if strings.ToLower(strings.TrimSpace(candidate)) == want {
			return true
		}
	}
	return false
}

// arr[prompt] is the original index of the answer dropped on that prompt.
func evaluateMatching(n int, arr domain.Arrangement) (Result, error) {
	if len(arr) > n {
		return Result{}, fmt.Errorf("%w: %d slots for %d prompts", domain.ErrInvalidAnswer, len(arr), n)
	}
	seen := make(map[int]bool, len(arr))
	for _, v := range arr {
		if v == -1 {
			continue
		}
		if v < -1 || v >= n || seen[v] {
			return Result{}, fmt.Errorf("%w: answer index %d", domain.ErrInvalidAnswer, v)
		}
		seen[v] = true
	}
	if len(seen) < n {
		return Result{}, domain.ErrIncompleteArrangement
	}

	res := Result{Correct: true, Answer: append(domain.Arrangement{}, arr...), Slots: make([]bool, n)}
	for i, v := range arr {
		res.Slots[i] = v == i
		res.Correct = res.Correct && res.Slots[i]
	}
	return res, nil
}

// arr lists original item indices in the order the student placed them.
func evaluateOrdering(n int, arr domain.Arrangement) (Result, error) {
	if len(arr) != n {
		return Result{}, fmt.Errorf("%w: %d items for %d", domain.ErrInvalidAnswer, len(arr), n)
	}
	seen := make([]bool, n)
	for _, v := range arr {
		if v < 0 || v >= n || seen[v] {
			return Result{}, fmt.Errorf("%w: item index %d", domain.ErrInvalidAnswer, v)
		}
		seen[v] = true
	}

	res := Result{Correct: true, Answer: append(domain.Arrangement{}, arr...), Slots: make([]bool, n)}
	for i, v := range arr {
		res.Slots[i] = v == i
		res.Correct = res.Correct && res.Slots[i]
	}
	return res, nil
}

// Every prompt that has content needs exactly one line. A line is correct
// when it joins a prompt to the answer at the same index.
func evaluateConnections(q *domain.ConnectingLines, lines domain.Connections) (Result, error) {
	n := len(q.Prompts)
	required := 0
	for _, p := range q.Prompts {
		if p.Usable() {
			required++
		}
	}

	fromPrompt := make(map[int]bool, len(lines))
	toAnswer := make(map[int]bool, len(lines))
	for _, c := range lines {
		if c.PromptIndex < 0 || c.PromptIndex >= n || c.AnswerIndex < 0 || c.AnswerIndex >= len(q.Answers) {
			return Result{}, fmt.Errorf("%w: line %d->%d", domain.ErrInvalidAnswer, c.PromptIndex, c.AnswerIndex)
		}
		if fromPrompt[c.PromptIndex] || toAnswer[c.AnswerIndex] {
			return Result{}, fmt.Errorf("%w: point used twice", domain.ErrInvalidAnswer)
		}
		fromPrompt[c.PromptIndex] = true
		toAnswer[c.AnswerIndex] = true
	}
	for i, p := range q.Prompts {
		if p.Usable() && !fromPrompt[i] {
			return Result{}, domain.ErrIncompleteArrangement
		}
	}
	if len(lines) < required {
		return Result{}, domain.ErrIncompleteArrangement
	}

	res := Result{Correct: true, Answer: append(domain.Connections{}, lines...), Slots: make([]bool, n)}
	for _, c := range lines {
		ok := c.PromptIndex == c.AnswerIndex
		res.Slots[c.PromptIndex] = ok
		res.Correct = res.Correct && ok
	}
	return res, nil
}

var (
	answerPunct = regexp.MustCompile("[.,/#!$%^&*;:{}=\\-_\\\\`~()؟]")
	spaceRun    = regexp.MustCompile(`\s+`)
)

func normalizeWords(s string) map[string]struct{} {
	s = strings.ToLower(strings.TrimSpace(s))
	s = answerPunct.ReplaceAllString(s, "")
	s = spaceRun.ReplaceAllString(s, " ")
	words := make(map[string]struct{})
	for _, w := range strings.Split(s, " ") {
		if w != "" {
			words[w] = struct{}{}
		}
	}
	return words
}

// Similarity returns the share of the model's distinct words found in the
// submission, in percent. An empty model matches only an empty submission.
func Similarity(submitted, model string) float64 {
	user := normalizeWords(submitted)
	want := normalizeWords(model)
	if len(want) == 0 {
		if len(user) == 0 {
			return 100
		}
		return 0
	}
	matched := 0
	for w := range user {
		if _, ok := want[w]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(want)) * 100
}

// matchesModel accepts the submission when any pipe-delimited model answer
// reaches SimilarityThreshold. Blank input never matches.
func matchesModel(submitted, models string) bool {
	if submitted == "" || models == "" {
		return false
	}
	for _, model := range strings.Split(models, "|") {
		if Similarity(submitted, model) >= SimilarityThreshold {
			return true
		}
	}
	return false
}
