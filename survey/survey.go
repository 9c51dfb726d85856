package survey

import (
	"errors"
	"fmt"
	"strings"
)

// Question is one preference question supplied by the content gateway.
type Question struct {
	Question string   `json:"question" validate:"required"`
	Options  []string `json:"options" validate:"min=1,dive,required"`
}

// Category groups questions for presentation.
type Category string

const (
	CategoryFood           Category = "food"
	CategoryActivities     Category = "activities"
	CategoryBudget         Category = "budget"
	CategoryComfort        Category = "comfort"
	CategoryTransportation Category = "transportation"
	CategorySightseeing    Category = "sightseeing"
	CategoryAdventure      Category = "adventure"
	CategoryShopping       Category = "shopping"
	CategoryGeneral        Category = "general"
)

var (
	ErrEmptyQuestion = errors.New("question text is empty")
	ErrNoOptions     = errors.New("question has no options")
)

// Validate rejects questions the survey stage cannot render.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return ErrEmptyQuestion
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("%q: %w", q.Question, ErrNoOptions)
	}
	return nil
}

// HasOption reports whether answer is one of the question's options.
func (q Question) HasOption(answer string) bool {
	for _, o := range q.Options {
		if o == answer {
			return true
		}
	}
	return false
}

type rule struct {
	category Category
	keywords []string
}

// Order matters: "hotel budget" is a budget question, "travel" alone is
// transportation.
var rules = []rule{
	{CategoryFood, []string{"food", "restaurant", "eat", "cuisine"}},
	{CategoryActivities, []string{"activity", "things to do"}},
	{CategoryBudget, []string{"budget", "price", "cost", "spend"}},
	{CategoryComfort, []string{"comfort", "luxury", "accommodation", "hotel"}},
	{CategoryTransportation, []string{"transport", "travel", "getting around"}},
	{CategorySightseeing, []string{"sightseeing", "landmark", "attraction"}},
	{CategoryAdventure, []string{"adventure", "outdoor", "hiking", "extreme"}},
	{CategoryShopping, []string{"shopping", "souvenir"}},
}

// Categorize returns the category of the first rule with a keyword
// contained in the question, or CategoryGeneral.
func Categorize(question string) Category {
	q := strings.ToLower(question)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(q, kw) {
				return r.category
			}
		}
	}
	return CategoryGeneral
}

// Unanswered lists, in display order, the questions without an answer.
func Unanswered(questions []Question, answers map[string]string) []string {
	var missing []string
	for _, q := range questions {
		if strings.TrimSpace(answers[q.Question]) == "" {
			missing = append(missing, q.Question)
		}
	}
	return missing
}

// AnswerError describes why a set of answers cannot be submitted.
type AnswerError struct {
	Unanswered []string
	Invalid    []string
	Unknown    []string
}

func (e *AnswerError) Error() string {
	var parts []string
	if len(e.Unanswered) > 0 {
		parts = append(parts, fmt.Sprintf("%d unanswered question(s)", len(e.Unanswered)))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "answer not among options for: "+strings.Join(e.Invalid, "; "))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown question(s): "+strings.Join(e.Unknown, "; "))
	}
	return "survey answers rejected: " + strings.Join(parts, ", ")
}

// CheckAnswers requires every question answered with one of its options
// and no answers to questions that were not asked.
func CheckAnswers(questions []Question, answers map[string]string) error {
	e := &AnswerError{Unanswered: Unanswered(questions, answers)}

	asked := make(map[string]Question, len(questions))
	for _, q := range questions {
		asked[q.Question] = q
		if a, ok := answers[q.Question]; ok && strings.TrimSpace(a) != "" && !q.HasOption(a) {
			e.Invalid = append(e.Invalid, q.Question)
		}
	}
	for k := range answers {
		if _, ok := asked[k]; !ok {
			e.Unknown = append(e.Unknown, k)
		}
	}

	if len(e.Unanswered) == 0 && len(e.Invalid) == 0 && len(e.Unknown) == 0 {
		return nil
	}
	return e
}

// Response is one question/answer pair as submitted upstream.
type Response struct {
	Question       string `json:"question"`
	SelectedOption string `json:"selected_option"`
}

// Responses pairs answers with questions in display order.
func Responses(questions []Question, answers map[string]string) []Response {
	out := make([]Response, 0, len(questions))
	for _, q := range questions {
		if a, ok := answers[q.Question]; ok {
			out = append(out, Response{Question: q.Question, SelectedOption: a})
		}
	}
	return out
}
