package flow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"honesttravel/services"
	"honesttravel/session"
	"honesttravel/survey"
)

type QuestionView struct {
	Question string          `json:"question"`
	Options  []string        `json:"options"`
	Category survey.Category `json:"category"`
}

type SurveyView struct {
	City            string            `json:"city"`
	Questions       []QuestionView    `json:"questions"`
	Answers         map[string]string `json:"answers"`
	BackgroundImage string            `json:"backgroundImage"`
}

// cachedQuestions is what the session keeps under survey_questions.
type cachedQuestions struct {
	City      string            `json:"city"`
	Questions []survey.Question `json:"questions"`
}

// SurveyQuestions loads the questions for the trip's city, fetching them
// once per city.
func (c *Controller) SurveyQuestions(ctx context.Context, sid string) (SurveyView, error) {
	s := c.store(sid)
	trip, err := c.requireTrip(ctx, s)
	if err != nil {
		return SurveyView{}, err
	}
	if len(trip.SelectedActivities) == 0 {
		return SurveyView{}, &StageError{
			Stage:    Survey,
			Fallback: CityDetail,
			Message:  "Please select at least one activity first.",
		}
	}

	questions, err := c.questions(ctx, s, trip.City)
	if err != nil {
		return SurveyView{}, err
	}
	if questions == nil {
		questions, err = c.content.SurveyQuestions(ctx, trip.City)
		if err != nil {
			c.log.Warn("survey questions fetch failed", zap.String("city", trip.City), zap.Error(err))
			return SurveyView{}, &StageError{
				Stage:    Survey,
				Fallback: CityDetail,
				Message:  "Failed to load survey questions. Please try again.",
				Err:      err,
			}
		}
		if err := session.SetJSON(ctx, s, session.KeySurveyQuestions, cachedQuestions{City: trip.City, Questions: questions}); err != nil {
			return SurveyView{}, err
		}
	}
	if err := c.enter(ctx, s, Survey); err != nil {
		return SurveyView{}, err
	}

	view := SurveyView{
		City:            trip.City,
		Questions:       make([]QuestionView, 0, len(questions)),
		Answers:         trip.SurveyAnswers,
		BackgroundImage: imageOrDefault(trip.BackgroundImage),
	}
	if view.Answers == nil {
		view.Answers = map[string]string{}
	}
	for _, q := range questions {
		view.Questions = append(view.Questions, QuestionView{
			Question: q.Question,
			Options:  q.Options,
			Category: survey.Categorize(q.Question),
		})
	}
	return view, nil
}

func (c *Controller) questions(ctx context.Context, s session.Store, city string) ([]survey.Question, error) {
	var cached cachedQuestions
	ok, err := session.LoadJSON(ctx, s, session.KeySurveyQuestions, &cached)
	if err != nil {
		c.log.Warn("discarding unreadable survey questions", zap.Error(err))
		return nil, s.Clear(ctx, session.KeySurveyQuestions)
	}
	if !ok || cached.City != city || len(cached.Questions) == 0 {
		return nil, nil
	}
	return cached.Questions, nil
}

// SubmitSurvey requires every displayed question answered, then posts the
// answers with the trip parameters. On any upstream failure the session
// stays on the survey and nothing beyond the answers is written.
func (c *Controller) SubmitSurvey(ctx context.Context, sid string, answers map[string]string) error {
	s := c.store(sid)
	trip, err := c.requireTrip(ctx, s)
	if err != nil {
		return err
	}
	questions, err := c.questions(ctx, s, trip.City)
	if err != nil {
		return err
	}
	if questions == nil {
		return &StageError{
			Stage:    Survey,
			Fallback: Survey,
			Message:  "The survey has not been loaded yet.",
		}
	}

	if err := survey.CheckAnswers(questions, answers); err != nil {
		var ae *survey.AnswerError
		if errors.As(err, &ae) && len(ae.Unanswered) > 0 {
			return invalid("please answer all questions (%d remaining)", len(ae.Unanswered))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := session.SetJSON(ctx, s, session.KeySurveyAnswers, answers); err != nil {
		return err
	}

	err = c.content.SubmitSurvey(ctx, services.SurveySubmission{
		City:               trip.City,
		StartDate:          trip.StartDate,
		EndDate:            trip.EndDate,
		SelectedActivities: trip.SelectedActivities,
		SurveyResponses:    survey.Responses(questions, answers),
	})
	if err != nil {
		c.log.Warn("survey submission failed", zap.String("city", trip.City), zap.Error(err))
		return &StageError{
			Stage:    Survey,
			Fallback: Survey,
			Message:  "Failed to submit survey. Please try again.",
			Err:      err,
		}
	}
	return c.enter(ctx, s, Packages)
}
