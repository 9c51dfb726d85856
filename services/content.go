package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"honesttravel/survey"
)

// ─── Types ────────────────────────────────────────────────────────────────────

type CityInfoRequest struct {
	City      string `json:"city" validate:"required"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Travelers string `json:"travelers"`
}

type CityInfo struct {
	Description string   `json:"description" validate:"required"`
	Activities  []string `json:"activities" validate:"min=1,dive,required"`
	Country     string   `json:"country"`
}

type SurveySubmission struct {
	City               string            `json:"city" validate:"required"`
	StartDate          string            `json:"start_date"`
	EndDate            string            `json:"end_date"`
	SelectedActivities []string          `json:"selected_activities"`
	SurveyResponses    []survey.Response `json:"survey_responses" validate:"min=1"`
}

type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	PackageID string `json:"packageId" validate:"required"`
	City      string `json:"city" validate:"required"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type ItineraryDay struct {
	Day       string `json:"day"`
	Morning   string `json:"morning"`
	Afternoon string `json:"afternoon"`
	Evening   string `json:"evening"`
}

// UnmarshalJSON accepts the day label as either a string or a number.
func (d *ItineraryDay) UnmarshalJSON(b []byte) error {
	var raw struct {
		Day       json.RawMessage `json:"day"`
		Morning   string          `json:"morning"`
		Afternoon string          `json:"afternoon"`
		Evening   string          `json:"evening"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = ItineraryDay{Morning: raw.Morning, Afternoon: raw.Afternoon, Evening: raw.Evening}
	if len(raw.Day) == 0 || string(raw.Day) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw.Day, &d.Day); err == nil {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.Day, &n); err != nil {
		return fmt.Errorf("itinerary day label: %w", err)
	}
	d.Day = "Day " + n.String()
	return nil
}

type Itinerary struct {
	Days           []ItineraryDay `json:"itinerary"`
	TravelTips     string         `json:"travel_tips"`
	LocalFood      string         `json:"local_food_recommendations"`
	EstimatedCosts string         `json:"estimated_costs"`
}

type TravelPlan struct {
	City            string    `json:"city"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	CityDescription string    `json:"city_description"`
	Itinerary       Itinerary `json:"travel_plan"`
}

// ─── Content Client ───────────────────────────────────────────────────────────

// ContentClient talks to the content-generation backend.
type ContentClient struct {
	gateway
}

func NewContentClient(baseURL string, timeout time.Duration, opts ClientOptions) *ContentClient {
	return &ContentClient{gateway: newGateway("content", baseURL, timeout, opts)}
}

// CityInfo fetches the description and suggested activities for a city.
func (c *ContentClient) CityInfo(ctx context.Context, req CityInfoRequest) (CityInfo, error) {
	const op = "get_city_info"
	body, err := c.doRequest(ctx, op, http.MethodPost, "/get_city_info", req)
	if err != nil {
		return CityInfo{}, err
	}

	var info CityInfo
	if err := decodeJSON(op, body, &info); err != nil {
		return CityInfo{}, err
	}
	if err := validateShape(op, info); err != nil {
		return CityInfo{}, err
	}
	return info, nil
}

// SurveyQuestions fetches the preference questions generated for a city.
func (c *ContentClient) SurveyQuestions(ctx context.Context, city string) ([]survey.Question, error) {
	const op = "get_survey_questions"
	body, err := c.doRequest(ctx, op, http.MethodPost, "/get_survey_questions", map[string]string{"city": city})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Questions []survey.Question `json:"questions" validate:"min=1,dive"`
	}
	if err := decodeJSON(op, body, &resp); err != nil {
		return nil, err
	}
	if err := validateShape(op, resp); err != nil {
		return nil, err
	}
	for _, q := range resp.Questions {
		if err := q.Validate(); err != nil {
			return nil, malformed(op, err)
		}
	}
	return resp.Questions, nil
}

// SubmitSurvey posts every answer with the trip parameters. The upstream
// acknowledgement must be JSON; its content is not used.
func (c *ContentClient) SubmitSurvey(ctx context.Context, sub SurveySubmission) error {
	const op = "submit_survey_answers"
	if err := validate.Struct(sub); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	body, err := c.doRequest(ctx, op, http.MethodPost, "/submit_survey_answers", sub)
	if err != nil {
		return err
	}
	if !json.Valid(body) {
		return malformed(op, errors.New("acknowledgement is not JSON"))
	}
	return nil
}

// TravelPlan fetches the generated itinerary. travel_plan arrives either as
// an object or as a JSON document encoded in a string.
func (c *ContentClient) TravelPlan(ctx context.Context, city string) (TravelPlan, error) {
	const op = "get_travel_plan"
	body, err := c.doRequest(ctx, op, http.MethodGet, "/api/get-travel-plan?city="+url.QueryEscape(city), nil)
	if err != nil {
		return TravelPlan{}, err
	}

	var raw struct {
		City            string          `json:"city"`
		StartDate       string          `json:"start_date"`
		EndDate         string          `json:"end_date"`
		CityDescription string          `json:"city_description"`
		TravelPlan      json.RawMessage `json:"travel_plan"`
	}
	if err := decodeJSON(op, body, &raw); err != nil {
		return TravelPlan{}, err
	}

	itinerary, err := parseItinerary(raw.TravelPlan)
	if err != nil {
		return TravelPlan{}, malformed(op, err)
	}
	return TravelPlan{
		City:            raw.City,
		StartDate:       raw.StartDate,
		EndDate:         raw.EndDate,
		CityDescription: raw.CityDescription,
		Itinerary:       itinerary,
	}, nil
}

func parseItinerary(raw json.RawMessage) (Itinerary, error) {
	var it Itinerary
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return it, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return it, err
		}
		if s == "" {
			return it, nil
		}
		raw = []byte(s)
	}
	if err := json.Unmarshal(raw, &it); err != nil {
		return it, fmt.Errorf("travel_plan: %w", err)
	}
	return it, nil
}

// Login records the purchaser's credentials with the content backend.
func (c *ContentClient) Login(ctx context.Context, req LoginRequest) (string, error) {
	const op = "login"
	if err := validate.Struct(req); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	body, err := c.doRequest(ctx, op, http.MethodPost, "/api/login", req)
	if err != nil {
		return "", err
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(op, body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
