package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is how trip dates are persisted.
const DateLayout = "2006-01-02"

// Trip is the typed view of the trip-planning keys.
type Trip struct {
	City               string            `json:"city"`
	StartDate          string            `json:"start_date"`
	EndDate            string            `json:"end_date"`
	Travelers          int               `json:"travelers"`
	SelectedActivities []string          `json:"selected_activities"`
	SurveyAnswers      map[string]string `json:"survey_answers,omitempty"`
	Stage              string            `json:"stage"`
	LoggedIn           bool              `json:"is_logged_in"`
	UserEmail          string            `json:"user_email,omitempty"`
	SelectedPackage    string            `json:"selected_package,omitempty"`
	Blurred            bool              `json:"is_blurred"`
	PurchasedCity      string            `json:"purchased_city,omitempty"`
	BackgroundImage    string            `json:"background_image,omitempty"`
}

// HasTripParams reports whether the Home stage values are all present.
func (t Trip) HasTripParams() bool {
	return t.City != "" && t.StartDate != "" && t.EndDate != ""
}

// SaveTripParams writes city, dates and traveler count.
func SaveTripParams(ctx context.Context, s Store, city string, start, end time.Time, travelers int) error {
	values := [][2]string{
		{KeyCity, city},
		{KeyStartDate, start.Format(DateLayout)},
		{KeyEndDate, end.Format(DateLayout)},
		{KeyTravelers, strconv.Itoa(travelers)},
	}
	for _, kv := range values {
		if err := s.Set(ctx, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// LoadTrip reads every trip key. Missing keys leave zero values; a
// malformed stored value is an error.
func LoadTrip(ctx context.Context, s Store) (Trip, error) {
	var t Trip
	var err error

	get := func(key string) string {
		if err != nil {
			return ""
		}
		var v string
		v, _, err = s.Get(ctx, key)
		return v
	}

	t.City = get(KeyCity)
	t.StartDate = get(KeyStartDate)
	t.EndDate = get(KeyEndDate)
	travelers := get(KeyTravelers)
	activities := get(KeySelectedActivities)
	answers := get(KeySurveyAnswers)
	t.Stage = get(KeyStage)
	t.LoggedIn = get(KeyIsLoggedIn) == "true"
	t.UserEmail = get(KeyUserEmail)
	t.SelectedPackage = get(KeySelectedPackage)
	unlocked := get(KeyIsBlurred) == "false"
	t.PurchasedCity = get(KeyPurchasedCity)
	t.BackgroundImage = get(KeyBackgroundImage)
	if err != nil {
		return Trip{}, err
	}
	// a purchase unlocks only the city it was made for
	t.Blurred = !unlocked || t.PurchasedCity == "" || t.PurchasedCity != t.City

	if travelers != "" {
		n, err := strconv.Atoi(travelers)
		if err != nil {
			return Trip{}, fmt.Errorf("stored %s %q: %w", KeyTravelers, travelers, err)
		}
		t.Travelers = n
	}
	if err := GetJSON(activities, &t.SelectedActivities); err != nil {
		return Trip{}, fmt.Errorf("stored %s: %w", KeySelectedActivities, err)
	}
	if err := GetJSON(answers, &t.SurveyAnswers); err != nil {
		return Trip{}, fmt.Errorf("stored %s: %w", KeySurveyAnswers, err)
	}
	return t, nil
}

// SetJSON stores v as JSON under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(b))
}

// GetJSON decodes raw into v. An empty raw leaves v untouched.
func GetJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}

// LoadJSON reads key and decodes it into v, reporting whether it was present.
func LoadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := GetJSON(raw, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}
