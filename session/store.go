// Package session is the per-browser trip session: a small string key/value
// store scoped by session ID that survives page loads and server restarts.
package session

import (
	"context"
	"errors"
)

// Persisted keys. The first block mirrors what the pages read and write;
// the second block is bookkeeping for the flow controller.
const (
	KeyCity               = "city"
	KeyStartDate          = "start_date"
	KeyEndDate            = "end_date"
	KeyTravelers          = "travelers"
	KeySelectedActivities = "selected_activities"
	KeyCityInfo           = "cityInfo"
	KeyBackgroundImage    = "backgroundImage"
	KeyIsLoggedIn         = "isLoggedIn"
	KeyUserEmail          = "userEmail"
	KeySelectedPackage    = "selectedPackage"
	KeyIsBlurred          = "isBlurred"
	KeyCompletedSurveys   = "completedSurveys"

	KeyStage           = "stage"
	KeySurveyQuestions = "survey_questions"
	KeySurveyAnswers   = "survey_answers"
	KeyPendingPackage  = "pendingPackage"
	KeyCitySelected    = "citySelected"
	KeyCheckoutSession = "checkoutSession"
	KeyPurchasedCity   = "purchasedCity"
)

// AuthKeys are removed on logout. Trip planning keys are left alone.
var AuthKeys = []string{KeyIsLoggedIn, KeyUserEmail, KeySelectedPackage}

// ErrInvalidKey is returned for an empty key.
var ErrInvalidKey = errors.New("session: empty key")

// Store is one browser's session. Once Set returns, Get returns the value
// until it is overwritten or cleared, including after a restart for durable
// implementations.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context, keys ...string) error
}

// Provider hands out the Store for a session ID.
type Provider interface {
	Open(sessionID string) Store
}
