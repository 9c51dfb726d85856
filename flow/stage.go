package flow

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Stage is a named step of the trip-planning flow.
type Stage string

const (
	Home       Stage = "Home"
	CityDetail Stage = "CityDetail"
	Survey     Stage = "Survey"
	Packages   Stage = "Packages"
	Login      Stage = "Login"
	Payment    Stage = "Payment"
	Plan       Stage = "Plan"
)

// Stages lists every stage in flow order.
var Stages = []Stage{Home, CityDetail, Survey, Packages, Login, Payment, Plan}

// Path is the page a stage renders on. The city is path-escaped.
func (s Stage) Path(city string) string {
	city = url.PathEscape(strings.TrimSpace(city))
	switch s {
	case CityDetail:
		return "/city/" + city
	case Survey:
		return "/survey/" + city
	case Packages, Login:
		return "/travel-packages/" + city
	case Payment:
		return "/payment-success/" + city
	case Plan:
		return "/travel-plan/" + city
	default:
		return "/"
	}
}

var (
	// ErrValidation marks user input that blocks a transition in place.
	ErrValidation = errors.New("invalid input")
	// ErrMissingTrip means the session has no city and dates yet.
	ErrMissingTrip = errors.New("trip details are missing, start from the home page")
	// ErrPurchaseRequired is returned for purchased-only content on a blurred plan.
	ErrPurchaseRequired = errors.New("purchase a package to unlock the full plan")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// StageError is a failure the user is told about before being sent to a
// safe stage. Stage is where it happened, Fallback where to go next.
type StageError struct {
	Stage    Stage
	Fallback Stage
	Message  string
	Err      error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error { return e.Err }
