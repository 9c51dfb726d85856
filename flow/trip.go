package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"honesttravel/services"
	"honesttravel/session"
)

const (
	MinTravelers = 1
	MaxTravelers = 8
)

// SelectCity records the city the user picked from the suggestions and
// looks up its background image.
func (c *Controller) SelectCity(ctx context.Context, sid, city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", invalid("please enter a city name")
	}
	s := c.store(sid)
	if err := s.Set(ctx, session.KeyCitySelected, city); err != nil {
		return "", err
	}

	image := c.images.CityImage(ctx, city)
	if err := s.Set(ctx, session.KeyBackgroundImage, image); err != nil {
		return "", err
	}
	return image, nil
}

// SuggestionsSuppressed reports whether q is the text of a city the user
// already confirmed, in which case no suggestions should be shown.
func (c *Controller) SuggestionsSuppressed(ctx context.Context, sid, q string) (bool, error) {
	selected, ok, err := c.store(sid).Get(ctx, session.KeyCitySelected)
	if err != nil || !ok {
		return false, err
	}
	return strings.TrimSpace(q) == selected, nil
}

type TripRequest struct {
	City      string
	StartDate string
	EndDate   string
	Travelers int
}

// ConfirmTrip validates the Home form, stores the four trip values and
// starts fetching city content in the background.
func (c *Controller) ConfirmTrip(ctx context.Context, sid string, req TripRequest) error {
	city := strings.TrimSpace(req.City)
	if city == "" {
		return invalid("please enter a city name")
	}
	start, err := time.Parse(session.DateLayout, req.StartDate)
	if err != nil {
		return invalid("start date must be YYYY-MM-DD")
	}
	end, err := time.Parse(session.DateLayout, req.EndDate)
	if err != nil {
		return invalid("end date must be YYYY-MM-DD")
	}
	if start.Equal(end) {
		return invalid("please select a valid date range with at least one day difference")
	}
	if end.Before(start) {
		start, end = end, start
	}
	if req.Travelers < MinTravelers || req.Travelers > MaxTravelers {
		return invalid("travelers must be between %d and %d", MinTravelers, MaxTravelers)
	}

	c.stopPrefetch(sid)

	s := c.store(sid)
	prev, _, err := s.Get(ctx, session.KeyCity)
	if err != nil {
		return err
	}
	if prev != city {
		// content generated for another city must not leak into this trip
		if err := s.Clear(ctx, session.KeySelectedActivities,
			session.KeySurveyQuestions, session.KeySurveyAnswers); err != nil {
			return err
		}
	}
	if err := session.SaveTripParams(ctx, s, city, start, end, req.Travelers); err != nil {
		return err
	}
	if err := s.Clear(ctx, session.KeyCityInfo); err != nil {
		return err
	}
	if err := c.enter(ctx, s, CityDetail); err != nil {
		return err
	}

	infoReq := services.CityInfoRequest{
		City:      city,
		StartDate: start.Format(session.DateLayout),
		EndDate:   end.Format(session.DateLayout),
		Travelers: fmt.Sprint(req.Travelers),
	}
	c.startPrefetch(sid, func(ctx context.Context) {
		if _, err := c.loadCityInfo(ctx, s, infoReq); err != nil && !errors.Is(err, context.Canceled) {
			c.log.Warn("city prefetch failed", zap.String("city", city), zap.Error(err))
		}
	})
	return nil
}

// loadCityInfo fetches city content and its image and stores both.
func (c *Controller) loadCityInfo(ctx context.Context, s session.Store, req services.CityInfoRequest) (services.CityInfo, error) {
	info, err := c.content.CityInfo(ctx, req)
	if err != nil {
		return services.CityInfo{}, err
	}
	image := c.images.CityImage(ctx, imageQuery(info, req.City))
	if err := ctx.Err(); err != nil {
		return services.CityInfo{}, err
	}
	if err := s.Set(ctx, session.KeyBackgroundImage, image); err != nil {
		return services.CityInfo{}, err
	}
	// cityInfo goes last: its presence marks the prefetch as complete
	if err := session.SetJSON(ctx, s, session.KeyCityInfo, cachedCityInfo{CityInfo: info, City: req.City}); err != nil {
		return services.CityInfo{}, err
	}
	return info, nil
}

func imageQuery(info services.CityInfo, city string) string {
	if info.Country != "" {
		return info.Country
	}
	return city
}

// cachedCityInfo is what the session keeps under cityInfo.
type cachedCityInfo struct {
	services.CityInfo
	City string `json:"city"`
}

type CityDetailView struct {
	Trip            session.Trip       `json:"trip"`
	Info            *services.CityInfo `json:"cityInfo,omitempty"`
	BackgroundImage string             `json:"backgroundImage"`
	Loading         bool               `json:"loading"`
}

// CityDetail returns the city content for the activity picker. While the
// background prefetch is still running it reports Loading instead of
// blocking.
func (c *Controller) CityDetail(ctx context.Context, sid string) (CityDetailView, error) {
	s := c.store(sid)
	trip, err := c.requireTrip(ctx, s)
	if err != nil {
		return CityDetailView{}, err
	}
	view := CityDetailView{Trip: trip, BackgroundImage: imageOrDefault(trip.BackgroundImage)}

	cached, err := c.cityInfo(ctx, s, trip.City)
	if err != nil {
		return CityDetailView{}, err
	}
	if cached != nil {
		view.Info = cached
		return view, nil
	}
	if c.prefetching(sid) {
		view.Loading = true
		return view, nil
	}

	info, err := c.loadCityInfo(ctx, s, services.CityInfoRequest{
		City:      trip.City,
		StartDate: trip.StartDate,
		EndDate:   trip.EndDate,
		Travelers: fmt.Sprint(trip.Travelers),
	})
	if err != nil {
		c.log.Warn("city info fetch failed", zap.String("city", trip.City), zap.Error(err))
		return CityDetailView{}, &StageError{
			Stage:    CityDetail,
			Fallback: Home,
			Message:  fmt.Sprintf("No activities found for %s. Please try another city.", trip.City),
			Err:      err,
		}
	}
	if err := c.enter(ctx, s, CityDetail); err != nil {
		return CityDetailView{}, err
	}

	bg, _, err := s.Get(ctx, session.KeyBackgroundImage)
	if err != nil {
		return CityDetailView{}, err
	}
	view.Info = &info
	view.BackgroundImage = imageOrDefault(bg)
	return view, nil
}

// cityInfo returns the stored content if it was generated for city.
func (c *Controller) cityInfo(ctx context.Context, s session.Store, city string) (*services.CityInfo, error) {
	var cached cachedCityInfo
	ok, err := session.LoadJSON(ctx, s, session.KeyCityInfo, &cached)
	if err != nil {
		c.log.Warn("discarding unreadable cityInfo", zap.Error(err))
		return nil, s.Clear(ctx, session.KeyCityInfo)
	}
	if !ok || cached.City != city || len(cached.Activities) == 0 {
		return nil, nil
	}
	return &cached.CityInfo, nil
}

// SelectActivities stores the chosen activities and moves on to the survey.
func (c *Controller) SelectActivities(ctx context.Context, sid string, activities []string) error {
	s := c.store(sid)
	trip, err := c.requireTrip(ctx, s)
	if err != nil {
		return err
	}

	chosen := make([]string, 0, len(activities))
	seen := make(map[string]bool, len(activities))
	for _, a := range activities {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		chosen = append(chosen, a)
	}
	if len(chosen) == 0 {
		return invalid("please select at least one activity")
	}

	info, err := c.cityInfo(ctx, s, trip.City)
	if err != nil {
		return err
	}
	if info != nil {
		offered := make(map[string]bool, len(info.Activities))
		for _, a := range info.Activities {
			offered[a] = true
		}
		for _, a := range chosen {
			if !offered[a] {
				return invalid("%q is not an activity offered for %s", a, trip.City)
			}
		}
	}

	if err := session.SetJSON(ctx, s, session.KeySelectedActivities, chosen); err != nil {
		return err
	}
	return c.enter(ctx, s, Survey)
}

func (c *Controller) requireTrip(ctx context.Context, s session.Store) (session.Trip, error) {
	trip, err := session.LoadTrip(ctx, s)
	if err != nil {
		return session.Trip{}, err
	}
	if !trip.HasTripParams() {
		return session.Trip{}, ErrMissingTrip
	}
	return trip, nil
}

func imageOrDefault(image string) string {
	if image == "" {
		return services.DefaultImage
	}
	return image
}
