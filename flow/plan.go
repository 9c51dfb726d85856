package flow

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"honesttravel/services"
	"honesttravel/session"
)

type PlanView struct {
	City            string             `json:"city"`
	StartDate       string             `json:"start_date"`
	EndDate         string             `json:"end_date"`
	Travelers       int                `json:"travelers"`
	Description     string             `json:"city_description"`
	Itinerary       services.Itinerary `json:"travel_plan"`
	Hotels          []services.Hotel   `json:"hotels"`
	HotelPage       int                `json:"hotel_page"`
	HotelPages      int                `json:"hotel_pages"`
	BackgroundImage string             `json:"backgroundImage"`
	Blurred         bool               `json:"isBlurred"`
}

// Plan assembles the itinerary page. The content is unobscured only when
// the inbound navigation asks for it and the session holds a confirmed
// payment; otherwise only the first day is visible.
func (c *Controller) Plan(ctx context.Context, sid string, unblur bool, hotelPage int) (PlanView, error) {
	s := c.store(sid)
	trip, err := c.requireTrip(ctx, s)
	if err != nil {
		return PlanView{}, err
	}

	plan, err := c.content.TravelPlan(ctx, trip.City)
	if err != nil {
		c.log.Warn("travel plan fetch failed", zap.String("city", trip.City), zap.Error(err))
		return PlanView{}, &StageError{
			Stage:    Plan,
			Fallback: Home,
			Message:  "Failed to fetch travel plan.",
			Err:      err,
		}
	}

	blurred := !(unblur && !trip.Blurred)
	view := PlanView{
		City:            trip.City,
		StartDate:       trip.StartDate,
		EndDate:         trip.EndDate,
		Travelers:       trip.Travelers,
		Description:     plan.CityDescription,
		Itinerary:       plan.Itinerary,
		BackgroundImage: trip.BackgroundImage,
		Blurred:         blurred,
	}
	if view.BackgroundImage == "" {
		view.BackgroundImage = c.images.CityImage(ctx, trip.City)
	}

	if blurred {
		view.Description = ""
		view.Itinerary = maskItinerary(plan.Itinerary)
		view.Hotels = []services.Hotel{}
	} else {
		hotels := c.hotelsFor(ctx, trip)
		view.Hotels, view.HotelPages = services.PageHotels(hotels, hotelPage)
		view.HotelPage = clampPage(hotelPage, view.HotelPages)
	}

	if err := c.enter(ctx, s, Plan); err != nil {
		return PlanView{}, err
	}
	return view, nil
}

// maskItinerary keeps the first day and strips everything that is only
// shown after purchase.
func maskItinerary(it services.Itinerary) services.Itinerary {
	masked := services.Itinerary{Days: make([]services.ItineraryDay, len(it.Days))}
	for i, d := range it.Days {
		if i == 0 {
			masked.Days[i] = d
			continue
		}
		masked.Days[i] = services.ItineraryDay{Day: d.Day}
	}
	return masked
}

func clampPage(page, pages int) int {
	if pages == 0 {
		return 0
	}
	if page < 1 {
		return 1
	}
	if page > pages {
		return pages
	}
	return page
}

// hotelsFor falls back to the built-in list when the hotel service fails.
func (c *Controller) hotelsFor(ctx context.Context, trip session.Trip) []services.Hotel {
	hotels, err := c.hotels.Hotels(ctx, trip.City, trip.StartDate, trip.EndDate)
	if err != nil || len(hotels) == 0 {
		c.log.Warn("hotel recommendations unavailable, using fallback list",
			zap.String("city", trip.City), zap.Error(err))
		return services.FallbackHotels(trip.City)
	}
	return hotels
}

// DownloadPlan renders the purchased plan as a PDF.
func (c *Controller) DownloadPlan(ctx context.Context, sid string) ([]byte, string, error) {
	s := c.store(sid)
	trip, err := c.requireTrip(ctx, s)
	if err != nil {
		return nil, "", err
	}
	if trip.Blurred {
		return nil, "", ErrPurchaseRequired
	}

	plan, err := c.content.TravelPlan(ctx, trip.City)
	if err != nil {
		return nil, "", &StageError{Stage: Plan, Fallback: Plan, Message: "Failed to fetch travel plan.", Err: err}
	}

	var pkg services.Package
	if _, err := session.LoadJSON(ctx, s, session.KeySelectedPackage, &pkg); err != nil {
		c.log.Warn("unreadable selected package", zap.Error(err))
	}

	pdf, err := services.RenderItineraryPDF(services.ItineraryDocument{
		TravelerEmail: trip.UserEmail,
		City:          trip.City,
		StartDate:     trip.StartDate,
		EndDate:       trip.EndDate,
		Travelers:     trip.Travelers,
		PackageName:   pkg.Name,
		Description:   plan.CityDescription,
		Itinerary:     plan.Itinerary,
		Hotels:        c.hotelsFor(ctx, trip),
		GeneratedAt:   c.now().UTC(),
	})
	if err != nil {
		return nil, "", err
	}
	return pdf, fmt.Sprintf("travel-plan-%s.pdf", slug(trip.City)), nil
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "trip"
	}
	return b.String()
}

// Snapshot returns the typed session for page hydration.
func (c *Controller) Snapshot(ctx context.Context, sid string) (session.Trip, error) {
	return session.LoadTrip(ctx, c.store(sid))
}
