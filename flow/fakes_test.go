package flow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"honesttravel/database"
	"honesttravel/flow"
	"honesttravel/services"
	"honesttravel/session"
	"honesttravel/survey"
)

type fakeContent struct {
	cityInfo        func(ctx context.Context, req services.CityInfoRequest) (services.CityInfo, error)
	surveyQuestions func(ctx context.Context, city string) ([]survey.Question, error)
	submitSurvey    func(ctx context.Context, sub services.SurveySubmission) error
	travelPlan      func(ctx context.Context, city string) (services.TravelPlan, error)
	login           func(ctx context.Context, req services.LoginRequest) (string, error)
}

func (f *fakeContent) CityInfo(ctx context.Context, req services.CityInfoRequest) (services.CityInfo, error) {
	return f.cityInfo(ctx, req)
}

func (f *fakeContent) SurveyQuestions(ctx context.Context, city string) ([]survey.Question, error) {
	return f.surveyQuestions(ctx, city)
}

func (f *fakeContent) SubmitSurvey(ctx context.Context, sub services.SurveySubmission) error {
	return f.submitSurvey(ctx, sub)
}

func (f *fakeContent) TravelPlan(ctx context.Context, city string) (services.TravelPlan, error) {
	return f.travelPlan(ctx, city)
}

func (f *fakeContent) Login(ctx context.Context, req services.LoginRequest) (string, error) {
	return f.login(ctx, req)
}

type fakeHotels struct {
	hotels func(ctx context.Context, city, in, out string) ([]services.Hotel, error)
}

func (f *fakeHotels) Hotels(ctx context.Context, city, in, out string) ([]services.Hotel, error) {
	return f.hotels(ctx, city, in, out)
}

type fakeImages struct{}

func (fakeImages) CityImage(_ context.Context, city string) string {
	return "https://img/" + city + ".jpg"
}

type fakePayments struct {
	create func(ctx context.Context, req services.CheckoutRequest) (services.Checkout, error)
	paid   func(ctx context.Context, id string) (bool, error)
}

func (f *fakePayments) CreateCheckout(ctx context.Context, req services.CheckoutRequest) (services.Checkout, error) {
	return f.create(ctx, req)
}

func (f *fakePayments) CheckoutPaid(ctx context.Context, id string) (bool, error) {
	return f.paid(ctx, id)
}

type fakeLedger struct {
	mu     sync.Mutex
	orders map[string]*database.Order
}

func (f *fakeLedger) RecordCheckout(_ context.Context, o *database.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.CheckoutID] = o
	return nil
}

func (f *fakeLedger) MarkPaid(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return database.ErrOrderNotFound
	}
	o.Status = database.OrderPaid
	return nil
}

var errUpstream = &services.GatewayError{Op: "test", Kind: services.KindStatus, StatusCode: 500}

// harness wires a controller to happy-path fakes; tests override single
// functions to inject failures.
type harness struct {
	ctrl     *flow.Controller
	sessions *session.MemoryProvider
	content  *fakeContent
	hotels   *fakeHotels
	payments *fakePayments
	ledger   *fakeLedger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	catalog, err := services.DefaultCatalog()
	require.NoError(t, err)

	h := &harness{
		sessions: session.NewMemoryProvider(),
		content: &fakeContent{
			cityInfo: func(_ context.Context, req services.CityInfoRequest) (services.CityInfo, error) {
				return services.CityInfo{
					Description: "About " + req.City,
					Activities:  []string{"Museums", "Food tour", "Hiking"},
					Country:     "Japan",
				}, nil
			},
			surveyQuestions: func(context.Context, string) ([]survey.Question, error) {
				return []survey.Question{
					{Question: "What is your budget?", Options: []string{"Low", "High"}},
					{Question: "Which cuisine do you like?", Options: []string{"Local", "Any"}},
				}, nil
			},
			submitSurvey: func(context.Context, services.SurveySubmission) error { return nil },
			travelPlan: func(_ context.Context, city string) (services.TravelPlan, error) {
				return services.TravelPlan{
					City:            city,
					CityDescription: "Plan for " + city,
					Itinerary: services.Itinerary{
						Days: []services.ItineraryDay{
							{Day: "Day 1", Morning: "Temple", Afternoon: "Market", Evening: "Izakaya"},
							{Day: "Day 2", Morning: "Museum", Afternoon: "Park", Evening: "Karaoke"},
						},
						TravelTips: "Carry cash",
					},
				}, nil
			},
			login: func(context.Context, services.LoginRequest) (string, error) { return "ok", nil },
		},
		hotels: &fakeHotels{hotels: func(context.Context, string, string, string) ([]services.Hotel, error) {
			return services.FallbackHotels("Nowhere"), nil
		}},
		payments: &fakePayments{
			create: func(_ context.Context, req services.CheckoutRequest) (services.Checkout, error) {
				return services.Checkout{SessionID: "cs_1", URL: "https://pay/cs_1"}, nil
			},
			paid: func(context.Context, string) (bool, error) { return true, nil },
		},
		ledger: &fakeLedger{orders: map[string]*database.Order{}},
	}
	h.ctrl = flow.New(flow.Deps{
		Sessions:        h.sessions,
		Content:         h.content,
		Hotels:          h.hotels,
		Images:          fakeImages{},
		Payments:        h.payments,
		Catalog:         catalog,
		Ledger:          h.ledger,
		Logger:          zap.NewNop(),
		PrefetchTimeout: 5 * time.Second,
	})
	t.Cleanup(h.ctrl.Close)
	return h
}

func (h *harness) get(t *testing.T, sid, key string) (string, bool) {
	t.Helper()
	v, ok, err := h.sessions.Open(sid).Get(context.Background(), key)
	require.NoError(t, err)
	return v, ok
}

var tokyo = flow.TripRequest{City: "Tokyo", StartDate: "2025-05-01", EndDate: "2025-05-10", Travelers: 2}

// confirmed runs Home → CityDetail and waits for the prefetch.
func (h *harness) confirmed(t *testing.T, sid string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.ctrl.ConfirmTrip(ctx, sid, tokyo))
	require.Eventually(t, func() bool {
		v, err := h.ctrl.CityDetail(ctx, sid)
		return err == nil && !v.Loading
	}, 2*time.Second, 10*time.Millisecond)
}

// surveyed runs the flow up to Packages.
func (h *harness) surveyed(t *testing.T, sid string) {
	t.Helper()
	ctx := context.Background()
	h.confirmed(t, sid)
	require.NoError(t, h.ctrl.SelectActivities(ctx, sid, []string{"Museums"}))
	_, err := h.ctrl.SurveyQuestions(ctx, sid)
	require.NoError(t, err)
	require.NoError(t, h.ctrl.SubmitSurvey(ctx, sid, map[string]string{
		"What is your budget?":       "Low",
		"Which cuisine do you like?": "Local",
	}))
}

// purchased runs the flow through a confirmed payment.
func (h *harness) purchased(t *testing.T, sid string) {
	t.Helper()
	ctx := context.Background()
	h.surveyed(t, sid)
	_, err := h.ctrl.SelectPackage(ctx, sid, "premium")
	require.NoError(t, err)
	_, err = h.ctrl.Login(ctx, sid, flow.Credentials{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, h.ctrl.ConfirmPayment(ctx, sid, "cs_1"))
}

func stageErr(t *testing.T, err error) *flow.StageError {
	t.Helper()
	var se *flow.StageError
	require.True(t, errors.As(err, &se), "expected *StageError, got %v", err)
	return se
}
