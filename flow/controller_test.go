package flow_test

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honesttravel/database"
	"honesttravel/flow"
	"honesttravel/services"
	"honesttravel/session"
	"honesttravel/survey"
)

func TestConfirmTrip_storesExactlyTheFourValues(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.ctrl.ConfirmTrip(context.Background(), "s1", tokyo))

	for key, want := range map[string]string{
		session.KeyCity:      "Tokyo",
		session.KeyStartDate: "2025-05-01",
		session.KeyEndDate:   "2025-05-10",
		session.KeyTravelers: "2",
	} {
		got, ok := h.get(t, "s1", key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
	stage, _ := h.get(t, "s1", session.KeyStage)
	assert.Equal(t, string(flow.CityDetail), stage)
}

func TestConfirmTrip_validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cases := map[string]flow.TripRequest{
		"no city":        {City: " ", StartDate: "2025-05-01", EndDate: "2025-05-02", Travelers: 1},
		"same day":       {City: "Rome", StartDate: "2025-05-01", EndDate: "2025-05-01", Travelers: 1},
		"bad date":       {City: "Rome", StartDate: "05/01/2025", EndDate: "2025-05-02", Travelers: 1},
		"zero travelers": {City: "Rome", StartDate: "2025-05-01", EndDate: "2025-05-02", Travelers: 0},
		"nine travelers": {City: "Rome", StartDate: "2025-05-01", EndDate: "2025-05-02", Travelers: 9},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			err := h.ctrl.ConfirmTrip(ctx, "s-"+name, req)
			assert.ErrorIs(t, err, flow.ErrValidation)
			_, ok := h.get(t, "s-"+name, session.KeyCity)
			assert.False(t, ok, "nothing is written on a refused transition")
		})
	}
}

func TestConfirmTrip_reversedRangeIsNormalized(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.ctrl.ConfirmTrip(context.Background(), "s1",
		flow.TripRequest{City: "Rome", StartDate: "2025-06-10", EndDate: "2025-06-01", Travelers: 8}))

	start, _ := h.get(t, "s1", session.KeyStartDate)
	end, _ := h.get(t, "s1", session.KeyEndDate)
	assert.Equal(t, "2025-06-01", start)
	assert.Equal(t, "2025-06-10", end)
}

func TestCityDetail_prefetchPopulatesSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.confirmed(t, "s1")

	view, err := h.ctrl.CityDetail(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, view.Info)
	assert.Equal(t, "About Tokyo", view.Info.Description)
	assert.Equal(t, "https://img/Japan.jpg", view.BackgroundImage)
}

func TestCityDetail_loadingWhilePrefetchRuns(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	release := make(chan struct{})
	h.content.cityInfo = func(ctx context.Context, req services.CityInfoRequest) (services.CityInfo, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return services.CityInfo{}, ctx.Err()
		}
		return services.CityInfo{Description: "d", Activities: []string{"a"}}, nil
	}

	require.NoError(t, h.ctrl.ConfirmTrip(ctx, "s1", tokyo))
	view, err := h.ctrl.CityDetail(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, view.Loading)
	assert.Nil(t, view.Info)

	close(release)
	require.Eventually(t, func() bool {
		v, err := h.ctrl.CityDetail(ctx, "s1")
		return err == nil && v.Info != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConfirmTrip_newConfirmCancelsOldPrefetch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	var cancelled int32
	first := true
	started := make(chan struct{})
	h.content.cityInfo = func(ctx context.Context, req services.CityInfoRequest) (services.CityInfo, error) {
		if req.City == "Tokyo" && first {
			first = false
			close(started)
			<-ctx.Done()
			atomic.AddInt32(&cancelled, 1)
			return services.CityInfo{}, ctx.Err()
		}
		return services.CityInfo{Description: "About " + req.City, Activities: []string{"a"}}, nil
	}

	require.NoError(t, h.ctrl.ConfirmTrip(ctx, "s1", tokyo))
	<-started
	require.NoError(t, h.ctrl.ConfirmTrip(ctx, "s1",
		flow.TripRequest{City: "Osaka", StartDate: "2025-05-01", EndDate: "2025-05-03", Travelers: 1}))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&cancelled) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		v, err := h.ctrl.CityDetail(ctx, "s1")
		return err == nil && v.Info != nil
	}, 2*time.Second, 10*time.Millisecond)
	v, _ := h.ctrl.CityDetail(ctx, "s1")
	assert.Equal(t, "About Osaka", v.Info.Description)
}

func TestCityDetail_fetchFailureRedirectsHome(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.content.cityInfo = func(context.Context, services.CityInfoRequest) (services.CityInfo, error) {
		return services.CityInfo{}, errUpstream
	}
	require.NoError(t, h.ctrl.ConfirmTrip(ctx, "s1", tokyo))

	var err error
	require.Eventually(t, func() bool {
		_, err = h.ctrl.CityDetail(ctx, "s1")
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)

	se := stageErr(t, err)
	assert.Equal(t, flow.Home, se.Fallback)
	assert.Contains(t, se.Message, "Tokyo")
	city, _ := h.get(t, "s1", session.KeyCity)
	assert.Equal(t, "Tokyo", city, "already-written keys are not rolled back")
}

func TestCityDetail_missingTrip(t *testing.T) {
	h := newHarness(t)

	_, err := h.ctrl.CityDetail(context.Background(), "fresh")

	assert.ErrorIs(t, err, flow.ErrMissingTrip)
}

func TestSelectActivities(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.confirmed(t, "s1")

	assert.ErrorIs(t, h.ctrl.SelectActivities(ctx, "s1", nil), flow.ErrValidation)
	assert.ErrorIs(t, h.ctrl.SelectActivities(ctx, "s1", []string{" "}), flow.ErrValidation)
	assert.ErrorIs(t, h.ctrl.SelectActivities(ctx, "s1", []string{"Skydiving"}), flow.ErrValidation)
	stage, _ := h.get(t, "s1", session.KeyStage)
	assert.Equal(t, string(flow.CityDetail), stage, "refused transition stays in place")

	require.NoError(t, h.ctrl.SelectActivities(ctx, "s1", []string{"Museums", "Hiking", "Museums"}))
	raw, _ := h.get(t, "s1", session.KeySelectedActivities)
	var got []string
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, []string{"Museums", "Hiking"}, got)
	stage, _ = h.get(t, "s1", session.KeyStage)
	assert.Equal(t, string(flow.Survey), stage)
}

func TestSurveyQuestions_categorizedAndCached(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.confirmed(t, "s1")
	require.NoError(t, h.ctrl.SelectActivities(ctx, "s1", []string{"Museums"}))
	var calls int32
	inner := h.content.surveyQuestions
	h.content.surveyQuestions = func(ctx context.Context, city string) ([]survey.Question, error) {
		atomic.AddInt32(&calls, 1)
		return inner(ctx, city)
	}

	view, err := h.ctrl.SurveyQuestions(ctx, "s1")
	require.NoError(t, err)
	_, err = h.ctrl.SurveyQuestions(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Len(t, view.Questions, 2)
	assert.Equal(t, survey.CategoryBudget, view.Questions[0].Category)
	assert.Equal(t, survey.CategoryFood, view.Questions[1].Category)
}

func TestSurveyQuestions_requiresActivities(t *testing.T) {
	h := newHarness(t)
	h.confirmed(t, "s1")

	_, err := h.ctrl.SurveyQuestions(context.Background(), "s1")

	assert.Equal(t, flow.CityDetail, stageErr(t, err).Fallback)
}

func TestSubmitSurvey_unansweredBlocks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.confirmed(t, "s1")
	require.NoError(t, h.ctrl.SelectActivities(ctx, "s1", []string{"Museums"}))
	_, err := h.ctrl.SurveyQuestions(ctx, "s1")
	require.NoError(t, err)
	submitted := false
	h.content.submitSurvey = func(context.Context, services.SurveySubmission) error {
		submitted = true
		return nil
	}

	err = h.ctrl.SubmitSurvey(ctx, "s1", map[string]string{"What is your budget?": "Low"})

	assert.ErrorIs(t, err, flow.ErrValidation)
	assert.Contains(t, err.Error(), "1 remaining")
	assert.False(t, submitted, "no partial submission")
}

func TestSubmitSurvey_serverErrorStaysOnSurvey(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.confirmed(t, "s1")
	require.NoError(t, h.ctrl.SelectActivities(ctx, "s1", []string{"Museums"}))
	_, err := h.ctrl.SurveyQuestions(ctx, "s1")
	require.NoError(t, err)
	cityInfoBefore, _ := h.get(t, "s1", session.KeyCityInfo)
	h.content.submitSurvey = func(context.Context, services.SurveySubmission) error { return errUpstream }

	err = h.ctrl.SubmitSurvey(ctx, "s1", map[string]string{
		"What is your budget?":       "Low",
		"Which cuisine do you like?": "Local",
	})

	se := stageErr(t, err)
	assert.Equal(t, flow.Survey, se.Fallback)
	assert.Equal(t, "Failed to submit survey. Please try again.", se.Message)
	stage, _ := h.get(t, "s1", session.KeyStage)
	assert.Equal(t, string(flow.Survey), stage)
	cityInfoAfter, _ := h.get(t, "s1", session.KeyCityInfo)
	assert.Equal(t, cityInfoBefore, cityInfoAfter, "cityInfo is not written")
	_, ok := h.get(t, "s1", session.KeyIsBlurred)
	assert.False(t, ok, "no plan data is written")
}

func TestSubmitSurvey_sendsTripParameters(t *testing.T) {
	h := newHarness(t)
	var got services.SurveySubmission
	h.content.submitSurvey = func(_ context.Context, sub services.SurveySubmission) error {
		got = sub
		return nil
	}

	h.surveyed(t, "s1")

	assert.Equal(t, "Tokyo", got.City)
	assert.Equal(t, "2025-05-01", got.StartDate)
	assert.Equal(t, []string{"Museums"}, got.SelectedActivities)
	assert.Equal(t, []survey.Response{
		{Question: "What is your budget?", SelectedOption: "Low"},
		{Question: "Which cuisine do you like?", SelectedOption: "Local"},
	}, got.SurveyResponses)
	stage, _ := h.get(t, "s1", session.KeyStage)
	assert.Equal(t, string(flow.Packages), stage)
}

func TestLogin_successOpensCheckout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.surveyed(t, "s1")

	pkg, err := h.ctrl.SelectPackage(ctx, "s1", "premium")
	require.NoError(t, err)
	assert.Equal(t, int64(4999), pkg.PriceCents)

	var req services.CheckoutRequest
	h.payments.create = func(_ context.Context, r services.CheckoutRequest) (services.Checkout, error) {
		req = r
		return services.Checkout{SessionID: "cs_1", URL: "https://pay/cs_1"}, nil
	}
	co, err := h.ctrl.Login(ctx, "s1", flow.Credentials{Email: "a@b.co", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, "https://pay/cs_1", co.URL)
	assert.Equal(t, services.CheckoutRequest{PackageID: "premium", PackageName: "Premium Explorer", PriceCents: 4999, City: "Tokyo"}, req)
	loggedIn, _ := h.get(t, "s1", session.KeyIsLoggedIn)
	assert.Equal(t, "true", loggedIn)
	stage, _ := h.get(t, "s1", session.KeyStage)
	assert.Equal(t, string(flow.Payment), stage)
	assert.Equal(t, database.OrderPending, h.ledger.orders["cs_1"].Status)
}

func TestLogin_failuresStayOnPackages(t *testing.T) {
	ctx := context.Background()

	t.Run("no package selected", func(t *testing.T) {
		h := newHarness(t)
		h.surveyed(t, "s1")
		_, err := h.ctrl.Login(ctx, "s1", flow.Credentials{Email: "a@b.co", Password: "pw"})
		assert.Equal(t, flow.Packages, stageErr(t, err).Fallback)
	})

	t.Run("bad email", func(t *testing.T) {
		h := newHarness(t)
		h.surveyed(t, "s1")
		_, err := h.ctrl.SelectPackage(ctx, "s1", "basic")
		require.NoError(t, err)
		_, err = h.ctrl.Login(ctx, "s1", flow.Credentials{Email: "nope", Password: "pw"})
		assert.ErrorIs(t, err, flow.ErrValidation)
	})

	t.Run("login rejected", func(t *testing.T) {
		h := newHarness(t)
		h.surveyed(t, "s1")
		_, err := h.ctrl.SelectPackage(ctx, "s1", "basic")
		require.NoError(t, err)
		h.content.login = func(context.Context, services.LoginRequest) (string, error) {
			return "", &services.GatewayError{Kind: services.KindStatus, StatusCode: 401, Message: "wrong password"}
		}
		checkoutCalled := false
		h.payments.create = func(context.Context, services.CheckoutRequest) (services.Checkout, error) {
			checkoutCalled = true
			return services.Checkout{}, nil
		}

		_, err = h.ctrl.Login(ctx, "s1", flow.Credentials{Email: "a@b.co", Password: "pw"})

		se := stageErr(t, err)
		assert.Equal(t, "wrong password", se.Message)
		assert.False(t, checkoutCalled)
		_, ok := h.get(t, "s1", session.KeyIsLoggedIn)
		assert.False(t, ok)
		stage, _ := h.get(t, "s1", session.KeyStage)
		assert.Equal(t, string(flow.Packages), stage)
	})

	t.Run("checkout creation fails", func(t *testing.T) {
		h := newHarness(t)
		h.surveyed(t, "s1")
		_, err := h.ctrl.SelectPackage(ctx, "s1", "basic")
		require.NoError(t, err)
		h.payments.create = func(context.Context, services.CheckoutRequest) (services.Checkout, error) {
			return services.Checkout{}, errUpstream
		}

		_, err = h.ctrl.Login(ctx, "s1", flow.Credentials{Email: "a@b.co", Password: "pw"})

		assert.Equal(t, flow.Packages, stageErr(t, err).Fallback)
		stage, _ := h.get(t, "s1", session.KeyStage)
		assert.Equal(t, string(flow.Packages), stage)
	})
}

func TestSelectPackage_unknown(t *testing.T) {
	h := newHarness(t)
	h.surveyed(t, "s1")

	_, err := h.ctrl.SelectPackage(context.Background(), "s1", "platinum")

	assert.ErrorIs(t, err, flow.ErrValidation)
}

func TestConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("paid", func(t *testing.T) {
		h := newHarness(t)
		h.purchased(t, "s1")

		blurred, _ := h.get(t, "s1", session.KeyIsBlurred)
		assert.Equal(t, "false", blurred)
		completed, _ := h.get(t, "s1", session.KeyCompletedSurveys)
		assert.Equal(t, "0", completed)
		raw, _ := h.get(t, "s1", session.KeySelectedPackage)
		assert.Contains(t, raw, `"id":"premium"`)
		assert.Equal(t, database.OrderPaid, h.ledger.orders["cs_1"].Status)
	})

	t.Run("foreign checkout", func(t *testing.T) {
		h := newHarness(t)
		h.purchased(t, "s1")
		err := h.ctrl.ConfirmPayment(ctx, "s1", "cs_other")
		assert.Equal(t, flow.Packages, stageErr(t, err).Fallback)
	})

	t.Run("unpaid", func(t *testing.T) {
		h := newHarness(t)
		h.surveyed(t, "s1")
		_, err := h.ctrl.SelectPackage(ctx, "s1", "basic")
		require.NoError(t, err)
		_, err = h.ctrl.Login(ctx, "s1", flow.Credentials{Email: "a@b.co", Password: "pw"})
		require.NoError(t, err)
		h.payments.paid = func(context.Context, string) (bool, error) { return false, nil }

		err = h.ctrl.ConfirmPayment(ctx, "s1", "cs_1")

		assert.Equal(t, "Payment has not been completed.", stageErr(t, err).Message)
		_, ok := h.get(t, "s1", session.KeyIsBlurred)
		assert.False(t, ok)
	})
}

func TestPlan_blurring(t *testing.T) {
	ctx := context.Background()

	t.Run("not purchased", func(t *testing.T) {
		h := newHarness(t)
		h.surveyed(t, "s1")

		view, err := h.ctrl.Plan(ctx, "s1", true, 1)

		require.NoError(t, err)
		assert.True(t, view.Blurred, "unblur flag alone is not enough")
		assert.Equal(t, "Temple", view.Itinerary.Days[0].Morning)
		assert.Equal(t, "Day 2", view.Itinerary.Days[1].Day)
		assert.Empty(t, view.Itinerary.Days[1].Morning)
		assert.Empty(t, view.Itinerary.TravelTips)
		assert.Empty(t, view.Description)
		assert.Empty(t, view.Hotels)
	})

	t.Run("purchased without flag", func(t *testing.T) {
		h := newHarness(t)
		h.purchased(t, "s1")

		view, err := h.ctrl.Plan(ctx, "s1", false, 1)

		require.NoError(t, err)
		assert.True(t, view.Blurred)
	})

	t.Run("purchased with flag", func(t *testing.T) {
		h := newHarness(t)
		h.purchased(t, "s1")

		view, err := h.ctrl.Plan(ctx, "s1", true, 1)

		require.NoError(t, err)
		assert.False(t, view.Blurred)
		assert.Equal(t, "Museum", view.Itinerary.Days[1].Morning)
		assert.Equal(t, "Plan for Tokyo", view.Description)
		assert.Len(t, view.Hotels, services.HotelsPerPage)
		assert.Equal(t, 1, view.HotelPages)
	})
}

func TestPlan_hotelFailureUsesFallback(t *testing.T) {
	h := newHarness(t)
	h.purchased(t, "s1")
	h.hotels.hotels = func(context.Context, string, string, string) ([]services.Hotel, error) {
		return nil, errUpstream
	}

	view, err := h.ctrl.Plan(context.Background(), "s1", true, 1)

	require.NoError(t, err)
	assert.Equal(t, services.FallbackHotels("Tokyo")[0].Name, view.Hotels[0].Name)
}

func TestPlan_fetchFailureRedirectsHome(t *testing.T) {
	h := newHarness(t)
	h.surveyed(t, "s1")
	h.content.travelPlan = func(context.Context, string) (services.TravelPlan, error) {
		return services.TravelPlan{}, errUpstream
	}

	_, err := h.ctrl.Plan(context.Background(), "s1", false, 1)

	assert.Equal(t, flow.Home, stageErr(t, err).Fallback)
}

func TestDownloadPlan(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t)
	h.surveyed(t, "s1")
	_, _, err := h.ctrl.DownloadPlan(ctx, "s1")
	assert.ErrorIs(t, err, flow.ErrPurchaseRequired)

	h.purchased(t, "s2")
	pdf, name, err := h.ctrl.DownloadPlan(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "travel-plan-tokyo.pdf", name)
	assert.Equal(t, "%PDF-", string(pdf[:5]))
}

func TestPurchase_doesNotUnlockAnotherCity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.purchased(t, "s1")

	require.NoError(t, h.ctrl.ConfirmTrip(ctx, "s1",
		flow.TripRequest{City: "Paris", StartDate: "2025-06-01", EndDate: "2025-06-05", Travelers: 1}))

	view, err := h.ctrl.Plan(ctx, "s1", true, 1)
	require.NoError(t, err)
	assert.True(t, view.Blurred)
	assert.Empty(t, view.Description)
	assert.Empty(t, view.Itinerary.Days[1].Morning)

	_, _, err = h.ctrl.DownloadPlan(ctx, "s1")
	assert.ErrorIs(t, err, flow.ErrPurchaseRequired)

	pkgs, err := h.ctrl.Packages(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, pkgs.Purchased)

	require.NoError(t, h.ctrl.ConfirmTrip(ctx, "s1", tokyo))
	view, err = h.ctrl.Plan(ctx, "s1", true, 1)
	require.NoError(t, err)
	assert.False(t, view.Blurred, "the purchased city stays unlocked")
}

func TestConfirmTrip_replacedPrefetchWritesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	started := make(chan struct{})
	h.content.cityInfo = func(ctx context.Context, req services.CityInfoRequest) (services.CityInfo, error) {
		if req.City == "Tokyo" {
			close(started)
			<-ctx.Done()
			// answers anyway, as a client that ignores cancellation would
			return services.CityInfo{Description: "About Tokyo", Activities: []string{"a"}, Country: "Japan"}, nil
		}
		return services.CityInfo{}, errUpstream
	}

	require.NoError(t, h.ctrl.ConfirmTrip(ctx, "s1", tokyo))
	<-started
	require.NoError(t, h.ctrl.ConfirmTrip(ctx, "s1",
		flow.TripRequest{City: "Osaka", StartDate: "2025-05-01", EndDate: "2025-05-03", Travelers: 1}))
	h.ctrl.Close()

	_, ok := h.get(t, "s1", session.KeyBackgroundImage)
	assert.False(t, ok, "no stale image from the replaced prefetch")
	_, ok = h.get(t, "s1", session.KeyCityInfo)
	assert.False(t, ok)
}

func TestLogout_clearsOnlyAuthKeys(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.purchased(t, "s1")

	require.NoError(t, h.ctrl.Logout(ctx, "s1"))

	for _, k := range []string{session.KeyIsLoggedIn, session.KeyUserEmail, session.KeySelectedPackage} {
		_, ok := h.get(t, "s1", k)
		assert.False(t, ok, k)
	}
	for _, k := range []string{session.KeyCity, session.KeyStartDate, session.KeyEndDate} {
		_, ok := h.get(t, "s1", k)
		assert.True(t, ok, k)
	}
}

func TestSelectCity_andSuggestionSuppression(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ctrl.SelectCity(ctx, "s1", "")
	assert.ErrorIs(t, err, flow.ErrValidation)

	image, err := h.ctrl.SelectCity(ctx, "s1", "Lisbon")
	require.NoError(t, err)
	assert.Equal(t, "https://img/Lisbon.jpg", image)

	suppressed, err := h.ctrl.SuggestionsSuppressed(ctx, "s1", "Lisbon")
	require.NoError(t, err)
	assert.True(t, suppressed)

	suppressed, err = h.ctrl.SuggestionsSuppressed(ctx, "s1", "Lisb")
	require.NoError(t, err)
	assert.False(t, suppressed)
}

func TestSnapshot(t *testing.T) {
	h := newHarness(t)
	h.purchased(t, "s1")

	trip, err := h.ctrl.Snapshot(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, "Tokyo", trip.City)
	assert.Equal(t, 2, trip.Travelers)
	assert.True(t, trip.LoggedIn)
	assert.False(t, trip.Blurred)
	assert.Equal(t, string(flow.Plan), trip.Stage)
}

func TestStage_Path(t *testing.T) {
	assert.Equal(t, "/city/New%20York", flow.CityDetail.Path(" New York"))
	assert.Equal(t, "/", flow.Home.Path("Tokyo"))
	assert.Equal(t, "/survey/Tokyo", flow.Survey.Path("Tokyo"))
	assert.Equal(t, "/travel-plan/Tokyo", flow.Plan.Path("Tokyo"))
}
