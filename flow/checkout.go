package flow

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"honesttravel/database"
	"honesttravel/services"
	"honesttravel/session"
)

var validate = validator.New()

type PackagesView struct {
	City       string             `json:"city"`
	Packages   []services.Package `json:"packages"`
	Selected   *services.Package  `json:"selectedPackage,omitempty"`
	LoggedIn   bool               `json:"isLoggedIn"`
	UserEmail  string             `json:"userEmail,omitempty"`
	Purchased  bool               `json:"purchased"`
	Background string             `json:"backgroundImage"`
}

// Packages lists the purchasable tiers for the trip's city.
func (c *Controller) Packages(ctx context.Context, sid string) (PackagesView, error) {
	s := c.store(sid)
	trip, err := c.requireTrip(ctx, s)
	if err != nil {
		return PackagesView{}, err
	}

	view := PackagesView{
		City:       trip.City,
		Packages:   c.catalog.ForCity(trip.City),
		LoggedIn:   trip.LoggedIn,
		UserEmail:  trip.UserEmail,
		Purchased:  !trip.Blurred,
		Background: imageOrDefault(trip.BackgroundImage),
	}
	var pending services.Package
	if ok, err := session.LoadJSON(ctx, s, session.KeyPendingPackage, &pending); err != nil {
		return PackagesView{}, err
	} else if ok {
		view.Selected = &pending
	}

	if err := c.enter(ctx, s, Packages); err != nil {
		return PackagesView{}, err
	}
	return view, nil
}

// SelectPackage remembers the chosen tier and opens the login sub-flow.
func (c *Controller) SelectPackage(ctx context.Context, sid, packageID string) (services.Package, error) {
	s := c.store(sid)
	trip, err := c.requireTrip(ctx, s)
	if err != nil {
		return services.Package{}, err
	}
	pkg, ok := c.catalog.Find(packageID, trip.City)
	if !ok {
		return services.Package{}, invalid("unknown package %q", packageID)
	}
	if err := session.SetJSON(ctx, s, session.KeyPendingPackage, pkg); err != nil {
		return services.Package{}, err
	}
	if err := c.enter(ctx, s, Login); err != nil {
		return services.Package{}, err
	}
	return pkg, nil
}

type Credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Login completes the login sub-flow and, only once it succeeded, opens a
// hosted checkout. Any failure leaves the session on Packages.
func (c *Controller) Login(ctx context.Context, sid string, creds Credentials) (services.Checkout, error) {
	s := c.store(sid)
	trip, err := c.requireTrip(ctx, s)
	if err != nil {
		return services.Checkout{}, err
	}
	var pkg services.Package
	ok, err := session.LoadJSON(ctx, s, session.KeyPendingPackage, &pkg)
	if err != nil {
		return services.Checkout{}, err
	}
	if !ok {
		return services.Checkout{}, &StageError{Stage: Login, Fallback: Packages, Message: "Please select a package first."}
	}

	creds.Email = strings.TrimSpace(creds.Email)
	if err := validate.Struct(creds); err != nil {
		return services.Checkout{}, invalid("please enter a valid email and password")
	}

	_, err = c.content.Login(ctx, services.LoginRequest{
		Email:     creds.Email,
		Password:  creds.Password,
		PackageID: pkg.ID,
		City:      trip.City,
	})
	if err != nil {
		c.log.Warn("login failed", zap.String("email", creds.Email), zap.Error(err))
		return services.Checkout{}, c.backToPackages(ctx, s, Login, loginMessage(err), err)
	}
	if err := s.Set(ctx, session.KeyIsLoggedIn, "true"); err != nil {
		return services.Checkout{}, err
	}
	if err := s.Set(ctx, session.KeyUserEmail, creds.Email); err != nil {
		return services.Checkout{}, err
	}

	checkout, err := c.payments.CreateCheckout(ctx, services.CheckoutRequest{
		PackageID:   pkg.ID,
		PackageName: pkg.Name,
		PriceCents:  pkg.PriceCents,
		City:        trip.City,
	})
	if err != nil {
		c.log.Error("checkout session creation failed", zap.String("package", pkg.ID), zap.Error(err))
		return services.Checkout{}, c.backToPackages(ctx, s, Payment, "Failed to create checkout session. Please try again.", err)
	}
	if err := s.Set(ctx, session.KeyCheckoutSession, checkout.SessionID); err != nil {
		return services.Checkout{}, err
	}
	if err := c.enter(ctx, s, Payment); err != nil {
		return services.Checkout{}, err
	}

	if c.ledger != nil {
		order := &database.Order{
			ID:          uuid.NewString(),
			SessionID:   sid,
			CheckoutID:  checkout.SessionID,
			PackageID:   pkg.ID,
			City:        trip.City,
			Email:       creds.Email,
			AmountCents: pkg.PriceCents,
			Status:      database.OrderPending,
		}
		if err := c.ledger.RecordCheckout(ctx, order); err != nil {
			c.log.Error("failed to record checkout", zap.String("checkout", checkout.SessionID), zap.Error(err))
		}
	}
	return checkout, nil
}

func (c *Controller) backToPackages(ctx context.Context, s session.Store, at Stage, msg string, cause error) error {
	if err := c.enter(ctx, s, Packages); err != nil {
		return err
	}
	return &StageError{Stage: at, Fallback: Packages, Message: msg, Err: cause}
}

func loginMessage(err error) string {
	var ge *services.GatewayError
	if errors.As(err, &ge) && ge.Kind == services.KindStatus && ge.Message != "" && ge.StatusCode < 500 {
		return ge.Message
	}
	return "An error occurred while saving login details. Please try again."
}

// ConfirmPayment handles the return from hosted checkout. The plan is
// unlocked only when the payment processor reports the session paid.
func (c *Controller) ConfirmPayment(ctx context.Context, sid, checkoutID string) error {
	s := c.store(sid)
	trip, err := c.requireTrip(ctx, s)
	if err != nil {
		return err
	}
	stored, _, err := s.Get(ctx, session.KeyCheckoutSession)
	if err != nil {
		return err
	}
	if checkoutID == "" || checkoutID != stored {
		return &StageError{Stage: Payment, Fallback: Packages, Message: "This checkout does not belong to your session."}
	}

	paid, err := c.payments.CheckoutPaid(ctx, checkoutID)
	if err != nil {
		c.log.Error("checkout verification failed", zap.String("checkout", checkoutID), zap.Error(err))
		return &StageError{Stage: Payment, Fallback: Packages, Message: "We could not verify your payment. Please try again.", Err: err}
	}
	if !paid {
		return &StageError{Stage: Payment, Fallback: Packages, Message: "Payment has not been completed."}
	}

	var pkg services.Package
	if _, err := session.LoadJSON(ctx, s, session.KeyPendingPackage, &pkg); err != nil {
		return err
	}
	if err := session.SetJSON(ctx, s, session.KeySelectedPackage, pkg); err != nil {
		return err
	}
	for _, kv := range [][2]string{
		{session.KeyPurchasedCity, trip.City},
		{session.KeyIsBlurred, "false"},
		{session.KeyCompletedSurveys, "0"},
	} {
		if err := s.Set(ctx, kv[0], kv[1]); err != nil {
			return err
		}
	}
	if err := c.enter(ctx, s, Plan); err != nil {
		return err
	}

	if c.ledger != nil {
		if err := c.ledger.MarkPaid(ctx, checkoutID); err != nil {
			c.log.Error("failed to mark order paid", zap.String("checkout", checkoutID), zap.Error(err))
		}
	}
	return nil
}

// Logout clears only the auth keys; trip planning data stays.
func (c *Controller) Logout(ctx context.Context, sid string) error {
	return c.store(sid).Clear(ctx, session.AuthKeys...)
}
