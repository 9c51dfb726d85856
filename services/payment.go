package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// ErrPaymentsDisabled is returned when no Stripe secret key is configured.
var ErrPaymentsDisabled = errors.New("payments are not configured")

type CheckoutRequest struct {
	PackageID   string `validate:"required"`
	PackageName string `validate:"required"`
	PriceCents  int64  `validate:"gt=0"`
	City        string `validate:"required"`
}

type Checkout struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// StripePayments creates hosted checkout sessions.
type StripePayments struct {
	sc          *client.API
	frontendURL string
	observer    Observer
	log         *zap.Logger
}

// NewStripePayments builds a client. backends may be nil to use Stripe's
// production endpoints.
func NewStripePayments(secretKey, frontendURL string, backends *stripe.Backends, opts ClientOptions) *StripePayments {
	p := &StripePayments{
		frontendURL: strings.TrimSuffix(frontendURL, "/"),
		observer:    opts.Observer,
		log:         opts.Logger,
	}
	if p.observer == nil {
		p.observer = nopObserver{}
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	if secretKey == "" {
		p.log.Warn("STRIPE_SECRET_KEY not set, checkout is disabled")
		return p
	}
	p.sc = &client.API{}
	p.sc.Init(secretKey, backends)
	return p
}

func (p *StripePayments) successURL(city string) string {
	// {CHECKOUT_SESSION_ID} is substituted by Stripe and must stay unescaped.
	return fmt.Sprintf("%s/payment-success/%s?session_id={CHECKOUT_SESSION_ID}", p.frontendURL, url.PathEscape(city))
}

func (p *StripePayments) cancelURL(city string) string {
	return fmt.Sprintf("%s/%s", p.frontendURL, url.PathEscape(city))
}

// CreateCheckout opens a one-item card checkout for the package.
func (p *StripePayments) CreateCheckout(ctx context.Context, req CheckoutRequest) (Checkout, error) {
	if p.sc == nil {
		return Checkout{}, ErrPaymentsDisabled
	}
	if err := validate.Struct(req); err != nil {
		return Checkout{}, fmt.Errorf("checkout request: %w", err)
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(p.successURL(req.City)),
		CancelURL:          stripe.String(p.cancelURL(req.City)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.PackageName + " - " + req.City),
						Metadata: map[string]string{
							"packageId": req.PackageID,
							"city":      req.City,
						},
					},
					UnitAmount: stripe.Int64(req.PriceCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("packageId", req.PackageID)
	params.AddMetadata("city", req.City)

	start := time.Now()
	s, err := p.sc.CheckoutSessions.New(params)
	p.observe("create_checkout_session", start, err)
	if err != nil {
		return Checkout{}, &GatewayError{Op: "create_checkout_session", Kind: stripeKind(err), Err: err}
	}
	return Checkout{SessionID: s.ID, URL: s.URL}, nil
}

// CheckoutPaid reports whether the checkout session has been paid.
func (p *StripePayments) CheckoutPaid(ctx context.Context, sessionID string) (bool, error) {
	if p.sc == nil {
		return false, ErrPaymentsDisabled
	}
	start := time.Now()
	s, err := p.sc.CheckoutSessions.Get(sessionID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	p.observe("retrieve_checkout_session", start, err)
	if err != nil {
		return false, &GatewayError{Op: "retrieve_checkout_session", Kind: stripeKind(err), Err: err}
	}
	return s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid, nil
}

func (p *StripePayments) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(stripeKind(err))
		p.log.Warn("stripe call failed", zap.String("op", op), zap.Error(err))
	}
	p.observer.ObserveGateway("stripe", op, outcome, time.Since(start))
}

func stripeKind(err error) ErrorKind {
	var se *stripe.Error
	if errors.As(err, &se) && se.HTTPStatusCode != 0 {
		return KindStatus
	}
	return KindTransport
}
