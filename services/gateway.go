package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ─── Error taxonomy ───────────────────────────────────────────────────────────

// ErrorKind classifies a failed gateway call.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindStatus    ErrorKind = "status"
	KindMalformed ErrorKind = "malformed"
)

// GatewayError is returned by every remote call that did not yield a usable
// response.
type GatewayError struct {
	Op         string
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s failure", e.Op, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (%d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *GatewayError) Unwrap() error { return e.Err }

func malformed(op string, err error) *GatewayError {
	return &GatewayError{Op: op, Kind: KindMalformed, Err: err}
}

// ─── Observer ─────────────────────────────────────────────────────────────────

// Observer receives the outcome of every gateway call.
type Observer interface {
	ObserveGateway(gateway, op, outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveGateway(string, string, string, time.Duration) {}

// ─── Validation ───────────────────────────────────────────────────────────────

var validate = validator.New()

// validateShape runs struct tag validation and reports failures as a
// malformed response.
func validateShape(op string, v any) error {
	if err := validate.Struct(v); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) {
			msgs := make([]string, 0, len(fields))
			for _, f := range fields {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", f.Namespace(), f.Tag()))
			}
			return malformed(op, errors.New(strings.Join(msgs, "; ")))
		}
		return malformed(op, err)
	}
	return nil
}

// ─── HTTP plumbing ────────────────────────────────────────────────────────────

// ClientOptions tweaks the HTTP clients in this package.
type ClientOptions struct {
	HTTPClient *http.Client
	Observer   Observer
	Logger     *zap.Logger
}

type gateway struct {
	name       string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	observer   Observer
	log        *zap.Logger
}

func newGateway(name, baseURL string, timeout time.Duration, opts ClientOptions) gateway {
	g := gateway{
		name:       name,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: opts.HTTPClient,
		observer:   opts.Observer,
		log:        opts.Logger,
	}
	if g.httpClient == nil {
		g.httpClient = &http.Client{Timeout: timeout}
	}
	if g.observer == nil {
		g.observer = nopObserver{}
	}
	if g.log == nil {
		g.log = zap.NewNop()
	}
	g.breaker = newBreaker(name, g.log)
	return g
}

// newBreaker trips after a run of transport failures or 5xx responses so a
// dead upstream fails fast instead of holding requests for the full timeout.
func newBreaker(name string, log *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.8
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("gateway", name), zap.Stringer("from", from), zap.Stringer("to", to))
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var ge *GatewayError
			if errors.As(err, &ge) && ge.Kind == KindStatus {
				return ge.StatusCode < 500
			}
			return false
		},
	})
}

// doRequest sends a JSON request and returns the body of a 2xx response.
// Transport failures and non-2xx statuses come back as *GatewayError.
func (g *gateway) doRequest(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	start := time.Now()
	body, err := g.breaker.Execute(func() (any, error) {
		return g.roundTrip(ctx, op, method, path, payload)
	})

	outcome := "ok"
	if err != nil {
		var ge *GatewayError
		switch {
		case errors.As(err, &ge):
			outcome = string(ge.Kind)
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = "rejected"
			err = &GatewayError{Op: op, Kind: KindTransport, Err: err}
		default:
			outcome = string(KindTransport)
			err = &GatewayError{Op: op, Kind: KindTransport, Err: err}
		}
		g.log.Warn("gateway call failed",
			zap.String("gateway", g.name), zap.String("op", op), zap.Error(err))
	}
	g.observer.ObserveGateway(g.name, op, outcome, time.Since(start))

	if err != nil {
		return nil, err
	}
	return body.([]byte), nil
}

func (g *gateway) roundTrip(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, &GatewayError{Op: op, Kind: KindTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Op: op, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Op: op, Kind: KindTransport, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{
			Op:         op,
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(respBody),
		}
	}
	return respBody, nil
}

// upstreamMessage pulls {"error": "..."} or {"message": "..."} out of an
// error body, falling back to a trimmed snippet of the raw text.
func upstreamMessage(body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func decodeJSON(op string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return malformed(op, err)
	}
	return nil
}
