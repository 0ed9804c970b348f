// Package payment talks to the hosted payment processor's checkout API.
// Card handling and the payment page itself stay on the processor's side;
// this client only creates sessions and reads their state back.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

const defaultBaseURL = "https://api.stripe.com"

var (
	ErrSessionNotFound    = errors.New("checkout session not found")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

type SessionLine struct {
	Name            string
	Description     string
	ImageURL        string
	UnitAmountCents int64
	Quantity        int
}

type SessionRequest struct {
	Lines            []SessionLine
	CustomerEmail    string
	SuccessURL       string
	CancelURL        string
	AllowedCountries []string
	Metadata         map[string]string
}

type Session struct {
	ID               string
	URL              string
	PaymentStatus    string
	AmountTotalCents int64
	CustomerEmail    string
	Metadata         map[string]string
}

// Verification is the tri-state outcome of asking the processor about a
// session: Paid with buyer and authoritative total, not paid, or an error
// from the call itself.
type Verification struct {
	Paid    bool
	BuyerID string
	Total   float64
}

type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	apiKey     string
	baseURL    string
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "stripe",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return c
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// CreateSession opens a hosted checkout session and returns its id and
// redirect URL.
func (c *Client) CreateSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	if c.apiKey == "" {
		return nil, errors.New("payment api key is not set")
	}
	if len(req.Lines) == 0 {
		return nil, errors.New("no line items provided")
	}

	form := encodeSessionForm(req)
	body, err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form)
	if err != nil {
		return nil, err
	}

	return decodeSession(body)
}

// GetSession retrieves a session by its opaque id.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}

	body, err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}

	return decodeSession(body)
}

// VerifySession reports whether a session was paid and, if so, the buyer
// identity and the amount the processor actually charged. The caller must
// never substitute a client-side total for Verification.Total.
func (c *Client) VerifySession(ctx context.Context, sessionID string) (*Verification, error) {
	session, err := c.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.PaymentStatus != "paid" {
		return &Verification{Paid: false}, nil
	}

	return &Verification{
		Paid:    true,
		BuyerID: session.Metadata["user_id"],
		Total:   float64(session.AmountTotalCents) / 100,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		var reqBody io.Reader
		if form != nil {
			reqBody = strings.NewReader(form.Encode())
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read payment api response: %w", err)
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrSessionNotFound
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, apiError(resp.StatusCode, body))
		}
		if resp.StatusCode >= 400 {
			return nil, apiError(resp.StatusCode, body)
		}

		return body, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return body, err
}

func encodeSessionForm(req *SessionRequest) url.Values {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)

	if req.CustomerEmail != "" {
		form.Set("customer_email", req.CustomerEmail)
	}
	form.Set("billing_address_collection", "auto")
	for i, country := range req.AllowedCountries {
		form.Set(fmt.Sprintf("shipping_address_collection[allowed_countries][%d]", i), country)
	}

	for i, line := range req.Lines {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", "usd")
		form.Set(prefix+"[price_data][product_data][name]", line.Name)
		if line.Description != "" {
			form.Set(prefix+"[price_data][product_data][description]", line.Description)
		}
		if line.ImageURL != "" {
			form.Set(prefix+"[price_data][product_data][images][0]", line.ImageURL)
		}
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(line.UnitAmountCents, 10))
		form.Set(prefix+"[quantity]", strconv.Itoa(line.Quantity))
	}

	for key, value := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	return form
}

type sessionPayload struct {
	ID              string            `json:"id"`
	URL             string            `json:"url"`
	PaymentStatus   string            `json:"payment_status"`
	AmountTotal     int64             `json:"amount_total"`
	Metadata        map[string]string `json:"metadata"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

func decodeSession(body []byte) (*Session, error) {
	var payload sessionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}
	if payload.ID == "" {
		return nil, errors.New("session response is missing an id")
	}

	return &Session{
		ID:               payload.ID,
		URL:              payload.URL,
		PaymentStatus:    payload.PaymentStatus,
		AmountTotalCents: payload.AmountTotal,
		CustomerEmail:    payload.CustomerDetails.Email,
		Metadata:         payload.Metadata,
	}, nil
}

func apiError(status int, body []byte) error {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return fmt.Errorf("payment api error (status %d): %s", status, payload.Error.Message)
	}
	return fmt.Errorf("payment api error (status %d)", status)
}
