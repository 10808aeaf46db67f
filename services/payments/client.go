package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTimeout is the default HTTP client timeout for provider calls
	DefaultTimeout = 30 * time.Second
)

// IntentMetadata is the opaque metadata round-tripped through the provider.
// The provider stores and echoes it as strings; parsing back happens in the
// reconciliation layer.
type IntentMetadata struct {
	EnrollmentID   string `json:"enrollment_id"`
	InstitutionID  string `json:"institution_id"`
	CommissionRate string `json:"commission_rate"`
}

// Intent is a provider-agnostic payment intent handle.
type Intent struct {
	Ref          string         `json:"ref"`
	ClientSecret string         `json:"client_secret"`
	AmountMinor  int64          `json:"amount_minor"`
	Currency     string         `json:"currency"`
	Metadata     IntentMetadata `json:"metadata"`
}

// Event is an inbound provider webhook event. Amounts arrive in minor
// currency units (divide by 100 for the display amount).
type Event struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"` // payment.succeeded, payment.failed, charge.refunded
	IntentRef   string         `json:"intent_ref"`
	ChargeRef   string         `json:"charge_ref"`
	AmountMinor int64          `json:"amount_minor"`
	Currency    string         `json:"currency"`
	Reason      string         `json:"reason,omitempty"`
	Metadata    IntentMetadata `json:"metadata"`
}

// Provider webhook event types
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
	EventChargeRefunded   = "charge.refunded"
)

// Provider is the payment gateway abstraction consumed by the
// reconciliation service.
type Provider interface {
	CreateIntent(ctx context.Context, amount float64, currency string, metadata IntentMetadata) (*Intent, error)
}

// Config holds configuration for the payment provider client
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is the HTTP payment gateway client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new payment provider client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateIntent creates a payment intent at the provider. The amount is sent
// in minor units; metadata is round-tripped verbatim.
func (c *Client) CreateIntent(ctx context.Context, amount float64, currency string, metadata IntentMetadata) (*Intent, error) {
	amountMinor := int64(amount*100 + 0.5)

	payload := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"metadata": metadata,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal intent payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/payment_intents", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	// Provider-side idempotency for retried creations.
	req.Header.Set("Idempotency-Key", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(data))
	}

	var res struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode intent response: %w", err)
	}

	return &Intent{
		Ref:          res.ID,
		ClientSecret: res.ClientSecret,
		AmountMinor:  amountMinor,
		Currency:     currency,
		Metadata:     metadata,
	}, nil
}
