package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cadencebilling/cadence/internal/shared/domain"
	"github.com/cadencebilling/cadence/internal/subscriptions/domain/subscription"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// DefaultRequestTimeout bounds a single provider call.
const DefaultRequestTimeout = 15 * time.Second

// HTTPBillingGatewayConfig configures the provider client.
type HTTPBillingGatewayConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// BreakerMaxRequests is the number of probe requests in half-open state.
	BreakerMaxRequests uint32
	// BreakerTimeout is how long the circuit stays open after tripping.
	BreakerTimeout time.Duration
	// BreakerFailureThreshold trips the circuit after this many consecutive
	// transport failures. Declines do not count; they are valid responses.
	BreakerFailureThreshold uint32
}

// DefaultHTTPBillingGatewayConfig returns the default configuration.
func DefaultHTTPBillingGatewayConfig(baseURL, apiKey string) HTTPBillingGatewayConfig {
	return HTTPBillingGatewayConfig{
		BaseURL:                 baseURL,
		APIKey:                  apiKey,
		Timeout:                 DefaultRequestTimeout,
		BreakerMaxRequests:      2,
		BreakerTimeout:          30 * time.Second,
		BreakerFailureThreshold: 5,
	}
}

// HTTPBillingGateway talks to the external payment provider over HTTP. A
// circuit breaker sits in front of every call so a dead provider fails fast
// instead of stalling a whole billing batch.
type HTTPBillingGateway struct {
	config  HTTPBillingGatewayConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *slog.Logger
}

// NewHTTPBillingGateway creates a new provider client.
func NewHTTPBillingGateway(config HTTPBillingGatewayConfig, logger *slog.Logger) *HTTPBillingGateway {
	if config.Timeout <= 0 {
		config.Timeout = DefaultRequestTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        "billing-provider",
		MaxRequests: config.BreakerMaxRequests,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("billing provider circuit breaker state changed",
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	return &HTTPBillingGateway{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
		logger:  logger,
	}
}

type scheduleRequest struct {
	SubscriptionID   string    `json:"subscription_id"`
	AmountCents      int64     `json:"amount_cents"`
	Currency         string    `json:"currency"`
	FirstBillingDate time.Time `json:"first_billing_date"`
	PaymentMethodID  string    `json:"payment_method_id"`
}

type scheduleResponse struct {
	BillingID string    `json:"billing_id"`
	NextDate  time.Time `json:"next_date"`
}

type chargeRequest struct {
	SubscriptionID  string `json:"subscription_id"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
	PaymentMethodID string `json:"payment_method_id"`
	Retry           bool   `json:"retry"`
}

type chargeResponse struct {
	Success        bool   `json:"success"`
	TransactionID  string `json:"transaction_id"`
	ChargedCents   int64  `json:"charged_cents"`
	Currency       string `json:"currency"`
	DeclineCode    string `json:"decline_code"`
	DeclineMessage string `json:"decline_message"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// ScheduleBilling registers a recurring schedule with the provider.
func (g *HTTPBillingGateway) ScheduleBilling(ctx context.Context, subscriptionID uuid.UUID, amount domain.Money, firstBillingDate time.Time, paymentMethodID string) (*subscription.ScheduleResult, error) {
	body := scheduleRequest{
		SubscriptionID:   subscriptionID.String(),
		AmountCents:      amount.Cents(),
		Currency:         amount.Currency(),
		FirstBillingDate: firstBillingDate,
		PaymentMethodID:  paymentMethodID,
	}

	var resp scheduleResponse
	if err := g.post(ctx, "/v1/billing/schedules", body, &resp); err != nil {
		return nil, err
	}

	return &subscription.ScheduleResult{
		BillingID: resp.BillingID,
		NextDate:  resp.NextDate,
	}, nil
}

// ProcessBilling charges the payment method once. A decline comes back as a
// ChargeResult, not an error; only transport and provider malfunction error.
func (g *HTTPBillingGateway) ProcessBilling(ctx context.Context, subscriptionID uuid.UUID, amount domain.Money, paymentMethodID string, isRetry bool) (*subscription.ChargeResult, error) {
	body := chargeRequest{
		SubscriptionID:  subscriptionID.String(),
		AmountCents:     amount.Cents(),
		Currency:        amount.Currency(),
		PaymentMethodID: paymentMethodID,
		Retry:           isRetry,
	}

	var resp chargeResponse
	if err := g.post(ctx, "/v1/billing/charges", body, &resp); err != nil {
		return nil, err
	}

	result := &subscription.ChargeResult{
		Success:        resp.Success,
		TransactionID:  resp.TransactionID,
		DeclineCode:    resp.DeclineCode,
		DeclineMessage: resp.DeclineMessage,
	}
	if resp.Success {
		charged, err := domain.NewMoneyFromCents(resp.ChargedCents, resp.Currency)
		if err != nil {
			return nil, fmt.Errorf("provider returned invalid charge amount: %w", err)
		}
		result.ChargedAmount = charged
	}
	return result, nil
}

// CancelBilling tears down the provider-side schedule.
func (g *HTTPBillingGateway) CancelBilling(ctx context.Context, subscriptionID uuid.UUID) error {
	url := fmt.Sprintf("%s/v1/billing/schedules/%s", g.config.BaseURL, subscriptionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	resp, err := g.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("provider returned status %d cancelling schedule", resp.StatusCode)
	}
	return nil
}

// GetBillingStatus reports the provider-side status of a subscription.
func (g *HTTPBillingGateway) GetBillingStatus(ctx context.Context, subscriptionID uuid.UUID) (subscription.BillingStatus, error) {
	url := fmt.Sprintf("%s/v1/billing/schedules/%s", g.config.BaseURL, subscriptionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return subscription.BillingStatusUnknown, err
	}
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	resp, err := g.do(req)
	if err != nil {
		return subscription.BillingStatusUnknown, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return subscription.BillingStatusUnknown, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var payload statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return subscription.BillingStatusUnknown, err
	}

	switch payload.Status {
	case "ACTIVE":
		return subscription.BillingStatusActive, nil
	case "FAILED":
		return subscription.BillingStatusFailed, nil
	case "CANCELLED":
		return subscription.BillingStatusCancelled, nil
	default:
		return subscription.BillingStatusUnknown, nil
	}
}

func (g *HTTPBillingGateway) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	resp, err := g.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider rejected request with status %d: %s", resp.StatusCode, data)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// do routes the request through the circuit breaker. 5xx responses count as
// breaker failures; anything below does not.
func (g *HTTPBillingGateway) do(req *http.Request) (*http.Response, error) {
	return g.breaker.Execute(func() (*http.Response, error) {
		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
		}
		return resp, nil
	})
}
