// internal/domain/payment/stripe.go
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/pkg/apperrors"
)

// Stripe event types the store reacts to. Everything else is
// acknowledged and ignored.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

// Maximum age of a webhook timestamp before we treat it as a replay
const webhookTolerance = 5 * time.Minute

// CheckoutSession represents a hosted payment page created with the
// payment provider
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SessionLineItem is one purchasable line sent to the provider
type SessionLineItem struct {
	Name     string
	Price    int64 // Unit price in cents
	Quantity int
}

// SessionRequest carries everything needed to build a checkout session
type SessionRequest struct {
	OrderID    uint
	Email      string
	Items      []SessionLineItem
	SuccessURL string
	CancelURL  string
}

// Event is the subset of a provider webhook event the store consumes
type Event struct {
	ID        string
	Type      string
	SessionID string
	OrderID   uint
}

// StripeClient wraps the Stripe REST API
type StripeClient struct {
	config     *config.Config
	httpClient *http.Client
}

// NewStripeClient creates a new Stripe API client
func NewStripeClient(cfg *config.Config) *StripeClient {
	return &StripeClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateCheckoutSession creates a hosted checkout session for the
// order. The order id rides along in session metadata so the webhook
// can find its way back.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, req *SessionRequest) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("customer_email", req.Email)
	form.Set("metadata[order_id]", strconv.FormatUint(uint64(req.OrderID), 10))

	for i, item := range req.Items {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", "usd")
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.Price, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}

	body, err := c.makeAPICall(ctx, "POST", "/checkout/sessions", form)
	if err != nil {
		return nil, err
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, apperrors.External("failed to decode checkout session response", err)
	}
	if session.ID == "" || session.URL == "" {
		return nil, apperrors.External("payment provider returned an incomplete session", nil)
	}
	return &session, nil
}

// makeAPICall performs a form-encoded request against the Stripe API
func (c *StripeClient) makeAPICall(ctx context.Context, method, endpoint string, form url.Values) ([]byte, error) {
	apiURL := c.config.Stripe.APIBaseURL + endpoint

	httpReq, err := http.NewRequestWithContext(ctx, method, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.Stripe.SecretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.External("payment provider request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.External("failed to read payment provider response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		message := "payment provider request failed"
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
		return nil, apperrors.External(message, fmt.Errorf("stripe API status %d", resp.StatusCode))
	}
	return body, nil
}

// VerifyWebhook checks the Stripe-Signature header against the raw
// payload and decodes the event. Signature scheme: the header carries
// t=<unix> and one or more v1=<hex hmac-sha256 of "t.payload">.
func VerifyWebhook(payload []byte, sigHeader, secret string) (*Event, error) {
	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	age := time.Since(time.Unix(timestamp, 0))
	if age > webhookTolerance || age < -webhookTolerance {
		return nil, apperrors.Integrity("webhook timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	matched := false
	for _, sig := range signatures {
		decoded, decErr := hex.DecodeString(sig)
		if decErr != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			matched = true
		}
	}
	if !matched {
		return nil, apperrors.Integrity("webhook signature mismatch")
	}

	return decodeEvent(payload)
}

func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, apperrors.Integrity("missing webhook signature header")
	}

	var timestamp int64
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, apperrors.Integrity("malformed webhook timestamp")
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return 0, nil, apperrors.Integrity("malformed webhook signature header")
	}
	return timestamp, signatures, nil
}

func decodeEvent(payload []byte) (*Event, error) {
	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID       string `json:"id"`
				Metadata struct {
					OrderID string `json:"order_id"`
				} `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, apperrors.Integrity("malformed webhook payload")
	}

	event := &Event{
		ID:        raw.ID,
		Type:      raw.Type,
		SessionID: raw.Data.Object.ID,
	}
	if raw.Data.Object.Metadata.OrderID != "" {
		orderID, err := strconv.ParseUint(raw.Data.Object.Metadata.OrderID, 10, 32)
		if err != nil {
			return nil, apperrors.Integrity("malformed order id in webhook metadata")
		}
		event.OrderID = uint(orderID)
	}
	return event, nil
}

// SignPayload builds a Stripe-Signature header value for the payload.
// Used by tests and local tooling to produce verifiable webhooks.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
