package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/pkg/apperrors"
)

const testSecret = "whsec_test_secret"

func eventPayload(eventType, sessionID string, orderID uint) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_1","type":%q,"data":{"object":{"id":%q,"metadata":{"order_id":"%d"}}}}`,
		eventType, sessionID, orderID))
}

func TestVerifyWebhookAcceptsValidSignature(t *testing.T) {
	payload := eventPayload("checkout.session.completed", "cs_123", 42)
	header := SignPayload(payload, testSecret, time.Now())

	event, err := VerifyWebhook(payload, header, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, EventCheckoutCompleted, event.Type)
	assert.Equal(t, "cs_123", event.SessionID)
	assert.Equal(t, uint(42), event.OrderID)
}

func TestVerifyWebhookRejectsWrongSecret(t *testing.T) {
	payload := eventPayload("checkout.session.completed", "cs_123", 42)
	header := SignPayload(payload, "whsec_other", time.Now())

	_, err := VerifyWebhook(payload, header, testSecret)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindIntegrity))
}

func TestVerifyWebhookRejectsTamperedPayload(t *testing.T) {
	payload := eventPayload("checkout.session.completed", "cs_123", 42)
	header := SignPayload(payload, testSecret, time.Now())

	tampered := eventPayload("checkout.session.completed", "cs_123", 43)
	_, err := VerifyWebhook(tampered, header, testSecret)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindIntegrity))
}

func TestVerifyWebhookRejectsMissingHeader(t *testing.T) {
	payload := eventPayload("checkout.session.completed", "cs_123", 42)

	_, err := VerifyWebhook(payload, "", testSecret)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindIntegrity))
}

func TestVerifyWebhookRejectsStaleTimestamp(t *testing.T) {
	payload := eventPayload("checkout.session.completed", "cs_123", 42)
	header := SignPayload(payload, testSecret, time.Now().Add(-time.Hour))

	_, err := VerifyWebhook(payload, header, testSecret)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindIntegrity))
}

func TestVerifyWebhookAcceptsExtraSignatures(t *testing.T) {
	// During secret rotation the header carries several v1 entries;
	// one valid signature is enough
	payload := eventPayload("checkout.session.expired", "cs_456", 7)
	valid := SignPayload(payload, testSecret, time.Now())
	header := valid + ",v1=deadbeef"

	event, err := VerifyWebhook(payload, header, testSecret)
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutExpired, event.Type)
}

func TestVerifyWebhookMalformedOrderID(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","metadata":{"order_id":"abc"}}}}`)
	header := SignPayload(payload, testSecret, time.Now())

	_, err := VerifyWebhook(payload, header, testSecret)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindIntegrity))
}

func stripeTestConfig(apiURL string) *config.Config {
	cfg := &config.Config{}
	cfg.Stripe.SecretKey = "sk_test_123"
	cfg.Stripe.APIBaseURL = apiURL
	return cfg
}

func TestCreateCheckoutSession(t *testing.T) {
	var gotAuth string
	var gotForm map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/checkout/sessions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		fmt.Fprint(w, `{"id":"cs_live_1","url":"https://checkout.stripe.com/pay/cs_live_1"}`)
	}))
	defer srv.Close()

	client := NewStripeClient(stripeTestConfig(srv.URL))
	session, err := client.CreateCheckoutSession(context.Background(), &SessionRequest{
		OrderID:    42,
		Email:      "shopper@example.com",
		SuccessURL: "http://localhost:3000/success",
		CancelURL:  "http://localhost:3000/cancel",
		Items: []SessionLineItem{
			{Name: "Wireless Headphones", Price: 19999, Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_live_1", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_live_1", session.URL)

	assert.Equal(t, "Bearer sk_test_123", gotAuth)
	assert.Equal(t, "42", gotForm["metadata[order_id]"][0])
	assert.Equal(t, "19999", gotForm["line_items[0][price_data][unit_amount]"][0])
	assert.Equal(t, "2", gotForm["line_items[0][quantity]"][0])
	assert.Equal(t, "payment", gotForm["mode"][0])
}

func TestCreateCheckoutSessionAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error":{"message":"Your card was declined."}}`)
	}))
	defer srv.Close()

	client := NewStripeClient(stripeTestConfig(srv.URL))
	_, err := client.CreateCheckoutSession(context.Background(), &SessionRequest{OrderID: 1})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindExternal))
	assert.Contains(t, err.Error(), "declined")
}

func TestCreateCheckoutSessionIncompleteResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"cs_1"}`)
	}))
	defer srv.Close()

	client := NewStripeClient(stripeTestConfig(srv.URL))
	_, err := client.CreateCheckoutSession(context.Background(), &SessionRequest{OrderID: 1})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindExternal))
}
