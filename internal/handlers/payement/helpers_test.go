package payement

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"antistock_back_end/internal/database"
	"antistock_back_end/internal/models"
	"antistock_back_end/internal/orders"
	"antistock_back_end/internal/payment"
	"antistock_back_end/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v83"
)

// Prestataire factice injecté à la place des adaptateurs Stripe/NOWPayments.
type mockProvider struct {
	checkout *payment.Checkout
	err      error
	calls    int
}

func (m *mockProvider) CreateCheckout(_ context.Context, _ *models.Order) (*payment.Checkout, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.checkout, nil
}

func setupHandler(card, crypto payment.Provider) (*Handler, *orders.Service, *gin.Engine) {
	return setupHandlerWith(store.NewMemoryStore(), card, crypto)
}

func setupHandlerWith(st store.OrderStore, card, crypto payment.Provider) (*Handler, *orders.Service, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	svc := orders.NewService(st)
	h := NewHandler(svc, card, crypto)
	h.SendEmail = false // pas de SMTP dans les tests

	r := gin.New()
	r.POST("/api/checkout/card", h.CheckoutCard)
	r.POST("/api/checkout/crypto", h.CheckoutCrypto)
	r.GET("/api/checkout/order-status", h.GetOrderStatus)
	r.POST("/api/webhooks/stripe", h.StripeWebhook)
	r.POST("/api/webhooks/nowpayments", h.NowPaymentsWebhook)

	return h, svc, r
}

func checkoutBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"items": []models.OrderItem{{ProductID: "p1", Name: "Widget", Quantity: 2, Price: 10.00}},
		"customer": models.Customer{
			Name: "A", Email: "a@b.com", Address: "1 rue du Test",
			City: "Paris", State: "IDF", Zip: "75001",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func postJSON(r *gin.Engine, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("réponse non JSON: %v (%s)", err, w.Body.String())
	}
	return out
}

// useMiniRedis branche un Redis embarqué sur le client global, le temps
// d'un test, pour exercer le dedup et le cache de statut.
func useMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	database.Redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		database.Redis.Close()
		database.Redis = nil
	})
	return mr
}

// stripeEventPayload fabrique un événement checkout.session.completed signé
// selon le schéma Stripe (t=...,v1=HMAC-SHA256("<ts>.<payload>")).
func stripeEventPayload(t *testing.T, sessionID, orderRef string) []byte {
	return stripeEventPayloadID(t, "evt_test_1", sessionID, orderRef)
}

func stripeEventPayloadID(t *testing.T, eventID, sessionID, orderRef string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"type":        "checkout.session.completed",
		"api_version": stripe.APIVersion,
		"data": map[string]any{
			"object": map[string]any{
				"id":                  sessionID,
				"client_reference_id": orderRef,
				"payment_status":      "paid",
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return payload
}

func signStripePayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func signIPNPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
