package payement

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"antistock_back_end/internal/models"
	"antistock_back_end/internal/payment"

	"github.com/gin-gonic/gin"
)

func createCryptoOrder(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := postJSON(r, "/api/checkout/crypto", checkoutBody(t))
	if w.Code != http.StatusOK {
		t.Fatalf("checkout crypto: statut %d (%s)", w.Code, w.Body.String())
	}
	return decodeJSON(t, w)["orderId"].(string)
}

func postIPN(r http.Handler, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/nowpayments", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("x-nowpayments-sig", signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func ipnPayload(orderID, status string) []byte {
	return []byte(fmt.Sprintf(`{"order_id":%q,"payment_status":%q,"invoice_id":4522729}`, orderID, status))
}

func newCryptoSetup(t *testing.T) (*gin.Engine, string, func(string) *models.Order) {
	crypto := &mockProvider{checkout: &payment.Checkout{ProviderRef: "4522729", URL: "https://nowpayments.io/payment/?iid=4522729"}}
	_, svc, r := setupHandler(&mockProvider{}, crypto)
	orderID := createCryptoOrder(t, r)

	fetch := func(id string) *models.Order {
		order, err := svc.GetOrder(context.Background(), id)
		if err != nil {
			t.Fatalf("GetOrder a échoué: %v", err)
		}
		return order
	}
	return r, orderID, fetch
}

func TestNowPaymentsWebhook_FinishedMarksPaid(t *testing.T) {
	t.Setenv("NOWPAYMENTS_IPN_SECRET", "")
	r, orderID, fetch := newCryptoSetup(t)

	resp := postIPN(r, ipnPayload(orderID, "finished"), "")
	if resp.Code != http.StatusOK {
		t.Fatalf("statut %d, attendu 200 (%s)", resp.Code, resp.Body.String())
	}
	if got := fetch(orderID).PaymentStatus; got != models.StatusPaid {
		t.Errorf("statut %s, attendu paid", got)
	}
}

func TestNowPaymentsWebhook_ConfirmedMarksPaid(t *testing.T) {
	t.Setenv("NOWPAYMENTS_IPN_SECRET", "")
	r, orderID, fetch := newCryptoSetup(t)

	postIPN(r, ipnPayload(orderID, "confirmed"), "")
	if got := fetch(orderID).PaymentStatus; got != models.StatusPaid {
		t.Errorf("statut %s, attendu paid", got)
	}
}

func TestNowPaymentsWebhook_WaitingLeavesPending(t *testing.T) {
	t.Setenv("NOWPAYMENTS_IPN_SECRET", "")
	r, orderID, fetch := newCryptoSetup(t)

	resp := postIPN(r, ipnPayload(orderID, "waiting"), "")
	if resp.Code != http.StatusOK {
		t.Fatalf("statut %d, attendu 200", resp.Code)
	}
	if got := fetch(orderID).PaymentStatus; got != models.StatusPending {
		t.Errorf("statut %s, attendu pending", got)
	}
}

func TestNowPaymentsWebhook_ExpiredMarksFailed(t *testing.T) {
	t.Setenv("NOWPAYMENTS_IPN_SECRET", "")
	r, orderID, fetch := newCryptoSetup(t)

	postIPN(r, ipnPayload(orderID, "expired"), "")
	if got := fetch(orderID).PaymentStatus; got != models.StatusFailed {
		t.Errorf("statut %s, attendu failed", got)
	}
}

func TestNowPaymentsWebhook_FailedNeverDowngradesPaid(t *testing.T) {
	t.Setenv("NOWPAYMENTS_IPN_SECRET", "")
	r, orderID, fetch := newCryptoSetup(t)

	postIPN(r, ipnPayload(orderID, "finished"), "")
	postIPN(r, ipnPayload(orderID, "failed"), "")

	if got := fetch(orderID).PaymentStatus; got != models.StatusPaid {
		t.Errorf("une commande payée ne doit pas être rétrogradée, statut %s", got)
	}
}

func TestNowPaymentsWebhook_MissingOrderID(t *testing.T) {
	t.Setenv("NOWPAYMENTS_IPN_SECRET", "")
	_, _, r := setupHandler(&mockProvider{}, &mockProvider{})

	resp := postIPN(r, []byte(`{"payment_status":"finished"}`), "")
	if resp.Code != http.StatusBadRequest {
		t.Errorf("statut %d, attendu 400 sans order_id", resp.Code)
	}
}

func TestNowPaymentsWebhook_SignatureRequired(t *testing.T) {
	t.Setenv("NOWPAYMENTS_IPN_SECRET", "secret-ipn")
	r, orderID, fetch := newCryptoSetup(t)

	payload := ipnPayload(orderID, "finished")

	// sans signature → refus
	if resp := postIPN(r, payload, ""); resp.Code != http.StatusUnauthorized {
		t.Errorf("statut %d, attendu 401 sans signature", resp.Code)
	}
	// signature fausse → refus
	if resp := postIPN(r, payload, "deadbeef"); resp.Code != http.StatusUnauthorized {
		t.Errorf("statut %d, attendu 401 pour signature fausse", resp.Code)
	}
	if got := fetch(orderID).PaymentStatus; got != models.StatusPending {
		t.Errorf("aucune transition ne doit s'appliquer, statut %s", got)
	}

	// signature valide → traité
	if resp := postIPN(r, payload, signIPNPayload(payload, "secret-ipn")); resp.Code != http.StatusOK {
		t.Errorf("statut %d, attendu 200 pour signature valide", resp.Code)
	}
	if got := fetch(orderID).PaymentStatus; got != models.StatusPaid {
		t.Errorf("statut %s, attendu paid", got)
	}
}

func TestNowPaymentsWebhook_UnknownOrderStillAcknowledged(t *testing.T) {
	t.Setenv("NOWPAYMENTS_IPN_SECRET", "")
	_, _, r := setupHandler(&mockProvider{}, &mockProvider{})

	resp := postIPN(r, ipnPayload("commande-inconnue", "finished"), "")
	if resp.Code != http.StatusOK {
		t.Errorf("statut %d, attendu 200 : on acquitte pour stopper les retries", resp.Code)
	}
}
