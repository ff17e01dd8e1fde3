package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"antistock_back_end/internal/models"
)

const nowPaymentsAPI = "https://api.nowpayments.io"

// NowPayments crée des factures crypto via l'API NOWPayments.
// Pas de SDK Go officiel : client HTTP nu avec timeout borné.
type NowPayments struct {
	APIKey  string
	BaseURL string
	SiteURL string
	client  *http.Client
}

func NewNowPayments(apiKey, siteURL string) *NowPayments {
	return &NowPayments{
		APIKey:  apiKey,
		BaseURL: nowPaymentsAPI,
		SiteURL: siteURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type invoiceRequest struct {
	PriceAmount      float64 `json:"price_amount"`
	PriceCurrency    string  `json:"price_currency"`
	OrderID          string  `json:"order_id"`
	OrderDescription string  `json:"order_description"`
	IPNCallbackURL   string  `json:"ipn_callback_url"`
	SuccessURL       string  `json:"success_url"`
	CancelURL        string  `json:"cancel_url"`
}

type invoiceResponse struct {
	ID         json.Number `json:"id"`
	InvoiceURL string      `json:"invoice_url"`
	Message    string      `json:"message"`
}

func (n *NowPayments) CreateCheckout(ctx context.Context, order *models.Order) (*Checkout, error) {
	// Vérifié avant tout appel réseau : clé absente = erreur opérateur
	if n.APIKey == "" {
		return nil, fmt.Errorf("%w: NOWPAYMENTS_API_KEY manquante", ErrNotConfigured)
	}

	payload, err := json.Marshal(invoiceRequest{
		PriceAmount:      order.Total,
		PriceCurrency:    "usd",
		OrderID:          order.ID,
		OrderDescription: fmt.Sprintf("Commande %s - %d article(s)", order.ID, len(order.Items)),
		IPNCallbackURL:   n.SiteURL + "/api/webhooks/nowpayments",
		SuccessURL:       n.SiteURL + "/checkout/success?orderId=" + order.ID,
		CancelURL:        n.SiteURL + "/checkout?canceled=true",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.BaseURL+"/v1/invoice", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", n.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("appel NOWPayments: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("lecture réponse NOWPayments: %w", err)
	}

	// Le statut HTTP prime : une passerelle peut renvoyer du HTML sur un 502,
	// le message JSON n'est décodé qu'en best-effort.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := "erreur API NOWPayments"
		var errBody invoiceResponse
		if json.Unmarshal(raw, &errBody) == nil && errBody.Message != "" {
			message = errBody.Message
		}
		log.Printf("❌ Erreur NOWPayments (%d): %s", resp.StatusCode, message)
		return nil, &UpstreamError{Status: resp.StatusCode, Message: message}
	}

	var body invoiceResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("réponse NOWPayments illisible: %w", err)
	}

	// invoice_url est la seule chose dont le client a réellement besoin ;
	// l'id de facture est attaché en best-effort par l'appelant.
	if body.InvoiceURL == "" {
		return nil, &UpstreamError{Status: http.StatusInternalServerError, Message: "réponse NOWPayments sans invoice_url"}
	}

	log.Printf("🪙 Facture NOWPayments créée pour commande %s: %s", order.ID, body.InvoiceURL)
	return &Checkout{ProviderRef: body.ID.String(), URL: body.InvoiceURL}, nil
}
