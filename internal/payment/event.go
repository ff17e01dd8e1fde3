package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v83"
)

// EventKind classe un callback prestataire dans le vocabulaire interne.
// Le service de commandes ne voit jamais les statuts propres à un prestataire.
type EventKind int

const (
	// PaymentConfirmed : paiement encaissé, la commande doit passer à paid.
	PaymentConfirmed EventKind = iota + 1
	// PaymentFailed : échec terminal côté prestataire (failed, expired, refunded).
	PaymentFailed
	// PaymentInProgress : statut intermédiaire, rien à appliquer.
	PaymentInProgress
)

// ErrMissingOrderRef : le callback ne porte aucun identifiant exploitable.
var ErrMissingOrderRef = errors.New("callback sans order_id")

type Event struct {
	Kind           EventKind
	OrderRef       string // notre order id, si le prestataire le porte
	ProviderRef    string // identifiant natif du prestataire
	ProviderStatus string
}

// ParseStripeEvent ne retient que checkout.session.completed ; tout autre
// type d'événement est acquitté sans action (ok = false).
func ParseStripeEvent(event stripe.Event) (Event, bool, error) {
	if event.Type != "checkout.session.completed" {
		return Event{}, false, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return Event{}, false, fmt.Errorf("décodage session Stripe: %w", err)
	}

	orderRef := sess.ClientReferenceID
	if orderRef == "" {
		orderRef = sess.Metadata["order_id"]
	}

	return Event{
		Kind:           PaymentConfirmed,
		OrderRef:       orderRef,
		ProviderRef:    sess.ID,
		ProviderStatus: string(event.Type),
	}, true, nil
}

type nowPaymentsIPN struct {
	OrderID       string      `json:"order_id"`
	PaymentStatus string      `json:"payment_status"`
	InvoiceID     json.Number `json:"invoice_id"`
}

// Statuts NOWPayments: waiting, confirming, confirmed, sending,
// partially_paid, finished, failed, refunded, expired.
func ParseNowPaymentsIPN(body []byte) (Event, error) {
	var ipn nowPaymentsIPN
	if err := json.Unmarshal(body, &ipn); err != nil {
		return Event{}, fmt.Errorf("payload IPN illisible: %w", err)
	}
	if ipn.OrderID == "" {
		return Event{}, ErrMissingOrderRef
	}

	event := Event{
		OrderRef:       ipn.OrderID,
		ProviderRef:    ipn.InvoiceID.String(),
		ProviderStatus: ipn.PaymentStatus,
	}

	switch ipn.PaymentStatus {
	case "finished", "confirmed":
		event.Kind = PaymentConfirmed
	case "failed", "expired", "refunded":
		event.Kind = PaymentFailed
	default:
		event.Kind = PaymentInProgress
	}
	return event, nil
}
