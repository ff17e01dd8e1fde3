package models

import "time"

// Statuts de paiement d'une commande
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusFailed  = "failed"
)

// Méthodes de paiement supportées
const (
	MethodCard   = "card"
	MethodCrypto = "crypto"
)

type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"unitPrice"`
	Image     string  `json:"image,omitempty"`
}

type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

// Order est l'entité centrale du cycle de vie de paiement.
// Le total est calculé une seule fois à la création, jamais recalculé ensuite.
type Order struct {
	ID              string      `json:"id"`
	Items           []OrderItem `json:"items"`
	Customer        Customer    `json:"customer"`
	Total           float64     `json:"total"`
	PaymentMethod   string      `json:"paymentMethod"`
	PaymentStatus   string      `json:"paymentStatus"`
	StripeSessionID string      `json:"stripeSessionId,omitempty"`
	InvoiceID       string      `json:"invoiceId,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// Terminal indique si la commande a atteint un état final (paid ou failed).
func (o *Order) Terminal() bool {
	return o.PaymentStatus == StatusPaid || o.PaymentStatus == StatusFailed
}
