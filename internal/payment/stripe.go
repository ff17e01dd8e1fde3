package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"antistock_back_end/internal/models"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
)

// StripeCheckout crée des sessions Stripe Checkout hébergées.
// La clé API globale est initialisée au démarrage (cmd/server).
type StripeCheckout struct {
	SiteURL string
}

func NewStripeCheckout(siteURL string) *StripeCheckout {
	return &StripeCheckout{SiteURL: siteURL}
}

func (s *StripeCheckout) CreateCheckout(ctx context.Context, order *models.Order) (*Checkout, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(order.Items))
	for _, item := range order.Items {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Image != "" {
			product.Images = stripe.StringSlice([]string{item.Image})
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String("usd"),
				ProductData: product,
				// Stripe attend des centimes
				UnitAmount: stripe.Int64(int64(math.Round(item.Price * 100))),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		ClientReferenceID:  stripe.String(order.ID),
		CustomerEmail:      stripe.String(order.Customer.Email),
		// {CHECKOUT_SESSION_ID} est substitué par Stripe à la redirection
		SuccessURL: stripe.String(fmt.Sprintf("%s/checkout/success?orderId=%s&session_id={CHECKOUT_SESSION_ID}", s.SiteURL, order.ID)),
		CancelURL:  stripe.String(s.SiteURL + "/checkout?canceled=true"),
	}
	params.Context = ctx
	params.AddMetadata("order_id", order.ID)

	sess, err := session.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			log.Printf("❌ Erreur Stripe: %v", stripeErr.Msg)
			return nil, &UpstreamError{Status: stripeErr.HTTPStatusCode, Message: stripeErr.Msg}
		}
		return nil, fmt.Errorf("création session Stripe: %w", err)
	}

	log.Printf("💳 Session Stripe créée: %s pour commande %s", sess.ID, order.ID)
	return &Checkout{ProviderRef: sess.ID, URL: sess.URL}, nil
}
