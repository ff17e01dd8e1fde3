package payment

import (
	"context"
	"errors"
	"fmt"

	"antistock_back_end/internal/models"
)

// ErrNotConfigured signale des identifiants prestataire absents.
// C'est une erreur opérateur, les handlers la remontent en 500 et la loggent fort.
var ErrNotConfigured = errors.New("prestataire de paiement non configuré")

// UpstreamError porte la réponse non-2xx d'un prestataire.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("erreur prestataire (%d): %s", e.Status, e.Message)
}

// Checkout est le résultat d'une création de session de paiement hébergée.
type Checkout struct {
	ProviderRef string // session Stripe ou id de facture NOWPayments
	URL         string
}

// Provider crée une session de paiement hébergée pour une commande.
// Les adaptateurs sont purs : la mutation de la commande (attache de la
// référence prestataire) reste à la charge de l'appelant.
type Provider interface {
	CreateCheckout(ctx context.Context, order *models.Order) (*Checkout, error)
}
