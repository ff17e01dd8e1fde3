package store

import (
	"context"
	"errors"

	"antistock_back_end/internal/models"
)

// ErrOrderNotFound est renvoyé quand aucune commande ne correspond à l'identifiant.
var ErrOrderNotFound = errors.New("commande introuvable")

// OrderStore est la capacité de stockage injectée dans le service de commandes.
// Les transitions de statut passent par CompareAndSetStatus pour rester
// atomiques même sous livraisons de webhooks concurrentes.
type OrderStore interface {
	Put(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)

	// GetByProviderRef résout une commande via l'identifiant du prestataire
	// (session Stripe ou facture NOWPayments).
	GetByProviderRef(ctx context.Context, ref string) (*models.Order, error)

	// AttachStripeSession / AttachInvoiceID sont idempotents et renvoient
	// ErrOrderNotFound si la commande n'existe pas.
	AttachStripeSession(ctx context.Context, id, sessionID string) error
	AttachInvoiceID(ctx context.Context, id, invoiceID string) error

	// CompareAndSetStatus applique la transition from→to seulement si le
	// statut courant vaut from. Renvoie (applied, statut courant, erreur).
	CompareAndSetStatus(ctx context.Context, id, from, to string) (bool, string, error)
}
