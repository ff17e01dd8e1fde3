package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"antistock_back_end/internal/models"
	"antistock_back_end/internal/store"

	"github.com/google/uuid"
)

// ErrValidation couvre toutes les entrées client invalides (panier vide,
// quantité nulle, e-mail malformé...). Les handlers le traduisent en 400.
var ErrValidation = errors.New("données invalides")

// ErrNotFound est l'alias exposé aux handlers pour une commande inconnue.
var ErrNotFound = store.ErrOrderNotFound

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Service sérialise toutes les mutations du cycle de vie d'une commande.
// C'est le seul composant autorisé à écrire dans le store.
type Service struct {
	store store.OrderStore
}

func NewService(s store.OrderStore) *Service {
	return &Service{store: s}
}

// CreateOrder valide le panier et le client, calcule le total et persiste la
// commande en statut pending. Le total n'est jamais recalculé ensuite.
func (s *Service) CreateOrder(ctx context.Context, items []models.OrderItem, customer models.Customer, method string) (*models.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: le panier est vide", ErrValidation)
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantité invalide pour %q", ErrValidation, item.Name)
		}
		if item.Price < 0 {
			return nil, fmt.Errorf("%w: prix négatif pour %q", ErrValidation, item.Name)
		}
	}
	if err := validateCustomer(customer); err != nil {
		return nil, err
	}
	if method != models.MethodCard && method != models.MethodCrypto {
		return nil, fmt.Errorf("%w: méthode de paiement inconnue %q", ErrValidation, method)
	}

	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}

	order := &models.Order{
		ID:            uuid.NewString(),
		Items:         items,
		Customer:      customer,
		Total:         total,
		PaymentMethod: method,
		PaymentStatus: models.StatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.store.Put(ctx, order); err != nil {
		return nil, fmt.Errorf("persistance commande: %w", err)
	}

	log.Printf("🧾 Commande créée: %s (%.2f$ — %d article(s), %s)", order.ID, order.Total, len(order.Items), method)
	return order, nil
}

func validateCustomer(c models.Customer) error {
	fields := map[string]string{
		"name":    c.Name,
		"email":   c.Email,
		"address": c.Address,
		"city":    c.City,
		"state":   c.State,
		"zip":     c.Zip,
	}
	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("%w: champ client %q manquant", ErrValidation, name)
		}
	}
	if !emailPattern.MatchString(c.Email) {
		return fmt.Errorf("%w: e-mail malformé", ErrValidation)
	}
	return nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.store.GetByID(ctx, id)
}

// FindByProviderRef résout une commande via l'identifiant du prestataire,
// pour les webhooks qui ne portent pas notre order id.
func (s *Service) FindByProviderRef(ctx context.Context, ref string) (*models.Order, error) {
	return s.store.GetByProviderRef(ctx, ref)
}

func (s *Service) AttachStripeSession(ctx context.Context, id, sessionID string) error {
	return s.store.AttachStripeSession(ctx, id, sessionID)
}

func (s *Service) AttachInvoiceID(ctx context.Context, id, invoiceID string) error {
	return s.store.AttachInvoiceID(ctx, id, invoiceID)
}

// MarkPaid applique pending→paid. Renvoie true seulement pour la première
// transition, ce qui permet aux appelants de n'exécuter leurs effets de bord
// (e-mail de confirmation...) qu'une seule fois malgré les relivraisons.
func (s *Service) MarkPaid(ctx context.Context, id string) (bool, error) {
	return s.transition(ctx, id, models.StatusPaid)
}

// MarkFailed applique pending→failed, avec la même idempotence que MarkPaid.
// Une commande déjà payée n'est jamais rétrogradée.
func (s *Service) MarkFailed(ctx context.Context, id string) (bool, error) {
	return s.transition(ctx, id, models.StatusFailed)
}

func (s *Service) transition(ctx context.Context, id, target string) (bool, error) {
	applied, current, err := s.store.CompareAndSetStatus(ctx, id, models.StatusPending, target)
	if errors.Is(err, store.ErrOrderNotFound) {
		// Webhook pour une commande inconnue : anomalie de réconciliation,
		// on n'en fait pas une erreur pour ne pas déclencher les retries.
		log.Printf("⚠️ Anomalie: transition %s demandée pour commande inconnue %s", target, id)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("transition %s: %w", target, err)
	}

	if applied {
		log.Printf("💰 Commande %s → %s", id, target)
		return true, nil
	}

	if current == target {
		// Relivraison du même événement : no-op idempotent
		log.Printf("🔁 Commande %s déjà %s, webhook ignoré", id, target)
		return false, nil
	}

	// État terminal concurrent : premier arrivé gagne, on ne réécrit pas.
	log.Printf("⚠️ Anomalie: commande %s est %s, transition %s rejetée", id, current, target)
	return false, nil
}
