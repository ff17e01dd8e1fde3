package payement

import (
	"context"
	"errors"
	"log"
	"net/http"

	"antistock_back_end/internal/cache"
	"antistock_back_end/internal/models"
	"antistock_back_end/internal/orders"
	"antistock_back_end/internal/payment"
	"antistock_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// Handler regroupe les endpoints checkout, webhooks et statut.
// Les adaptateurs de paiement sont injectés pour rester testables.
type Handler struct {
	Svc    *orders.Service
	Card   payment.Provider
	Crypto payment.Provider

	// SendEmail permet aux tests de couper l'envoi SMTP
	SendEmail bool
}

func NewHandler(svc *orders.Service, card, crypto payment.Provider) *Handler {
	return &Handler{Svc: svc, Card: card, Crypto: crypto, SendEmail: true}
}

// writeProviderError traduit les erreurs adaptateur en réponse HTTP :
// config manquante → 500 (erreur opérateur, loggée fort),
// réponse prestataire non-2xx → on propage son statut quand il est exploitable.
func writeProviderError(c *gin.Context, err error) {
	if errors.Is(err, payment.ErrNotConfigured) {
		log.Printf("❌ Configuration paiement manquante: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Prestataire de paiement non configuré"})
		return
	}

	var upstream *payment.UpstreamError
	if errors.As(err, &upstream) {
		status := http.StatusInternalServerError
		if upstream.Status >= 400 && upstream.Status < 600 {
			status = upstream.Status
		}
		c.JSON(status, gin.H{"error": upstream.Message})
		return
	}

	log.Printf("❌ Erreur création paiement: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création paiement"})
}

// confirmOrder applique la transition paid et, si c'est la première,
// déclenche les effets de bord (cache + e-mail de confirmation).
func (h *Handler) confirmOrder(ctx context.Context, order *models.Order) error {
	applied, err := h.Svc.MarkPaid(ctx, order.ID)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	order.PaymentStatus = models.StatusPaid
	cache.StoreTerminalOrder(ctx, order)

	if h.SendEmail {
		recap := utils.GenerateOrderConfirmationHTML(order)
		email := order.Customer.Email
		go func() {
			if err := utils.SendConfirmationEmail(email, "Confirmation de votre commande AntiStock", recap); err != nil {
				log.Println("❌ Erreur envoi e-mail confirmation :", err)
			} else {
				log.Println("📧 E-mail de confirmation envoyé à", email)
			}
		}()
	}
	return nil
}
