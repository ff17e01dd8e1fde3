package payement

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"antistock_back_end/internal/database"
	"antistock_back_end/internal/middleware"
	"antistock_back_end/internal/models"
	"antistock_back_end/internal/orders"
	"antistock_back_end/internal/payment"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83/webhook"
)

// ✅ Webhook Stripe
// Le body brut est indispensable : la vérification de signature porte sur les
// octets exacts, ce chemin ne doit passer par aucun middleware de parsing JSON.
func (h *Handler) StripeWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if secret == "" {
		log.Println("❌ STRIPE_WEBHOOK_SECRET non configuré — webhook refusé")
		middleware.RecordWebhook("stripe", "rejected")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook secret non configuré"})
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), secret)
	if err != nil {
		log.Println("❌ Signature Stripe invalide:", err)
		middleware.RecordWebhook("stripe", "rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
		return
	}

	log.Printf("📥 Événement Stripe reçu : %s (%s)", event.Type, event.ID)

	// Dedup des relivraisons par id d'événement. La clé est relâchée si le
	// traitement échoue, pour que le retry Stripe puisse retenter la transition.
	dedupKey := ""
	if database.Redis != nil && event.ID != "" {
		dedupKey = "stripe_event:" + event.ID
		fresh, err := database.Redis.SetNX(context.Background(), dedupKey, 1, 24*time.Hour).Result()
		if err == nil && !fresh {
			log.Printf("🔁 Événement %s déjà traité, on acquitte", event.ID)
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
	}

	evt, actionable, err := payment.ParseStripeEvent(event)
	if err != nil {
		// signature valide mais payload inattendu : anomalie loggée,
		// acquittée pour ne pas déclencher le retry storm de Stripe
		log.Printf("⚠️ Anomalie webhook Stripe: %v", err)
		middleware.RecordWebhook("stripe", "anomaly")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if !actionable {
		log.Printf("ℹ️ Événement ignoré : %s", event.Type)
		middleware.RecordWebhook("stripe", "ignored")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	order := h.resolveOrder(c.Request.Context(), evt)
	if order == nil {
		log.Printf("⚠️ Anomalie: aucune commande pour session %s (ref %q)", evt.ProviderRef, evt.OrderRef)
		middleware.RecordWebhook("stripe", "anomaly")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.confirmOrder(c.Request.Context(), order); err != nil {
		log.Printf("❌ Erreur transition commande %s: %v", order.ID, err)
		if dedupKey != "" {
			// sans ça, le retry Stripe tomberait sur la clé de dedup et la
			// confirmation serait perdue pendant 24h
			if delErr := database.Redis.Del(context.Background(), dedupKey).Err(); delErr != nil {
				log.Printf("⚠️ Libération clé dedup %s échouée: %v", dedupKey, delErr)
			}
		}
		middleware.RecordWebhook("stripe", "anomaly")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur traitement webhook"})
		return
	}

	middleware.RecordWebhook("stripe", "paid")
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// resolveOrder privilégie notre order id embarqué, puis retombe sur
// l'identifiant natif du prestataire.
func (h *Handler) resolveOrder(ctx context.Context, evt payment.Event) *models.Order {
	if evt.OrderRef != "" {
		order, err := h.Svc.GetOrder(ctx, evt.OrderRef)
		if err == nil {
			return order
		}
		if !errors.Is(err, orders.ErrNotFound) {
			log.Printf("❌ Erreur lookup commande %s: %v", evt.OrderRef, err)
			return nil
		}
	}
	if evt.ProviderRef != "" {
		order, err := h.Svc.FindByProviderRef(ctx, evt.ProviderRef)
		if err == nil {
			return order
		}
	}
	return nil
}
