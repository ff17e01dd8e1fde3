package payement

import (
	"errors"
	"log"
	"net/http"

	"antistock_back_end/internal/middleware"
	"antistock_back_end/internal/models"
	"antistock_back_end/internal/orders"
	"antistock_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

type checkoutRequest struct {
	Items    []models.OrderItem `json:"items"`
	Customer models.Customer    `json:"customer"`
}

// CheckoutCard crée une commande pending puis une session Stripe Checkout.
// La commande est persistée AVANT l'appel réseau : un crash entre les deux
// laisse une commande pending sans référence, visible des opérateurs,
// jamais un verrou tenu pendant l'I/O.
func (h *Handler) CheckoutCard(c *gin.Context) {
	ok := false
	defer func() { middleware.RecordCheckout(models.MethodCard, ok) }()

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	order, err := h.Svc.CreateOrder(c.Request.Context(), req.Items, req.Customer, models.MethodCard)
	if err != nil {
		if errors.Is(err, orders.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("❌ Erreur création commande: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création commande"})
		return
	}

	checkout, err := h.Card.CreateCheckout(c.Request.Context(), order)
	if err != nil {
		writeProviderError(c, err)
		return
	}

	// Référence attachée avant de rendre l'URL au client, pour que le
	// webhook puisse résoudre la commande par session id
	if err := h.Svc.AttachStripeSession(c.Request.Context(), order.ID, checkout.ProviderRef); err != nil {
		log.Printf("❌ Erreur attache session Stripe: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement session"})
		return
	}

	ok = true
	c.JSON(http.StatusOK, gin.H{
		"orderId":     order.ID,
		"checkoutUrl": checkout.URL,
	})
}

// CheckoutCrypto crée une commande pending puis une facture NOWPayments.
func (h *Handler) CheckoutCrypto(c *gin.Context) {
	ok := false
	defer func() { middleware.RecordCheckout(models.MethodCrypto, ok) }()

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	order, err := h.Svc.CreateOrder(c.Request.Context(), req.Items, req.Customer, models.MethodCrypto)
	if err != nil {
		if errors.Is(err, orders.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("❌ Erreur création commande: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création commande"})
		return
	}

	checkout, err := h.Crypto.CreateCheckout(c.Request.Context(), order)
	if err != nil {
		writeProviderError(c, err)
		return
	}

	// Best-effort : l'invoice_url suffit au client, l'id de facture ne sert
	// qu'à la résolution des IPN qui ne porteraient pas notre order_id
	if checkout.ProviderRef != "" {
		if err := h.Svc.AttachInvoiceID(c.Request.Context(), order.ID, checkout.ProviderRef); err != nil {
			log.Printf("⚠️ Attache facture NOWPayments échouée pour %s: %v", order.ID, err)
		}
	}

	response := gin.H{
		"orderId":     order.ID,
		"checkoutUrl": checkout.URL,
	}
	if qr, err := utils.CheckoutQR(checkout.URL); err == nil {
		response["qrCode"] = qr
	}

	ok = true
	c.JSON(http.StatusOK, response)
}
