package payement

import (
	"errors"
	"net/http"

	"antistock_back_end/internal/cache"
	"antistock_back_end/internal/models"
	"antistock_back_end/internal/orders"

	"github.com/gin-gonic/gin"
)

// GetOrderStatus est l'endpoint sondé par le client après redirection
// (3s d'intervalle, 20 tentatives côté front). Lecture seule.
func (h *Handler) GetOrderStatus(c *gin.Context) {
	orderID := c.Query("orderId")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId requis"})
		return
	}

	if order, ok := cache.GetOrderView(c.Request.Context(), orderID); ok {
		c.JSON(http.StatusOK, gin.H{"order": orderView(order)})
		return
	}

	order, err := h.Svc.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commande"})
		return
	}

	// Un état terminal ne change plus : cacheable pour absorber le polling
	cache.StoreTerminalOrder(c.Request.Context(), order)

	c.JSON(http.StatusOK, gin.H{"order": orderView(order)})
}

// orderView limite la réponse aux champs utiles au client : les références
// prestataire restent internes.
func orderView(order *models.Order) gin.H {
	return gin.H{
		"id":            order.ID,
		"paymentStatus": order.PaymentStatus,
		"total":         order.Total,
		"items":         order.Items,
		"customer":      order.Customer,
		"paymentMethod": order.PaymentMethod,
		"createdAt":     order.CreatedAt,
	}
}
