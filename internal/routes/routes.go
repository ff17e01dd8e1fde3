package routes

import (
	"net/http"

	"antistock_back_end/internal/handlers/payement"
	"antistock_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(r *gin.Engine, h *payement.Handler) {
	r.Use(middleware.Monitoring())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	checkout := api.Group("/checkout")
	checkout.POST("/card", middleware.CheckoutRateLimit(), h.CheckoutCard)
	checkout.POST("/crypto", middleware.CheckoutRateLimit(), h.CheckoutCrypto)
	checkout.GET("/order-status", h.GetOrderStatus)

	// Webhooks : body brut, aucun middleware de parsing en amont
	webhooks := api.Group("/webhooks")
	webhooks.POST("/stripe", h.StripeWebhook)
	webhooks.POST("/nowpayments", h.NowPaymentsWebhook)
}
