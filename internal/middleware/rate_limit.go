package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"antistock_back_end/internal/database"

	"github.com/gin-gonic/gin"
)

const (
	// Limites par endpoint
	CheckoutMaxAttempts = 10
	CheckoutCooldown    = 10 * time.Minute
	CheckoutWindow      = 1 * time.Minute
)

// CheckoutRateLimit limite les créations de commande par adresse IP.
// Sans Redis configuré, la limite est désactivée.
func CheckoutRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if database.Redis == nil {
			c.Next()
			return
		}

		ctx := context.Background()
		ip := c.ClientIP()
		key := "checkout_attempts:" + ip
		cooldownKey := "checkout_cooldown:" + ip

		// Vérifier si l'IP est en cooldown
		if database.Redis.Exists(ctx, cooldownKey).Val() > 0 {
			ttl := database.Redis.TTL(ctx, cooldownKey).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives. Réessayez dans %d minutes", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		attempts, _ := database.Redis.Get(ctx, key).Int()
		if attempts >= CheckoutMaxAttempts {
			// Activer le cooldown
			database.Redis.Set(ctx, cooldownKey, "1", CheckoutCooldown)
			database.Redis.Del(ctx, key)

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives. Bloqué pendant %d minutes", int(CheckoutCooldown.Minutes())),
				"retry_after": int(CheckoutCooldown.Seconds()),
			})
			c.Abort()
			return
		}

		database.Redis.Incr(ctx, key)
		database.Redis.Expire(ctx, key, CheckoutWindow)

		c.Next()
	}
}
