package main

import (
	"context"
	"log"
	"os"

	"antistock_back_end/internal/config"
	"antistock_back_end/internal/database"
	"antistock_back_end/internal/handlers/payement"
	"antistock_back_end/internal/orders"
	"antistock_back_end/internal/payment"
	"antistock_back_end/internal/routes"
	"antistock_back_end/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
)

func main() {
	config.Load()

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	if stripe.Key == "" {
		log.Fatal("❌ Impossible d'initialiser Stripe : clé manquante")
	}
	log.Println("✅ Stripe initialisé")

	if os.Getenv("STRIPE_WEBHOOK_SECRET") == "" {
		log.Println("⚠️ STRIPE_WEBHOOK_SECRET absent — les webhooks Stripe seront refusés")
	}
	if os.Getenv("NOWPAYMENTS_IPN_SECRET") == "" {
		log.Println("⚠️ NOWPAYMENTS_IPN_SECRET absent — les IPN NOWPayments NE SERONT PAS vérifiés (à ne jamais déployer en production)")
	}

	database.ConnectRedis(context.Background())

	orderStore := selectOrderStore()
	svc := orders.NewService(orderStore)

	siteURL := os.Getenv("SITE_URL")
	if siteURL == "" {
		siteURL = "http://localhost:8080"
	}

	handler := payement.NewHandler(
		svc,
		payment.NewStripeCheckout(siteURL),
		payment.NewNowPayments(os.Getenv("NOWPAYMENTS_API_KEY"), siteURL),
	)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "stripe-signature", "x-nowpayments-sig"},
	}))
	routes.RegisterRoutes(r, handler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur AntiStock lancé sur le port", port)
	r.Run(":" + port)
}

// selectOrderStore choisit le backend de persistance des commandes.
// Sans ScyllaDB configuré on retombe sur la map mémoire — les commandes
// sont alors perdues au redémarrage, on le dit clairement au boot.
func selectOrderStore() store.OrderStore {
	if os.Getenv("SCYLLA_HOSTS") == "" {
		log.Println("⚠️ SCYLLA_HOSTS absent — store mémoire (commandes perdues au redémarrage, mode dev uniquement)")
		return store.NewMemoryStore()
	}

	session, err := database.ConnectOrdersSession()
	if err != nil {
		log.Fatalf("❌ Échec initialisation ScyllaDB: %v", err)
	}
	return store.NewScyllaStore(session)
}
