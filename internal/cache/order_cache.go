package cache

import (
	"context"
	"encoding/json"
	"time"

	"antistock_back_end/internal/database"
	"antistock_back_end/internal/models"
)

// Le client sonde le statut toutes les 3 secondes : on ne met en cache que
// les commandes en état terminal, qui ne peuvent plus changer.
const OrderViewTTL = 5 * time.Minute

// GetOrderView récupère une vue de commande terminale depuis Redis.
func GetOrderView(ctx context.Context, orderID string) (*models.Order, bool) {
	if database.Redis == nil {
		return nil, false
	}

	data, err := database.Redis.Get(ctx, "order_view:"+orderID).Result()
	if err != nil {
		return nil, false
	}

	var order models.Order
	if json.Unmarshal([]byte(data), &order) != nil {
		return nil, false
	}
	return &order, true
}

// StoreTerminalOrder met en cache une commande payée ou échouée.
// No-op pour les commandes encore pending.
func StoreTerminalOrder(ctx context.Context, order *models.Order) {
	if database.Redis == nil || !order.Terminal() {
		return
	}

	data, err := json.Marshal(order)
	if err != nil {
		return
	}
	database.Redis.Set(ctx, "order_view:"+order.ID, data, OrderViewTTL)
}
