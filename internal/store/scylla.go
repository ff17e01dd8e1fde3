package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"antistock_back_end/internal/models"

	"github.com/gocql/gocql"
)

// ScyllaStore persiste les commandes dans le keyspace orders.
// Les transitions de statut utilisent des LWT (IF payment_status = ?) pour
// garantir l'atomicité sous webhooks concurrents.
// Note: les tables doivent être créées manuellement via scripts/scylladb_init.cql
type ScyllaStore struct {
	session *gocql.Session
}

func NewScyllaStore(session *gocql.Session) *ScyllaStore {
	return &ScyllaStore{session: session}
}

func (s *ScyllaStore) Put(ctx context.Context, order *models.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("sérialisation items: %w", err)
	}
	customerJSON, err := json.Marshal(order.Customer)
	if err != nil {
		return fmt.Errorf("sérialisation client: %w", err)
	}

	return s.session.Query(`INSERT INTO orders (order_id, items, customer, total, payment_method, payment_status, stripe_session_id, invoice_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, string(itemsJSON), string(customerJSON), order.Total,
		order.PaymentMethod, order.PaymentStatus,
		order.StripeSessionID, order.InvoiceID, order.CreatedAt,
	).WithContext(ctx).Exec()
}

func (s *ScyllaStore) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var (
		itemsJSON, customerJSON string
		order                   models.Order
	)

	err := s.session.Query(`SELECT order_id, items, customer, total, payment_method, payment_status, stripe_session_id, invoice_id, created_at
		FROM orders WHERE order_id = ?`, id).WithContext(ctx).Scan(
		&order.ID, &itemsJSON, &customerJSON, &order.Total,
		&order.PaymentMethod, &order.PaymentStatus,
		&order.StripeSessionID, &order.InvoiceID, &order.CreatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(itemsJSON), &order.Items); err != nil {
		return nil, fmt.Errorf("désérialisation items: %w", err)
	}
	if err := json.Unmarshal([]byte(customerJSON), &order.Customer); err != nil {
		return nil, fmt.Errorf("désérialisation client: %w", err)
	}
	return &order, nil
}

func (s *ScyllaStore) GetByProviderRef(ctx context.Context, ref string) (*models.Order, error) {
	var orderID string
	err := s.session.Query(`SELECT order_id FROM orders_by_provider_ref WHERE provider_ref = ?`, ref).
		WithContext(ctx).Scan(&orderID)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, orderID)
}

func (s *ScyllaStore) AttachStripeSession(ctx context.Context, id, sessionID string) error {
	return s.attachRef(ctx, id, "stripe_session_id", sessionID)
}

func (s *ScyllaStore) AttachInvoiceID(ctx context.Context, id, invoiceID string) error {
	return s.attachRef(ctx, id, "invoice_id", invoiceID)
}

func (s *ScyllaStore) attachRef(ctx context.Context, id, column, ref string) error {
	applied, err := s.session.Query(
		fmt.Sprintf("UPDATE orders SET %s = ? WHERE order_id = ? IF EXISTS", column),
		ref, id,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrOrderNotFound
	}

	// Table de correspondance pour la résolution des webhooks
	return s.session.Query(`INSERT INTO orders_by_provider_ref (provider_ref, order_id) VALUES (?, ?)`,
		ref, id).WithContext(ctx).Exec()
}

func (s *ScyllaStore) CompareAndSetStatus(ctx context.Context, id, from, to string) (bool, string, error) {
	previous := map[string]interface{}{}
	applied, err := s.session.Query(
		`UPDATE orders SET payment_status = ? WHERE order_id = ? IF payment_status = ?`,
		to, id, from,
	).WithContext(ctx).MapScanCAS(previous)
	if err != nil {
		return false, "", err
	}
	if applied {
		return true, to, nil
	}

	current, ok := previous["payment_status"].(string)
	if !ok || current == "" {
		// le LWT sur une ligne absente répond non-appliqué sans colonnes
		return false, "", ErrOrderNotFound
	}
	return false, current, nil
}
