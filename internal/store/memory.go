package store

import (
	"context"
	"sync"

	"antistock_back_end/internal/models"
)

// MemoryStore garde les commandes dans une map process-locale.
// ⚠️ Tout est perdu au redémarrage : réservé aux tests et au mode dev
// (le serveur log un avertissement explicite quand il tourne dessus).
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
	byRef  map[string]string // provider ref → order id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]*models.Order),
		byRef:  make(map[string]string),
	}
}

func (s *MemoryStore) Put(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *order
	s.orders[order.ID] = &cp
	if cp.StripeSessionID != "" {
		s.byRef[cp.StripeSessionID] = cp.ID
	}
	if cp.InvoiceID != "" {
		s.byRef[cp.InvoiceID] = cp.ID
	}
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (s *MemoryStore) GetByProviderRef(_ context.Context, ref string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byRef[ref]
	if !ok {
		return nil, ErrOrderNotFound
	}
	order, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (s *MemoryStore) AttachStripeSession(_ context.Context, id, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	order.StripeSessionID = sessionID
	s.byRef[sessionID] = id
	return nil
}

func (s *MemoryStore) AttachInvoiceID(_ context.Context, id, invoiceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	order.InvoiceID = invoiceID
	s.byRef[invoiceID] = id
	return nil
}

func (s *MemoryStore) CompareAndSetStatus(_ context.Context, id, from, to string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return false, "", ErrOrderNotFound
	}
	if order.PaymentStatus != from {
		return false, order.PaymentStatus, nil
	}
	order.PaymentStatus = to
	return true, to, nil
}
