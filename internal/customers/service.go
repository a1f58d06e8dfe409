package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Service exposes customer resolution and lookup.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolution is the result of resolving an identity at checkout.
type Resolution struct {
	Customer *Customer
	IsNew    bool
}

// Resolve finds the customer for (store, phone), creating one on
// first contact. The IsNew flag is captured here, before any point
// mutation, because it later gates the welcome notification.
func (s *Service) Resolve(ctx context.Context, storeID int64, phone, name string) (*Resolution, error) {
	phone = NormalizePhone(phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}

	existing, err := s.repo.GetByPhone(ctx, storeID, phone)
	if err == nil {
		return &Resolution{Customer: existing, IsNew: false}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}

	customer := Customer{StoreID: storeID, Phone: phone, Name: strings.TrimSpace(name)}
	id, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	customer.ID = id
	return &Resolution{Customer: &customer, IsNew: true}, nil
}

// Get loads one customer scoped to a store.
func (s *Service) Get(ctx context.Context, storeID, id int64) (*Customer, error) {
	return s.repo.Get(ctx, storeID, id)
}

// GetByPhone loads a customer by phone.
func (s *Service) GetByPhone(ctx context.Context, storeID int64, phone string) (*Customer, error) {
	return s.repo.GetByPhone(ctx, storeID, NormalizePhone(phone))
}

// Search lists customers matching a free-text phone/name query.
func (s *Service) Search(ctx context.Context, storeID int64, query string, limit int) ([]Customer, error) {
	return s.repo.Search(ctx, storeID, strings.TrimSpace(query), limit)
}

// NormalizePhone strips spacing and dashes so the same number always
// hits the same (store_id, phone) row.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
