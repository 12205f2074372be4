package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("duplicate record")
	ErrUsageLimitReached = errors.New("discount usage limit reached")
)

// Store groups the repositories of one storage backend. Repositories obtained
// from the tx argument of Transaction share that transaction.
type Store interface {
	Orders() OrderRepository
	Discounts() DiscountRepository
	Catalog() CatalogRepository
	Inventory() InventoryRepository
	CashSessions() CashSessionRepository
	Outbox() OutboxRepository

	// Transaction runs fn atomically. Any error returned by fn, or a
	// cancelled ctx, rolls back every write made through tx.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GormStore is the PostgreSQL-backed Store.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store over db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Orders() OrderRepository             { return NewGormOrderRepository(s.db) }
func (s *GormStore) Discounts() DiscountRepository       { return NewGormDiscountRepository(s.db) }
func (s *GormStore) Catalog() CatalogRepository          { return NewGormCatalogRepository(s.db) }
func (s *GormStore) Inventory() InventoryRepository      { return NewGormInventoryRepository(s.db) }
func (s *GormStore) CashSessions() CashSessionRepository { return NewGormCashSessionRepository(s.db) }
func (s *GormStore) Outbox() OutboxRepository            { return NewGormOutboxRepository(s.db) }

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// translate maps gorm sentinel errors onto the repository's own.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

// offset converts a 1-based page into a row offset.
func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
