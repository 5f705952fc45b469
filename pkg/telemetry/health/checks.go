package health

import (
	"context"
	"errors"
	"fmt"

	"mercator-hq/procurement/pkg/audit"
	"mercator-hq/procurement/pkg/budget/ledger"
	"mercator-hq/procurement/pkg/procurement"
)

// Component names registered by the server.
const (
	ComponentCatalog = "catalog"
	ComponentLedger  = "ledger"
	ComponentAudit   = "audit"
)

// ProductLister is the part of the catalog the readiness check needs.
type ProductLister interface {
	Products() []*procurement.Product
}

// CatalogCheck fails when the loaded catalog has no products.
func CatalogCheck(catalog ProductLister) CheckFunc {
	return func(ctx context.Context) error {
		if len(catalog.Products()) == 0 {
			return errors.New("catalog has no products")
		}
		return nil
	}
}

// LedgerCheck fails when the budget ledger cannot be read.
func LedgerCheck(l ledger.Ledger) CheckFunc {
	return func(ctx context.Context) error {
		if _, err := l.List(ctx); err != nil {
			return fmt.Errorf("ledger unavailable: %w", err)
		}
		return nil
	}
}

// AuditCheck fails when the audit store cannot be queried.
func AuditCheck(storage audit.Storage) CheckFunc {
	return func(ctx context.Context) error {
		if _, err := storage.Count(ctx, &audit.Query{}); err != nil {
			return fmt.Errorf("audit storage unavailable: %w", err)
		}
		return nil
	}
}
