// Package repositories declares the read-only interfaces the BOM
// engine, aggregator, and orchestrator depend on. Two implementations
// exist: internal/infrastructure/inventree (the real REST-backed DAL)
// and internal/infrastructure/memory (an in-memory fixture used by
// tests).
package repositories

import (
	"context"

	"github.com/vsinha/mrp/internal/domain/entities"
)

// PartRepository resolves part metadata and bom lines.
type PartRepository interface {
	// GetPartMeta returns the metadata for one part. It returns
	// errors.NewNotFoundError-compatible nil,nil when the id is not
	// resolvable so the caller (the orchestrator or the BOM engine) can decide how to
	// convert that into a fatal error; transport failures are
	// returned as a non-nil error instead.
	GetPartMeta(ctx context.Context, id entities.PartId) (*entities.PartMeta, error)

	// GetBomLines returns the parent's bill of materials, or an empty
	// slice (never an error) when the parent is not an assembly.
	GetBomLines(ctx context.Context, parentId entities.PartId) ([]entities.BomLine, error)

	// ListAssembliesInCategory returns the id/name pairs of assemblies
	// in one category, used by the CLI's list-assemblies subcommand.
	ListAssembliesInCategory(ctx context.Context, categoryId int64) ([]entities.PartMeta, error)
}

// DemandRepository resolves externally committed demand.
type DemandRepository interface {
	GetExternalRequired(ctx context.Context, ids []entities.PartId) (map[entities.PartId]entities.ExternalRequired, error)
}

// OrderRepository resolves in-flight purchase and manufacturing
// orders.
type OrderRepository interface {
	GetOpenOrders(ctx context.Context, ids []entities.PartId) (map[entities.PartId]entities.OpenOrders, error)
}

// SupplierRepository resolves the display-only supplier and
// manufacturer associations used by the aggregator's exclusion
// filters. Failures here degrade to an empty result plus a
// diagnostic rather than aborting the run (spec §4.1, "used only by
// the Aggregator's display filter").
type SupplierRepository interface {
	GetSupplierNames(ctx context.Context, ids []entities.PartId) (map[entities.PartId]map[string]struct{}, error)
	GetManufacturerNames(ctx context.Context, ids []entities.PartId) (map[entities.PartId]string, error)
}

// DataAccessLayer is the full capability bundle the orchestrator
// wires into the BOM engine and aggregator. Implementations must be
// safe to call from multiple parallel contexts and must memoize
// within one run (spec §4.1/§5).
type DataAccessLayer interface {
	PartRepository
	DemandRepository
	OrderRepository
	SupplierRepository
}
