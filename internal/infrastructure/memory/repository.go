// Package memory implements the repositories.DataAccessLayer
// interfaces entirely in-process, for use by tests and by the
// teacher-style fixture helpers under the application packages' own
// _test.go files. It does no memoization of its own since there is no
// network round-trip to save.
package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrp/internal/domain/entities"
)

// Repository is a hand-populated fixture: a fully in-memory inventory
// snapshot against which the BOM engine and orchestrator can be
// exercised without a REST server.
type Repository struct {
	Parts             map[entities.PartId]entities.PartMeta
	Boms              map[entities.PartId][]entities.BomLine
	ExternalRequired  map[entities.PartId]entities.ExternalRequired
	OpenOrders        map[entities.PartId]entities.OpenOrders
	SupplierNames     map[entities.PartId]map[string]struct{}
	ManufacturerNames map[entities.PartId]string
	Categories        map[int64][]entities.PartId
}

// New returns an empty fixture ready for population via the Add*
// helpers.
func New() *Repository {
	return &Repository{
		Parts:             make(map[entities.PartId]entities.PartMeta),
		Boms:              make(map[entities.PartId][]entities.BomLine),
		ExternalRequired:  make(map[entities.PartId]entities.ExternalRequired),
		OpenOrders:        make(map[entities.PartId]entities.OpenOrders),
		SupplierNames:     make(map[entities.PartId]map[string]struct{}),
		ManufacturerNames: make(map[entities.PartId]string),
		Categories:        make(map[int64][]entities.PartId),
	}
}

// AddPart registers a part's metadata.
func (r *Repository) AddPart(m entities.PartMeta) {
	r.Parts[m.Id] = m
}

// AddBomLine appends one BOM line to its parent's bill of materials.
func (r *Repository) AddBomLine(line entities.BomLine) {
	r.Boms[line.ParentId] = append(r.Boms[line.ParentId], line)
}

// SetExternalRequired records externally committed demand for a part.
func (r *Repository) SetExternalRequired(id entities.PartId, required decimal.Decimal) {
	r.ExternalRequired[id] = entities.ExternalRequired{Required: required}
}

// SetOpenOrders records open purchase/build order quantities for a
// part.
func (r *Repository) SetOpenOrders(id entities.PartId, orders entities.OpenOrders) {
	r.OpenOrders[id] = orders
}

func (r *Repository) GetPartMeta(_ context.Context, id entities.PartId) (*entities.PartMeta, error) {
	m, ok := r.Parts[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *Repository) GetBomLines(_ context.Context, parentId entities.PartId) ([]entities.BomLine, error) {
	m, ok := r.Parts[parentId]
	if !ok || !m.IsAssembly {
		return nil, nil
	}
	return r.Boms[parentId], nil
}

func (r *Repository) ListAssembliesInCategory(_ context.Context, categoryId int64) ([]entities.PartMeta, error) {
	ids := r.Categories[categoryId]
	out := make([]entities.PartMeta, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.Parts[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *Repository) GetExternalRequired(_ context.Context, ids []entities.PartId) (map[entities.PartId]entities.ExternalRequired, error) {
	out := make(map[entities.PartId]entities.ExternalRequired, len(ids))
	for _, id := range ids {
		out[id] = r.ExternalRequired[id]
	}
	return out, nil
}

func (r *Repository) GetOpenOrders(_ context.Context, ids []entities.PartId) (map[entities.PartId]entities.OpenOrders, error) {
	out := make(map[entities.PartId]entities.OpenOrders, len(ids))
	for _, id := range ids {
		out[id] = r.OpenOrders[id]
	}
	return out, nil
}

func (r *Repository) GetSupplierNames(_ context.Context, ids []entities.PartId) (map[entities.PartId]map[string]struct{}, error) {
	out := make(map[entities.PartId]map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = r.SupplierNames[id]
	}
	return out, nil
}

func (r *Repository) GetManufacturerNames(_ context.Context, ids []entities.PartId) (map[entities.PartId]string, error) {
	out := make(map[entities.PartId]string, len(ids))
	for _, id := range ids {
		out[id] = r.ManufacturerNames[id]
	}
	return out, nil
}
