// Package aggregator converts the BOM engine's two-pass output into
// the two user-facing decision lists: parts to purchase and
// assemblies to build.
package aggregator

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrp/internal/application/bomengine"
	"github.com/vsinha/mrp/internal/domain/entities"
)

// epsilon is the tolerance below which a computed to-order or to-build
// quantity is treated as zero and dropped from the output (spec §4.3).
var epsilon = decimal.New(1, -3)

// RootAttribution resolves, for a given base part, the first root
// whose traversal recorded that part's demand. The BOM engine builds
// this during pass 1 (GrossResult.FirstRoot) and the Orchestrator hands
// it to the Aggregator so that
// OrderLine rows can report an originating root (spec §4.3, "first
// root along whose traversal the part's base contribution was
// recorded" — an arbitrary-but-fixed rule per spec §9).
type RootAttribution map[entities.PartId]entities.PartId

// Aggregate applies the decision rules of spec §4.3 to pass-1/pass-2
// output and the DAL snapshot, then applies the caller's display
// filters. It returns the two lists already sorted per spec §4.3
// ("by part name, case-insensitive, ties broken by part_id
// ascending").
func Aggregate(
	gross *bomengine.GrossResult,
	net *bomengine.NetResult,
	stock *bomengine.StockView,
	meta map[entities.PartId]*entities.PartMeta,
	roots RootAttribution,
	rootNames map[entities.PartId]string,
	filters entities.Filters,
) ([]entities.OrderLine, []entities.BuildLine) {
	orderIds := unionKeys(gross.Base, net.Base)
	orders := make([]entities.OrderLine, 0, len(orderIds))
	for _, id := range orderIds {
		m := meta[id]
		if m == nil {
			continue
		}
		required := net.Base[id]
		available := m.InStock.Add(stock.PooledVariantStockFor(id)).Sub(stock.ExternalRequiredFor(id))
		onOrder := stock.PurchaseOpenFor(id)
		toOrder := decimal.Max(decimal.Zero, required.Sub(available).Sub(onOrder))
		if toOrder.LessThanOrEqual(epsilon) {
			continue
		}
		if isFiltered(m, filters) {
			continue
		}
		rootId := roots[id]
		orders = append(orders, entities.OrderLine{
			PartId:    id,
			Name:      m.Name,
			Required:  required,
			Available: available,
			OnOrder:   onOrder,
			ToOrder:   toOrder,
			RootId:    rootId,
			RootName:  rootNames[rootId],
		})
	}

	assemblyIds := sortedKeys(gross.Assembly)
	builds := make([]entities.BuildLine, 0, len(assemblyIds))
	for _, id := range assemblyIds {
		m := meta[id]
		if m == nil {
			continue
		}
		totalNeeded := gross.Assembly[id]
		available := m.InStock.Add(stock.PooledVariantStockFor(id)).Sub(stock.ExternalRequiredFor(id))
		inProgress := stock.BuildInProgressFor(id)
		toBuild := decimal.Max(decimal.Zero, totalNeeded.Sub(available).Sub(inProgress))
		if toBuild.LessThanOrEqual(epsilon) {
			continue
		}
		if isFiltered(m, filters) {
			continue
		}
		builds = append(builds, entities.BuildLine{
			PartId:      id,
			Name:        m.Name,
			TotalNeeded: totalNeeded,
			InStock:     m.InStock,
			InProgress:  inProgress,
			Available:   available,
			ToBuild:     toBuild,
		})
	}

	sort.Slice(orders, func(i, j int) bool { return lessByNameThenId(orders[i].Name, orders[i].PartId, orders[j].Name, orders[j].PartId) })
	sort.Slice(builds, func(i, j int) bool { return lessByNameThenId(builds[i].Name, builds[i].PartId, builds[j].Name, builds[j].PartId) })

	return orders, builds
}

// isFiltered reports whether a part should be dropped from the output
// by the supplier/manufacturer exclusion filters. Filters are applied
// after the arithmetic above, so they never change a to_order/to_build
// decision, only whether it is shown (spec §4.3).
func isFiltered(m *entities.PartMeta, filters entities.Filters) bool {
	if len(filters.ExcludeManufacturers) > 0 {
		if _, excluded := filters.ExcludeManufacturers[m.ManufacturerName]; excluded {
			return true
		}
	}
	if len(filters.ExcludeSuppliers) > 0 {
		for supplier := range m.SupplierNames {
			if _, excluded := filters.ExcludeSuppliers[supplier]; excluded {
				return true
			}
		}
	}
	return false
}

func lessByNameThenId(nameA string, idA entities.PartId, nameB string, idB entities.PartId) bool {
	la, lb := strings.ToLower(nameA), strings.ToLower(nameB)
	if la != lb {
		return la < lb
	}
	return idA < idB
}

func unionKeys(a, b map[entities.PartId]decimal.Decimal) []entities.PartId {
	seen := make(map[entities.PartId]struct{}, len(a)+len(b))
	for id := range a {
		seen[id] = struct{}{}
	}
	for id := range b {
		seen[id] = struct{}{}
	}
	ids := make([]entities.PartId, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedKeys(m map[entities.PartId]decimal.Decimal) []entities.PartId {
	ids := make([]entities.PartId, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
