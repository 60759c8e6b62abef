package bomengine

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/mrp/internal/domain/entities"
)

// StockView is the mutable, run-scoped availability ledger pass 2
// consumes against. It is owned exclusively by one traversal (spec
// §5, "not shared") and is never touched by more than one goroutine.
type StockView struct {
	meta                 map[entities.PartId]*entities.PartMeta
	externalRequired     map[entities.PartId]decimal.Decimal
	openOrders           map[entities.PartId]entities.OpenOrders
	templateOnly         map[entities.PartId]bool
	countBuildInProgress bool

	baseline map[entities.PartId]decimal.Decimal
	consumed map[entities.PartId]decimal.Decimal
}

// NewStockView builds the availability ledger from the bulk DAL facts
// gathered after pass 1, plus the template-pooling flags pass 1
// resolved. countBuildInProgress controls whether in-flight build
// orders increase an assembly's available quantity (spec §9 open
// question; the orchestrator passes Filters.CountBuildInProgress, and
// the CLI's --count-build-in-progress flag defaults to true).
func NewStockView(
	meta map[entities.PartId]*entities.PartMeta,
	externalRequired map[entities.PartId]decimal.Decimal,
	openOrders map[entities.PartId]entities.OpenOrders,
	templateOnly map[entities.PartId]bool,
	countBuildInProgress bool,
) *StockView {
	return &StockView{
		meta:                 meta,
		externalRequired:     externalRequired,
		openOrders:           openOrders,
		templateOnly:         templateOnly,
		countBuildInProgress: countBuildInProgress,
		baseline:             make(map[entities.PartId]decimal.Decimal),
		consumed:             make(map[entities.PartId]decimal.Decimal),
	}
}

// poolingAllowed reports whether a template's variant stock pools into
// its availability: only templates, and only when no BOM line
// referencing them in this run set allow_variants=false (spec §4.2).
func (sv *StockView) poolingAllowed(id entities.PartId) bool {
	m := sv.meta[id]
	if m == nil || !m.IsTemplate {
		return false
	}
	return !sv.templateOnly[id]
}

// baselineFor computes, once per part, the full available quantity
// before any consumption along this run's traversal:
//
//	in_stock + (variant_stock if pooling allowed) - external_required
//	  + (build_in_progress if countBuildInProgress)
func (sv *StockView) baselineFor(id entities.PartId) decimal.Decimal {
	if v, ok := sv.baseline[id]; ok {
		return v
	}
	m := sv.meta[id]
	avail := decimal.Zero
	if m != nil {
		avail = m.InStock
		if sv.poolingAllowed(id) {
			avail = avail.Add(m.VariantStock)
		}
	}
	avail = avail.Sub(sv.externalRequired[id])
	if sv.countBuildInProgress {
		avail = avail.Add(sv.openOrders[id].BuildInProgress)
	}
	sv.baseline[id] = avail
	return avail
}

// Remaining returns the availability still unconsumed for a part,
// which may be negative.
func (sv *StockView) Remaining(id entities.PartId) decimal.Decimal {
	return sv.baselineFor(id).Sub(sv.consumed[id])
}

// Consume deducts qty from the part's remaining availability. Multiple
// traversal sites sharing a sub-assembly call this in traversal order,
// so the second site to visit a shared assembly sees the first site's
// consumption (spec §4.2 tie-break rule).
func (sv *StockView) Consume(id entities.PartId, qty decimal.Decimal) {
	sv.consumed[id] = sv.consumed[id].Add(qty)
}

// PurchaseOpenFor and BuildInProgressFor expose the raw open-order
// quantities for a part, used by the Aggregator's to_order/to_build
// arithmetic and display columns independent of how
// CountBuildInProgress affected pass 2's pruning.
func (sv *StockView) PurchaseOpenFor(id entities.PartId) decimal.Decimal {
	return sv.openOrders[id].PurchaseOpen
}

func (sv *StockView) BuildInProgressFor(id entities.PartId) decimal.Decimal {
	return sv.openOrders[id].BuildInProgress
}

func (sv *StockView) ExternalRequiredFor(id entities.PartId) decimal.Decimal {
	return sv.externalRequired[id]
}

// PooledVariantStockFor returns the variant stock that actually pools
// into id's availability in this run (zero if pooling is disallowed).
func (sv *StockView) PooledVariantStockFor(id entities.PartId) decimal.Decimal {
	m := sv.meta[id]
	if m == nil || !sv.poolingAllowed(id) {
		return decimal.Zero
	}
	return m.VariantStock
}

func (sv *StockView) metaFor(id entities.PartId) *entities.PartMeta {
	return sv.meta[id]
}
