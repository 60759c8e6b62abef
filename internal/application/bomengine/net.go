package bomengine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	domainerrors "github.com/vsinha/mrp/internal/domain/errors"

	"github.com/vsinha/mrp/internal/domain/entities"
)

// netWalker carries the mutable state of one pass-2 run, walking the
// same BOM graph as pass 1 but pruning wherever a sub-assembly's
// remaining availability covers the demand along the current path.
type netWalker struct {
	dal   bomLinePartFetcher
	stock *StockView
	base  map[entities.PartId]decimal.Decimal
	build map[entities.PartId]decimal.Decimal
}

// bomLinePartFetcher is the slice of the DAL pass 2 needs: the same
// GetPartMeta/GetBomLines operations pass 1 used, already warmed by
// pass 1's memoization so pass 2 issues no further network calls.
type bomLinePartFetcher interface {
	GetPartMeta(ctx context.Context, id entities.PartId) (*entities.PartMeta, error)
	GetBomLines(ctx context.Context, parentId entities.PartId) ([]entities.BomLine, error)
}

// Net runs pass 2 over every demand entry against the shared
// StockView, producing net base-component demand and the residual
// build quantity for every sub-assembly whose availability fell short.
func (e *Engine) Net(ctx context.Context, demands []entities.Demand, stock *StockView) (*NetResult, error) {
	w := &netWalker{
		dal:   e.dal,
		stock: stock,
		base:  make(map[entities.PartId]decimal.Decimal),
		build: make(map[entities.PartId]decimal.Decimal),
	}

	for _, d := range demands {
		path := map[entities.PartId]struct{}{d.RootId: {}}
		// Roots are the thing being manufactured by definition; the
		// pruning rule applies to their children, never to the root
		// itself (spec §4.2).
		if err := w.walkChildren(ctx, d.RootId, d.Quantity, path); err != nil {
			return nil, err
		}
	}

	return &NetResult{Base: w.base, AssemblyToBuild: w.build}, nil
}

// walkChildren expands id's BOM for the given (already stock-adjusted)
// multiplier, applying the pruning rule to every assembly child.
func (w *netWalker) walkChildren(ctx context.Context, id entities.PartId, multiplier decimal.Decimal, path map[entities.PartId]struct{}) error {
	meta, err := w.dal.GetPartMeta(ctx, id)
	if err != nil {
		return fmt.Errorf("fetching part %d: %w", id, err)
	}
	if meta == nil {
		return domainerrors.NewNotFoundError(id)
	}
	if !meta.IsAssembly {
		return nil
	}

	lines, err := w.dal.GetBomLines(ctx, id)
	if err != nil {
		return fmt.Errorf("fetching BOM for %d: %w", id, err)
	}

	for _, line := range lines {
		sub := line.SubPartId
		subMeta, err := w.dal.GetPartMeta(ctx, sub)
		if err != nil {
			return fmt.Errorf("fetching part %d: %w", sub, err)
		}
		if subMeta == nil {
			return domainerrors.NewNotFoundError(sub)
		}

		need := multiplier.Mul(line.QuantityPer)
		if need.Sign() <= 0 {
			continue
		}

		if !subMeta.IsAssembly {
			w.base[sub] = w.base[sub].Add(need)
			continue
		}

		if _, onPath := path[sub]; onPath {
			return &domainerrors.CycleDetectedError{Path: pathSlice(path, sub)}
		}

		remaining := w.stock.Remaining(sub)
		var shortfall decimal.Decimal
		if remaining.GreaterThanOrEqual(need) {
			w.stock.Consume(sub, need)
			shortfall = decimal.Zero
		} else {
			consumedFromStock := decimal.Max(remaining, decimal.Zero)
			w.stock.Consume(sub, consumedFromStock)
			shortfall = need.Sub(consumedFromStock)
		}

		if shortfall.Sign() > 0 {
			w.build[sub] = w.build[sub].Add(shortfall)
			path[sub] = struct{}{}
			if err := w.walkChildren(ctx, sub, shortfall, path); err != nil {
				return err
			}
			delete(path, sub)
		}
	}
	return nil
}
