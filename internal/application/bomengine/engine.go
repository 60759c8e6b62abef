// Package bomengine implements the two-pass recursive BOM resolver:
// an unconditional gross-demand walk (pass 1) and a stock-aware net
// walk that prunes sub-trees covered by on-hand sub-assembly stock
// (pass 2).
package bomengine

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	domainerrors "github.com/vsinha/mrp/internal/domain/errors"

	"github.com/vsinha/mrp/internal/domain/entities"
	"github.com/vsinha/mrp/internal/domain/repositories"
)

// GrossResult is the output of pass 1: the total demand for every base
// component and every sub-assembly encountered, ignoring stock, plus
// the globally resolved template-pooling flags that pass 2 depends on.
type GrossResult struct {
	Base         map[entities.PartId]decimal.Decimal
	Assembly     map[entities.PartId]decimal.Decimal
	TemplateOnly map[entities.PartId]bool
	Encountered  []entities.PartId
	Diagnostics  []entities.Diagnostic
	// FirstRoot attributes each base part to the first root (in
	// caller-supplied demand order) whose traversal recorded that
	// part's demand, per spec §4.3/§9's arbitrary-but-fixed rule.
	FirstRoot map[entities.PartId]entities.PartId
}

// NetResult is the output of pass 2: base-component demand net of
// available sub-assembly stock, and the residual "must build" quantity
// for every sub-assembly whose stock did not fully cover demand.
type NetResult struct {
	Base            map[entities.PartId]decimal.Decimal
	AssemblyToBuild map[entities.PartId]decimal.Decimal
}

// Engine walks the BOM DAG. It holds no state of its own between
// calls; all per-run state (the gross accumulators, the stock view)
// lives in the structs passed to or returned from each pass so that a
// single Engine value can service concurrent calculation runs.
type Engine struct {
	dal repositories.DataAccessLayer
}

// New returns an Engine backed by the given data access layer.
func New(dal repositories.DataAccessLayer) *Engine {
	return &Engine{dal: dal}
}

// grossWalker carries the mutable state of one pass-1 run. Accumulator
// writes happen only in the serialized merge step after a node's
// children have been prefetched in parallel, so the walk is
// deterministic given deterministic DAL responses (spec §5).
type grossWalker struct {
	dal          repositories.DataAccessLayer
	base         map[entities.PartId]decimal.Decimal
	assembly     map[entities.PartId]decimal.Decimal
	templateOnly map[entities.PartId]bool
	encountered  map[entities.PartId]struct{}
	diagnostics  []entities.Diagnostic
	firstRoot    map[entities.PartId]entities.PartId
	currentRoot  entities.PartId
}

// Gross runs pass 1 over every demand entry, accumulating into shared
// totals. Each demand's root must already have been validated as an
// assembly by the caller.
func (e *Engine) Gross(ctx context.Context, demands []entities.Demand) (*GrossResult, error) {
	w := &grossWalker{
		dal:          e.dal,
		base:         make(map[entities.PartId]decimal.Decimal),
		assembly:     make(map[entities.PartId]decimal.Decimal),
		templateOnly: make(map[entities.PartId]bool),
		encountered:  make(map[entities.PartId]struct{}),
		firstRoot:    make(map[entities.PartId]entities.PartId),
	}

	for _, d := range demands {
		path := map[entities.PartId]struct{}{d.RootId: {}}
		w.encountered[d.RootId] = struct{}{}
		w.currentRoot = d.RootId
		if err := w.walk(ctx, d.RootId, d.Quantity, path); err != nil {
			return nil, err
		}
	}

	ids := make([]entities.PartId, 0, len(w.encountered))
	for id := range w.encountered {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return &GrossResult{
		Base:         w.base,
		Assembly:     w.assembly,
		TemplateOnly: w.templateOnly,
		Encountered:  ids,
		Diagnostics:  w.diagnostics,
		FirstRoot:    w.firstRoot,
	}, nil
}

func (w *grossWalker) recordRoot(id entities.PartId) {
	if _, seen := w.firstRoot[id]; !seen {
		w.firstRoot[id] = w.currentRoot
	}
}

// walk recurses into id's BOM, scaling by multiplier. Children's
// PartMeta is prefetched in parallel via errgroup; a child's BOM lines
// are fetched when that child is walked. Children are folded into the
// accumulators in BOM-line order so that repeated runs over an
// unchanging snapshot are byte-identical.
func (w *grossWalker) walk(ctx context.Context, id entities.PartId, multiplier decimal.Decimal, path map[entities.PartId]struct{}) error {
	meta, err := w.dal.GetPartMeta(ctx, id)
	if err != nil {
		return fmt.Errorf("fetching part %d: %w", id, err)
	}
	if meta == nil {
		return domainerrors.NewNotFoundError(id)
	}
	if !meta.IsAssembly {
		w.base[id] = w.base[id].Add(multiplier)
		w.recordRoot(id)
		return nil
	}

	lines, err := w.dal.GetBomLines(ctx, id)
	if err != nil {
		return fmt.Errorf("fetching BOM for %d: %w", id, err)
	}
	if len(lines) == 0 {
		w.diagnostics = append(w.diagnostics, entities.Diagnostic{
			PartId:  id,
			Message: fmt.Sprintf("assembly %d has an empty BOM", id),
		})
		return nil
	}

	childMeta := make([]*entities.PartMeta, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			m, err := w.dal.GetPartMeta(gctx, line.SubPartId)
			if err != nil {
				return fmt.Errorf("fetching part %d: %w", line.SubPartId, err)
			}
			if m == nil {
				return domainerrors.NewNotFoundError(line.SubPartId)
			}
			childMeta[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, line := range lines {
		sub := line.SubPartId
		if _, onPath := path[sub]; onPath {
			return &domainerrors.CycleDetectedError{Path: pathSlice(path, sub)}
		}
		w.encountered[sub] = struct{}{}
		subMeta := childMeta[i]
		qty := multiplier.Mul(line.QuantityPer)

		if subMeta.IsTemplate && !line.AllowVariants {
			w.templateOnly[sub] = true
		}

		if subMeta.IsAssembly {
			w.assembly[sub] = w.assembly[sub].Add(qty)
			path[sub] = struct{}{}
			if err := w.walk(ctx, sub, qty, path); err != nil {
				return err
			}
			delete(path, sub)
		} else {
			w.base[sub] = w.base[sub].Add(qty)
			w.recordRoot(sub)
		}
	}
	return nil
}

func pathSlice(path map[entities.PartId]struct{}, closing entities.PartId) []entities.PartId {
	out := make([]entities.PartId, 0, len(path)+1)
	for id := range path {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return append(out, closing)
}
