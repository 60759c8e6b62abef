// Package orchestrator exposes Compute, the single entry point that
// drives DAL prefetch, both BOM engine passes, and the aggregator, and
// returns the two decision lists plus run diagnostics.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/vsinha/mrp/internal/application/aggregator"
	"github.com/vsinha/mrp/internal/application/bomengine"
	"github.com/vsinha/mrp/internal/domain/entities"
	domainerrors "github.com/vsinha/mrp/internal/domain/errors"
	"github.com/vsinha/mrp/internal/domain/repositories"
	"github.com/vsinha/mrp/internal/observability"
)

// Result is what Compute returns on success.
type Result struct {
	// RunId is a per-run correlation id attached to every log line
	// emitted while computing this result, and to the optional snapshot
	// record persisted for it. Metrics do not carry it.
	RunId       string
	OrderLines  []entities.OrderLine
	BuildLines  []entities.BuildLine
	Diagnostics []entities.Diagnostic
}

// Orchestrator wires a DataAccessLayer and a BOM engine together and
// exposes Compute as the package's only entry point.
type Orchestrator struct {
	dal     repositories.DataAccessLayer
	engine  *bomengine.Engine
	log     *logrus.Logger
	metrics *observability.Metrics
}

// New builds an Orchestrator over the given DAL. metrics may be nil,
// in which case Compute runs without recording Prometheus series.
func New(dal repositories.DataAccessLayer, log *logrus.Logger, metrics *observability.Metrics) *Orchestrator {
	if log == nil {
		log = observability.NewLogger()
	}
	return &Orchestrator{dal: dal, engine: bomengine.New(dal), log: log, metrics: metrics}
}

// Compute runs the full seven-step calculation of spec §4.4:
//
//  1. validate demands
//  2. pass 1 (GROSS) over every demand
//  3. batched bulk fetch of external demand, open orders, supplier facts
//  4. construct the mutable stock view
//  5. pass 2 (NET) against the stock view
//  6. aggregate into OrderLines/BuildLines, apply filters
//  7. return results plus diagnostics
//
// ctx governs the whole run's deadline; exceeding it returns
// DeadlineExceededError, and explicit cancellation returns
// CanceledError.
func (o *Orchestrator) Compute(ctx context.Context, demands []entities.Demand, filters entities.Filters) (result *Result, err error) {
	runId := uuid.NewString()
	log := o.log.WithField("run_id", runId)
	start := time.Now()
	defer func() {
		if o.metrics == nil {
			return
		}
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		o.metrics.ComputeRuns.WithLabelValues(outcome).Inc()
		o.metrics.ComputeDuration.Observe(time.Since(start).Seconds())
	}()

	if len(demands) == 0 {
		log.Info("compute called with no demand, returning empty result")
		return &Result{RunId: runId}, nil
	}

	if err := o.validate(ctx, demands); err != nil {
		if mapped := mapContextErr(ctx, err); mapped != nil {
			return nil, mapped
		}
		observability.LogError(log, "orchestrator", "Compute", runId, demands, err)
		return nil, err
	}

	log.WithField("demand_count", len(demands)).Info("starting pass 1 (gross)")
	gross, err := o.engine.Gross(ctx, demands)
	if err != nil {
		if mapped := mapContextErr(ctx, err); mapped != nil {
			return nil, mapped
		}
		observability.LogError(log, "orchestrator", "Compute", runId, demands, err)
		return nil, err
	}
	for _, d := range gross.Diagnostics {
		log.WithField("part_id", d.PartId).Warn(d.Message)
	}

	meta, externalRequired, openOrders, supplierDiagnostics, err := o.bulkFetch(ctx, gross.Encountered)
	if err != nil {
		if mapped := mapContextErr(ctx, err); mapped != nil {
			return nil, mapped
		}
		observability.LogError(log, "orchestrator", "Compute", runId, demands, err)
		return nil, err
	}
	for _, d := range supplierDiagnostics {
		log.Warn(d.Message)
	}
	diagnostics := append(append([]entities.Diagnostic{}, gross.Diagnostics...), supplierDiagnostics...)

	stockView := bomengine.NewStockView(meta, externalRequired, openOrders, gross.TemplateOnly, filters.CountBuildInProgress)

	log.Info("starting pass 2 (net)")
	net, err := o.engine.Net(ctx, demands, stockView)
	if err != nil {
		if mapped := mapContextErr(ctx, err); mapped != nil {
			return nil, mapped
		}
		observability.LogError(log, "orchestrator", "Compute", runId, demands, err)
		return nil, err
	}

	rootNames := make(map[entities.PartId]string, len(demands))
	for _, d := range demands {
		if m := meta[d.RootId]; m != nil {
			rootNames[d.RootId] = m.Name
		}
	}

	orderLines, buildLines := aggregator.Aggregate(gross, net, stockView, meta, aggregator.RootAttribution(gross.FirstRoot), rootNames, filters)

	log.WithFields(logrus.Fields{
		"order_lines": len(orderLines),
		"build_lines": len(buildLines),
	}).Info("compute finished")

	return &Result{
		RunId:       runId,
		OrderLines:  orderLines,
		BuildLines:  buildLines,
		Diagnostics: diagnostics,
	}, nil
}

// validate checks spec §4.4 step 1: every root must resolve to an
// assembly and every quantity must be positive.
func (o *Orchestrator) validate(ctx context.Context, demands []entities.Demand) error {
	for _, d := range demands {
		if d.Quantity.Sign() <= 0 {
			return &domainerrors.ValidationError{Field: "quantity", Message: fmt.Sprintf("demand for part %d must be positive, got %s", d.RootId, d.Quantity)}
		}
		m, err := o.dal.GetPartMeta(ctx, d.RootId)
		if err != nil {
			return err
		}
		if m == nil {
			return domainerrors.NewNotFoundError(d.RootId)
		}
		if !m.IsAssembly {
			return &domainerrors.ValidationError{Field: "root_id", Message: fmt.Sprintf("part %d is not an assembly", d.RootId)}
		}
	}
	return nil
}

// bulkFetch performs spec §4.4 step 3: batched external-required,
// open-order, and supplier/manufacturer lookups over every part
// encountered in pass 1, plus PartMeta for any id pass 1 hadn't
// already resolved.
func (o *Orchestrator) bulkFetch(ctx context.Context, ids []entities.PartId) (
	map[entities.PartId]*entities.PartMeta,
	map[entities.PartId]decimal.Decimal,
	map[entities.PartId]entities.OpenOrders,
	[]entities.Diagnostic,
	error,
) {
	meta := make(map[entities.PartId]*entities.PartMeta, len(ids))
	for _, id := range ids {
		m, err := o.dal.GetPartMeta(ctx, id)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if m == nil {
			return nil, nil, nil, nil, domainerrors.NewNotFoundError(id)
		}
		meta[id] = m
	}

	externalRequiredFull, err := o.dal.GetExternalRequired(ctx, ids)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	externalRequired := make(map[entities.PartId]decimal.Decimal, len(externalRequiredFull))
	for id, v := range externalRequiredFull {
		externalRequired[id] = v.Required
	}

	openOrders, err := o.dal.GetOpenOrders(ctx, ids)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	var diagnostics []entities.Diagnostic
	supplierNames, err := o.dal.GetSupplierNames(ctx, ids)
	if err != nil {
		diagnostics = append(diagnostics, entities.Diagnostic{Message: "supplier lookup failed — exclusion filter may be incomplete"})
		supplierNames = map[entities.PartId]map[string]struct{}{}
	}
	manufacturerNames, err := o.dal.GetManufacturerNames(ctx, ids)
	if err != nil {
		diagnostics = append(diagnostics, entities.Diagnostic{Message: "manufacturer lookup failed — exclusion filter may be incomplete"})
		manufacturerNames = map[entities.PartId]string{}
	}
	for id, names := range supplierNames {
		if m := meta[id]; m != nil {
			m.SupplierNames = names
		}
	}
	for id, name := range manufacturerNames {
		if m := meta[id]; m != nil {
			m.ManufacturerName = name
		}
	}

	return meta, externalRequired, openOrders, diagnostics, nil
}

// mapContextErr converts a ctx cancellation/deadline into the
// discriminated error types of spec §7, or returns nil if err is
// unrelated to ctx.
func mapContextErr(ctx context.Context, err error) error {
	select {
	case <-ctx.Done():
		switch ctx.Err() {
		case context.DeadlineExceeded:
			return &domainerrors.DeadlineExceededError{Err: ctx.Err()}
		case context.Canceled:
			return &domainerrors.CanceledError{Err: ctx.Err()}
		}
	default:
	}
	return nil
}
