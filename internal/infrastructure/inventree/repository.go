// Package inventree is the REST-backed implementation of
// internal/domain/repositories.DataAccessLayer: the real data access
// layer of spec §4.1, talking to the external inventory-management
// service over the operation table of spec §6.2.
//
// The per-part operations (part metadata, BOM lines, external
// requirements) are memoized in a per-Repository sync.Map keyed by
// (operation, argument) and guarded by one
// golang.org/x/sync/singleflight.Group, keyed the same way, so that
// concurrent callers asking for the same key within one run produce
// exactly one backend call (spec §4.1/§5). Open orders, supplier and
// manufacturer names, and the category listing are not memoized: each
// call issues its requests again. Bulk operations are chunked at
// CHUNK=100 (spec §4.1, grounded on
// original_source/src/inventree_api_helpers.py's
// CHUNK_SIZE/_chunk_list). Only GetExternalRequired fans out
// concurrently (per id, with errgroup); the open-order, supplier and
// manufacturer lookups fetch their chunks one after another.
package inventree

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/vsinha/mrp/internal/domain/entities"
	domainerrors "github.com/vsinha/mrp/internal/domain/errors"
	"github.com/vsinha/mrp/internal/observability"
)

// CHUNK is the tuning constant of spec §4.1: any batched call with
// more than CHUNK ids is split into ceil(n/CHUNK) requests.
const CHUNK = 100

// notFoundSentinel is memoized for a key whose backend lookup resolved
// to "no such part", per spec §4.1's "stores both successful values
// and the sentinel NotFound".
var notFoundSentinel = struct{}{}

// Repository is the concrete DAL. A new Repository must be created
// per calculation run so its memo map and single-flight group don't
// leak state across runs (spec §4.1's "memo map is created at run
// start and dropped at run end").
type Repository struct {
	baseURL string
	token   string
	client  *http.Client
	metrics *observability.Metrics

	memo sync.Map
	sf   singleflight.Group

	// CountOnHoldPO controls whether the OnHold purchase-order status
	// counts toward on-order quantity (spec §9 open question,
	// resolved to default true).
	CountOnHoldPO bool
}

// New builds a Repository against baseURL, authenticating with token.
// timeout is the default per-request timeout (spec §5, default 30s).
// metrics may be nil, in which case DAL calls and cache hits aren't
// recorded.
func New(baseURL, token string, timeout time.Duration, metrics *observability.Metrics) *Repository {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Repository{
		baseURL:       strings.TrimRight(baseURL, "/"),
		token:         token,
		client:        newHTTPClient(timeout),
		metrics:       metrics,
		CountOnHoldPO: true,
	}
}

func (r *Repository) memoKey(op string, arg any) string {
	return fmt.Sprintf("%s:%v", op, arg)
}

// singleflightGet performs a memoized, single-flighted fetch: fn is
// called at most once per key across all concurrent callers within
// this Repository's lifetime, and its result (success, NotFound, or
// error) is cached for successes/NotFound and left uncached for
// transport errors so callers may retry (spec §4.1). op labels the
// Metrics.DALCalls/DALCacheHits series this fetch counts against.
func singleflightGet[T any](r *Repository, op, key string, fn func() (T, bool, error)) (T, bool, error) {
	var zero T
	if r.metrics != nil {
		r.metrics.DALCalls.WithLabelValues(op).Inc()
	}
	if cached, ok := r.memo.Load(key); ok {
		if r.metrics != nil {
			r.metrics.DALCacheHits.Inc()
		}
		if cached == notFoundSentinel {
			return zero, false, nil
		}
		return cached.(T), true, nil
	}

	v, err, _ := r.sf.Do(key, func() (any, error) {
		val, found, err := fn()
		if err != nil {
			return nil, err
		}
		if !found {
			r.memo.Store(key, notFoundSentinel)
			return nil, nil
		}
		r.memo.Store(key, val)
		return val, nil
	})
	if err != nil {
		return zero, false, err
	}
	if v == nil {
		return zero, false, nil
	}
	return v.(T), true, nil
}

func (r *Repository) get(ctx context.Context, path string, query url.Values, out any) (bool, error) {
	u := r.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Token "+r.token)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		return false, &domainerrors.TransportError{Op: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode >= 300 {
		return false, &domainerrors.TransportError{Op: path, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("decoding response from %s: %w", path, err)
		}
	}
	return true, nil
}

// GetPartMeta implements repositories.PartRepository.
func (r *Repository) GetPartMeta(ctx context.Context, id entities.PartId) (*entities.PartMeta, error) {
	key := r.memoKey("part.get", id)
	meta, found, err := singleflightGet(r, "part.get", key, func() (*entities.PartMeta, bool, error) {
		var dto partDTO
		ok, err := r.get(ctx, fmt.Sprintf("/api/part/%d/", id), nil, &dto)
		if err != nil || !ok {
			return nil, ok, err
		}
		return dtoToPartMeta(id, dto), true, nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return meta, nil
}

func dtoToPartMeta(id entities.PartId, dto partDTO) *entities.PartMeta {
	return &entities.PartMeta{
		Id:               id,
		Name:             dto.Name,
		IsAssembly:       dto.Assembly,
		IsTemplate:       dto.IsTemplate,
		InStock:          decimal.NewFromFloat(dto.InStock),
		VariantStock:     decimal.NewFromFloat(dto.VariantStock),
		ManufacturerName: dto.ManufacturerName,
		SupplierNames:    map[string]struct{}{},
	}
}

// GetBomLines implements repositories.PartRepository. Returns the
// empty slice, never an error, when the parent is not an assembly
// (spec §4.1).
func (r *Repository) GetBomLines(ctx context.Context, parentId entities.PartId) ([]entities.BomLine, error) {
	meta, err := r.GetPartMeta(ctx, parentId)
	if err != nil {
		return nil, err
	}
	if meta == nil || !meta.IsAssembly {
		return nil, nil
	}

	key := r.memoKey("part.bom", parentId)
	lines, found, err := singleflightGet(r, "part.bom", key, func() ([]entities.BomLine, bool, error) {
		var dtos []bomLineDTO
		ok, err := r.get(ctx, "/api/bom/", url.Values{"part": {strconv.FormatInt(int64(parentId), 10)}}, &dtos)
		if err != nil || !ok {
			return nil, ok, err
		}
		out := make([]entities.BomLine, len(dtos))
		for i, d := range dtos {
			out[i] = entities.BomLine{
				ParentId:      parentId,
				SubPartId:     entities.PartId(d.SubPart),
				QuantityPer:   decimal.NewFromFloat(d.Quantity),
				AllowVariants: d.AllowVariants,
			}
		}
		return out, true, nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return lines, nil
}

// ListAssembliesInCategory implements repositories.PartRepository,
// grounded on original_source/src/inventree_api_helpers.py's
// get_parts_in_category.
func (r *Repository) ListAssembliesInCategory(ctx context.Context, categoryId int64) ([]entities.PartMeta, error) {
	var dtos []partDTO
	ok, err := r.get(ctx, "/api/part/", url.Values{
		"category": {strconv.FormatInt(categoryId, 10)},
		"assembly": {"true"},
	}, &dtos)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	out := make([]entities.PartMeta, len(dtos))
	for i, d := range dtos {
		out[i] = *dtoToPartMeta(entities.PartId(d.ID), d)
	}
	return out, nil
}

// GetExternalRequired implements repositories.DemandRepository. The
// service exposes part.requirements(id) only per-id (spec §6.2), so
// "batched" here means fanned out concurrently in chunks rather than
// one bulk HTTP call, each leg still memoized/single-flighted
// individually.
func (r *Repository) GetExternalRequired(ctx context.Context, ids []entities.PartId) (map[entities.PartId]entities.ExternalRequired, error) {
	out := make(map[entities.PartId]entities.ExternalRequired, len(ids))
	var mu sync.Mutex

	for _, chunk := range chunks(ids, CHUNK) {
		g, gctx := errgroup.WithContext(ctx)
		for _, id := range chunk {
			id := id
			g.Go(func() error {
				key := r.memoKey("part.requirements", id)
				req, _, err := singleflightGet(r, "part.requirements", key, func() (entities.ExternalRequired, bool, error) {
					var dto requirementDTO
					ok, err := r.get(gctx, fmt.Sprintf("/api/part/%d/requirements/", id), nil, &dto)
					if err != nil || !ok {
						return entities.ExternalRequired{}, ok, err
					}
					return entities.ExternalRequired{Required: decimal.NewFromFloat(dto.Required)}, true, nil
				})
				if err != nil {
					return err
				}
				mu.Lock()
				out[id] = req
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetOpenOrders implements repositories.OrderRepository: batched
// purchase_orders.list/build_orders.list calls, aggregating remaining
// quantity (quantity - received, quantity - completed) over the
// configured open-status sets (spec §6.2, original_source/src/order_calculation.py's
// PO_STATUS_MAP/RELEVANT_PO_STATUSES arithmetic).
func (r *Repository) GetOpenOrders(ctx context.Context, ids []entities.PartId) (map[entities.PartId]entities.OpenOrders, error) {
	out := make(map[entities.PartId]entities.OpenOrders, len(ids))
	for _, id := range ids {
		out[id] = entities.OpenOrders{}
	}

	openPO := statusSet(OpenPOStatuses)
	if !r.CountOnHoldPO {
		delete(openPO, statusOnHold)
	}
	openBO := statusSet(OpenBOStatuses)

	for _, chunk := range chunks(ids, CHUNK) {
		idParam := joinIds(chunk)

		var poLines []purchaseOrderLineDTO
		if ok, err := r.get(ctx, "/api/order/po-line/", url.Values{"part__in": {idParam}}, &poLines); err != nil {
			return nil, err
		} else if ok {
			for _, line := range poLines {
				if _, open := openPO[line.Status]; !open {
					continue
				}
				id := entities.PartId(line.Part)
				remaining := decimal.NewFromFloat(line.Quantity - line.Received)
				entry := out[id]
				entry.PurchaseOpen = entry.PurchaseOpen.Add(remaining)
				out[id] = entry
			}
		}

		var boLines []buildOrderLineDTO
		if ok, err := r.get(ctx, "/api/order/bo-line/", url.Values{"part__in": {idParam}}, &boLines); err != nil {
			return nil, err
		} else if ok {
			for _, line := range boLines {
				if _, open := openBO[line.Status]; !open {
					continue
				}
				id := entities.PartId(line.Part)
				remaining := decimal.NewFromFloat(line.Quantity - line.Completed)
				entry := out[id]
				entry.BuildInProgress = entry.BuildInProgress.Add(remaining)
				out[id] = entry
			}
		}
	}
	return out, nil
}

// GetSupplierNames and GetManufacturerNames implement
// repositories.SupplierRepository. Per spec's SUPPLEMENTED FEATURES
// (original_source/src/inventree_api_helpers.py's get_final_part_data
// default-data fallback), a failed batch stops the lookup and returns
// the names gathered from earlier chunks together with the error;
// callers are expected to turn the error into a non-fatal diagnostic
// rather than abort the run (internal/application/orchestrator does
// this and falls back to an empty result).
func (r *Repository) GetSupplierNames(ctx context.Context, ids []entities.PartId) (map[entities.PartId]map[string]struct{}, error) {
	out := make(map[entities.PartId]map[string]struct{}, len(ids))
	for _, chunk := range chunks(ids, CHUNK) {
		var dtos []supplierPartDTO
		ok, err := r.get(ctx, "/api/company/supplier-part/", url.Values{"part__in": {joinIds(chunk)}}, &dtos)
		if err != nil {
			return out, err
		}
		if !ok {
			continue
		}
		for _, d := range dtos {
			id := entities.PartId(d.Part)
			if out[id] == nil {
				out[id] = map[string]struct{}{}
			}
			if d.SupplierName != "" {
				out[id][d.SupplierName] = struct{}{}
			}
		}
	}
	return out, nil
}

func (r *Repository) GetManufacturerNames(ctx context.Context, ids []entities.PartId) (map[entities.PartId]string, error) {
	out := make(map[entities.PartId]string, len(ids))
	for _, chunk := range chunks(ids, CHUNK) {
		var dtos []manufacturerPartDTO
		ok, err := r.get(ctx, "/api/company/manufacturer-part/", url.Values{"part__in": {joinIds(chunk)}}, &dtos)
		if err != nil {
			return out, err
		}
		if !ok {
			continue
		}
		for _, d := range dtos {
			out[entities.PartId(d.Part)] = d.ManufacturerName
		}
	}
	return out, nil
}

func chunks(ids []entities.PartId, size int) [][]entities.PartId {
	if len(ids) == 0 {
		return nil
	}
	var out [][]entities.PartId
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[i:end])
	}
	return out
}

func joinIds(ids []entities.PartId) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return strings.Join(parts, ",")
}
