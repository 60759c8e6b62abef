// Package entities holds the plain data types that flow through the
// calculator: part identity and metadata, BOM lines, demand inputs, and
// the two output row shapes (OrderLine, BuildLine).
package entities

import (
	"github.com/shopspring/decimal"
)

// PartId is the opaque integer key the inventory service uses to
// identify a part. It is a defined type rather than a bare int64 so
// that callers cannot accidentally pass a quantity or a category id
// where a part id is expected.
type PartId int64

// PartMeta is the snapshot of one part as fetched for a single
// calculation run. Everything on it is read-only for the lifetime of
// that run.
type PartMeta struct {
	Id               PartId
	Name             string
	IsAssembly       bool
	IsTemplate       bool
	InStock          decimal.Decimal
	VariantStock     decimal.Decimal
	SupplierNames    map[string]struct{}
	ManufacturerName string
}

// BomLine is one line of a parent assembly's bill of materials.
type BomLine struct {
	ParentId      PartId
	SubPartId     PartId
	QuantityPer   decimal.Decimal
	AllowVariants bool
}

// Demand is one unit of caller input: build this many of this root
// assembly. RootId carries a validate tag for go-playground/validator
// (assumes the service never hands out id 0); Quantity's sign is
// checked explicitly by the orchestrator since decimal.Decimal has no
// validator-visible zero value.
type Demand struct {
	RootId   PartId `validate:"gt=0"`
	Quantity decimal.Decimal
}

// OpenOrders is the per-part sum of quantity not yet received
// (purchase) or not yet completed (manufacturing), aggregated over the
// status sets configured in internal/infrastructure/inventree.
type OpenOrders struct {
	PurchaseOpen    decimal.Decimal
	BuildInProgress decimal.Decimal
}

// ExternalRequired is the quantity of a part already committed to
// other consumers, as reported by the inventory service.
type ExternalRequired struct {
	Required decimal.Decimal
}

// OrderLine is one row of the to-purchase result: a base component
// that must be bought.
type OrderLine struct {
	PartId    PartId
	Name      string
	Required  decimal.Decimal
	Available decimal.Decimal
	OnOrder   decimal.Decimal
	ToOrder   decimal.Decimal
	RootId    PartId
	RootName  string
}

// BuildLine is one row of the to-build result: a sub-assembly that
// must be manufactured.
type BuildLine struct {
	PartId      PartId
	Name        string
	TotalNeeded decimal.Decimal
	InStock     decimal.Decimal
	InProgress  decimal.Decimal
	Available   decimal.Decimal
	ToBuild     decimal.Decimal
}

// Diagnostic is a non-fatal warning surfaced alongside a successful
// Compute result, e.g. "assembly X has an empty BOM".
type Diagnostic struct {
	Message string
	PartId  PartId
}

// Filters carry the display-only exclusion predicates the aggregator
// applies after the order/build decisions are computed, which never
// change the arithmetic, only what is shown. CountBuildInProgress is
// the one field that does affect the arithmetic (pass 2's pruning).
type Filters struct {
	ExcludeSuppliers     map[string]struct{}
	ExcludeManufacturers map[string]struct{}
	// CountBuildInProgress, when true, folds an assembly's
	// build-in-progress quantity into its available stock during the
	// net pass instead of only surfacing it as a display column.
	CountBuildInProgress bool
}
