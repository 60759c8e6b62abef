package orchestrator

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrp/internal/domain/entities"
	"github.com/vsinha/mrp/internal/infrastructure/memory"
)

func newFixture() *memory.Repository {
	return memory.New()
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// TestCompute_Scenario1_SingleBase mirrors spec §8 scenario 1: a
// single-level BOM where on-hand stock partially covers demand.
func TestCompute_Scenario1_SingleBase(t *testing.T) {
	repo := newFixture()
	repo.AddPart(entities.PartMeta{Id: 100, Name: "Top", IsAssembly: true})
	repo.AddPart(entities.PartMeta{Id: 200, Name: "Bolt", IsAssembly: false, InStock: dec(5)})
	repo.AddBomLine(entities.BomLine{ParentId: 100, SubPartId: 200, QuantityPer: dec(2), AllowVariants: true})

	orch := New(repo, nil, nil)
	result, err := orch.Compute(context.Background(), []entities.Demand{{RootId: 100, Quantity: dec(3)}}, entities.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.BuildLines) != 0 {
		t.Fatalf("expected no build lines, got %+v", result.BuildLines)
	}
	if len(result.OrderLines) != 1 {
		t.Fatalf("expected exactly one order line, got %+v", result.OrderLines)
	}
	line := result.OrderLines[0]
	if !line.Required.Equal(dec(6)) || !line.Available.Equal(dec(5)) || !line.ToOrder.Equal(dec(1)) {
		t.Errorf("unexpected order line: %+v", line)
	}
}

// TestCompute_Scenario2_SubAssemblySatisfiedByStock mirrors spec §8
// scenario 2: a sub-assembly's own stock fully covers demand, pruning
// its children.
func TestCompute_Scenario2_SubAssemblySatisfiedByStock(t *testing.T) {
	repo := newFixture()
	repo.AddPart(entities.PartMeta{Id: 100, Name: "Top", IsAssembly: true})
	repo.AddPart(entities.PartMeta{Id: 110, Name: "Sub", IsAssembly: true, InStock: dec(10)})
	repo.AddPart(entities.PartMeta{Id: 200, Name: "Bolt", IsAssembly: false, InStock: dec(0)})
	repo.AddBomLine(entities.BomLine{ParentId: 100, SubPartId: 110, QuantityPer: dec(1), AllowVariants: true})
	repo.AddBomLine(entities.BomLine{ParentId: 110, SubPartId: 200, QuantityPer: dec(4), AllowVariants: true})

	orch := New(repo, nil, nil)
	result, err := orch.Compute(context.Background(), []entities.Demand{{RootId: 100, Quantity: dec(5)}}, entities.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.OrderLines) != 0 {
		t.Errorf("expected no order lines, got %+v", result.OrderLines)
	}
	if len(result.BuildLines) != 0 {
		t.Errorf("expected no build lines, got %+v", result.BuildLines)
	}
}

// TestCompute_Scenario3_PartialSubAssembly mirrors spec §8 scenario 3.
func TestCompute_Scenario3_PartialSubAssembly(t *testing.T) {
	repo := newFixture()
	repo.AddPart(entities.PartMeta{Id: 100, Name: "Top", IsAssembly: true})
	repo.AddPart(entities.PartMeta{Id: 110, Name: "Sub", IsAssembly: true, InStock: dec(10)})
	repo.AddPart(entities.PartMeta{Id: 200, Name: "Bolt", IsAssembly: false, InStock: dec(0)})
	repo.AddBomLine(entities.BomLine{ParentId: 100, SubPartId: 110, QuantityPer: dec(1), AllowVariants: true})
	repo.AddBomLine(entities.BomLine{ParentId: 110, SubPartId: 200, QuantityPer: dec(4), AllowVariants: true})

	orch := New(repo, nil, nil)
	result, err := orch.Compute(context.Background(), []entities.Demand{{RootId: 100, Quantity: dec(15)}}, entities.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.BuildLines) != 1 {
		t.Fatalf("expected one build line, got %+v", result.BuildLines)
	}
	build := result.BuildLines[0]
	if !build.TotalNeeded.Equal(dec(15)) || !build.Available.Equal(dec(10)) || !build.ToBuild.Equal(dec(5)) {
		t.Errorf("unexpected build line: %+v", build)
	}

	if len(result.OrderLines) != 1 {
		t.Fatalf("expected one order line, got %+v", result.OrderLines)
	}
	order := result.OrderLines[0]
	if !order.Required.Equal(dec(20)) || !order.ToOrder.Equal(dec(20)) {
		t.Errorf("unexpected order line: %+v", order)
	}
}

// TestCompute_Scenario4_SharedSubAssembly mirrors spec §8 scenario 4:
// two roots sharing one sub-assembly must see combined demand net of
// a single stock pool, not double-counted.
func TestCompute_Scenario4_SharedSubAssembly(t *testing.T) {
	repo := newFixture()
	repo.AddPart(entities.PartMeta{Id: 100, Name: "RootA", IsAssembly: true})
	repo.AddPart(entities.PartMeta{Id: 101, Name: "RootB", IsAssembly: true})
	repo.AddPart(entities.PartMeta{Id: 110, Name: "Shared", IsAssembly: true, InStock: dec(5)})
	repo.AddPart(entities.PartMeta{Id: 200, Name: "Bolt", IsAssembly: false, InStock: dec(0)})
	repo.AddBomLine(entities.BomLine{ParentId: 100, SubPartId: 110, QuantityPer: dec(3), AllowVariants: true})
	repo.AddBomLine(entities.BomLine{ParentId: 101, SubPartId: 110, QuantityPer: dec(4), AllowVariants: true})
	repo.AddBomLine(entities.BomLine{ParentId: 110, SubPartId: 200, QuantityPer: dec(1), AllowVariants: true})

	orch := New(repo, nil, nil)
	result, err := orch.Compute(context.Background(), []entities.Demand{
		{RootId: 100, Quantity: dec(1)},
		{RootId: 101, Quantity: dec(1)},
	}, entities.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.BuildLines) != 1 {
		t.Fatalf("expected one build line for the shared assembly, got %+v", result.BuildLines)
	}
	if !result.BuildLines[0].ToBuild.Equal(dec(2)) {
		t.Errorf("to_build = %s, want 2 (3+4-5)", result.BuildLines[0].ToBuild)
	}
	if len(result.OrderLines) != 1 || !result.OrderLines[0].ToOrder.Equal(dec(2)) {
		t.Errorf("expected children sized against the residual 2, got %+v", result.OrderLines)
	}
}

// TestCompute_Scenario5_TemplatePoolDisabled mirrors spec §8 scenario
// 5: a single allow_variants=false line disables variant pooling for
// every consumer of the template in this run.
func TestCompute_Scenario5_TemplatePoolDisabled(t *testing.T) {
	repo := newFixture()
	repo.AddPart(entities.PartMeta{Id: 100, Name: "RootA", IsAssembly: true})
	repo.AddPart(entities.PartMeta{Id: 101, Name: "RootB", IsAssembly: true})
	repo.AddPart(entities.PartMeta{Id: 300, Name: "Template", IsAssembly: false, IsTemplate: true, InStock: dec(3), VariantStock: dec(10)})
	repo.AddBomLine(entities.BomLine{ParentId: 100, SubPartId: 300, QuantityPer: dec(1), AllowVariants: true})
	repo.AddBomLine(entities.BomLine{ParentId: 101, SubPartId: 300, QuantityPer: dec(1), AllowVariants: false})

	orch := New(repo, nil, nil)
	result, err := orch.Compute(context.Background(), []entities.Demand{
		{RootId: 100, Quantity: dec(4)},
		{RootId: 101, Quantity: dec(4)},
	}, entities.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.OrderLines) != 1 {
		t.Fatalf("expected one order line, got %+v", result.OrderLines)
	}
	line := result.OrderLines[0]
	if !line.Available.Equal(dec(3)) {
		t.Errorf("available = %s, want 3 (pooling disabled)", line.Available)
	}
	if !line.ToOrder.Equal(dec(5)) {
		t.Errorf("to_order = %s, want 5", line.ToOrder)
	}
}

// TestCompute_Scenario6_OnOrderReducesToOrder mirrors spec §8 scenario
// 6.
func TestCompute_Scenario6_OnOrderReducesToOrder(t *testing.T) {
	repo := newFixture()
	repo.AddPart(entities.PartMeta{Id: 100, Name: "Top", IsAssembly: true})
	repo.AddPart(entities.PartMeta{Id: 200, Name: "Bolt", IsAssembly: false, InStock: dec(2)})
	repo.AddBomLine(entities.BomLine{ParentId: 100, SubPartId: 200, QuantityPer: dec(1), AllowVariants: true})
	repo.SetOpenOrders(200, entities.OpenOrders{PurchaseOpen: dec(5)})

	orch := New(repo, nil, nil)
	result, err := orch.Compute(context.Background(), []entities.Demand{{RootId: 100, Quantity: dec(10)}}, entities.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.OrderLines) != 1 || !result.OrderLines[0].ToOrder.Equal(dec(3)) {
		t.Errorf("expected to_order=3, got %+v", result.OrderLines)
	}
}

// TestCompute_EmptyDemandReturnsEmptyResult is spec §8 invariant 4.
func TestCompute_EmptyDemandReturnsEmptyResult(t *testing.T) {
	repo := newFixture()
	orch := New(repo, nil, nil)
	result, err := orch.Compute(context.Background(), nil, entities.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.OrderLines) != 0 || len(result.BuildLines) != 0 {
		t.Errorf("expected two empty lists, got %+v", result)
	}
}

// TestCompute_NonAssemblyRootIsValidationError is spec §4.4 step 1.
func TestCompute_NonAssemblyRootIsValidationError(t *testing.T) {
	repo := newFixture()
	repo.AddPart(entities.PartMeta{Id: 200, Name: "Bolt", IsAssembly: false})

	orch := New(repo, nil, nil)
	_, err := orch.Compute(context.Background(), []entities.Demand{{RootId: 200, Quantity: dec(1)}}, entities.Filters{})
	if err == nil {
		t.Fatal("expected a validation error for a non-assembly root")
	}
}

// TestCompute_NonPositiveQuantityIsValidationError is spec §3's
// invariant on Demand.Quantity.
func TestCompute_NonPositiveQuantityIsValidationError(t *testing.T) {
	repo := newFixture()
	repo.AddPart(entities.PartMeta{Id: 100, Name: "Top", IsAssembly: true})

	orch := New(repo, nil, nil)
	_, err := orch.Compute(context.Background(), []entities.Demand{{RootId: 100, Quantity: dec(0)}}, entities.Filters{})
	if err == nil {
		t.Fatal("expected a validation error for a non-positive quantity")
	}
}

// TestCompute_CycleIsDataError is spec §4.2's cycle handling rule.
func TestCompute_CycleIsDataError(t *testing.T) {
	repo := newFixture()
	repo.AddPart(entities.PartMeta{Id: 100, Name: "A", IsAssembly: true})
	repo.AddPart(entities.PartMeta{Id: 110, Name: "B", IsAssembly: true})
	repo.AddBomLine(entities.BomLine{ParentId: 100, SubPartId: 110, QuantityPer: dec(1), AllowVariants: true})
	repo.AddBomLine(entities.BomLine{ParentId: 110, SubPartId: 100, QuantityPer: dec(1), AllowVariants: true})

	orch := New(repo, nil, nil)
	_, err := orch.Compute(context.Background(), []entities.Demand{{RootId: 100, Quantity: dec(1)}}, entities.Filters{})
	if err == nil {
		t.Fatal("expected a cycle-detected error")
	}
}

// TestCompute_UnresolvablePartIsDataError is spec §3's invariant that
// every referenced sub-part must resolve.
func TestCompute_UnresolvablePartIsDataError(t *testing.T) {
	repo := newFixture()
	repo.AddPart(entities.PartMeta{Id: 100, Name: "Top", IsAssembly: true})
	repo.AddBomLine(entities.BomLine{ParentId: 100, SubPartId: 999, QuantityPer: dec(1), AllowVariants: true})

	orch := New(repo, nil, nil)
	_, err := orch.Compute(context.Background(), []entities.Demand{{RootId: 100, Quantity: dec(1)}}, entities.Filters{})
	if err == nil {
		t.Fatal("expected a data error for an unresolvable part")
	}
}

// TestCompute_Linearity is spec §8 invariant 5: disjoint roots compute
// the same whether run together or separately.
func TestCompute_Linearity(t *testing.T) {
	repoA := newFixture()
	repoA.AddPart(entities.PartMeta{Id: 100, Name: "A", IsAssembly: true})
	repoA.AddPart(entities.PartMeta{Id: 200, Name: "AChild", IsAssembly: false, InStock: dec(1)})
	repoA.AddBomLine(entities.BomLine{ParentId: 100, SubPartId: 200, QuantityPer: dec(1), AllowVariants: true})

	repoB := newFixture()
	repoB.AddPart(entities.PartMeta{Id: 101, Name: "B", IsAssembly: true})
	repoB.AddPart(entities.PartMeta{Id: 201, Name: "BChild", IsAssembly: false, InStock: dec(0)})
	repoB.AddBomLine(entities.BomLine{ParentId: 101, SubPartId: 201, QuantityPer: dec(2), AllowVariants: true})

	combined := newFixture()
	combined.AddPart(entities.PartMeta{Id: 100, Name: "A", IsAssembly: true})
	combined.AddPart(entities.PartMeta{Id: 200, Name: "AChild", IsAssembly: false, InStock: dec(1)})
	combined.AddBomLine(entities.BomLine{ParentId: 100, SubPartId: 200, QuantityPer: dec(1), AllowVariants: true})
	combined.AddPart(entities.PartMeta{Id: 101, Name: "B", IsAssembly: true})
	combined.AddPart(entities.PartMeta{Id: 201, Name: "BChild", IsAssembly: false, InStock: dec(0)})
	combined.AddBomLine(entities.BomLine{ParentId: 101, SubPartId: 201, QuantityPer: dec(2), AllowVariants: true})

	resultA, err := New(repoA, nil, nil).Compute(context.Background(), []entities.Demand{{RootId: 100, Quantity: dec(5)}}, entities.Filters{})
	if err != nil {
		t.Fatalf("unexpected error computing A alone: %v", err)
	}
	resultB, err := New(repoB, nil, nil).Compute(context.Background(), []entities.Demand{{RootId: 101, Quantity: dec(3)}}, entities.Filters{})
	if err != nil {
		t.Fatalf("unexpected error computing B alone: %v", err)
	}
	resultCombined, err := New(combined, nil, nil).Compute(context.Background(), []entities.Demand{
		{RootId: 100, Quantity: dec(5)},
		{RootId: 101, Quantity: dec(3)},
	}, entities.Filters{})
	if err != nil {
		t.Fatalf("unexpected error computing A+B: %v", err)
	}

	wantOrders := len(resultA.OrderLines) + len(resultB.OrderLines)
	if len(resultCombined.OrderLines) != wantOrders {
		t.Errorf("combined order lines = %d, want %d", len(resultCombined.OrderLines), wantOrders)
	}
}

// TestCompute_Idempotent is spec §8 invariant 9: re-running against an
// unchanging snapshot yields identical results.
func TestCompute_Idempotent(t *testing.T) {
	repo := newFixture()
	repo.AddPart(entities.PartMeta{Id: 100, Name: "Top", IsAssembly: true})
	repo.AddPart(entities.PartMeta{Id: 200, Name: "Bolt", IsAssembly: false, InStock: dec(5)})
	repo.AddBomLine(entities.BomLine{ParentId: 100, SubPartId: 200, QuantityPer: dec(2), AllowVariants: true})

	orch := New(repo, nil, nil)
	demands := []entities.Demand{{RootId: 100, Quantity: dec(3)}}

	first, err := orch.Compute(context.Background(), demands, entities.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := orch.Compute(context.Background(), demands, entities.Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first.OrderLines) != len(second.OrderLines) {
		t.Fatalf("order line counts differ across runs: %d vs %d", len(first.OrderLines), len(second.OrderLines))
	}
	for i := range first.OrderLines {
		if !first.OrderLines[i].ToOrder.Equal(second.OrderLines[i].ToOrder) {
			t.Errorf("order line %d to_order differs across runs: %s vs %s", i, first.OrderLines[i].ToOrder, second.OrderLines[i].ToOrder)
		}
	}
}
