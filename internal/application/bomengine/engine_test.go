package bomengine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrp/internal/domain/entities"
	"github.com/vsinha/mrp/internal/infrastructure/memory"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestGross_SumsAcrossSharedSubAssembly(t *testing.T) {
	repo := memory.New()
	repo.AddPart(entities.PartMeta{Id: 100, Name: "A", IsAssembly: true})
	repo.AddPart(entities.PartMeta{Id: 101, Name: "B", IsAssembly: true})
	repo.AddPart(entities.PartMeta{Id: 110, Name: "Shared", IsAssembly: true})
	repo.AddPart(entities.PartMeta{Id: 200, Name: "Leaf", IsAssembly: false})
	repo.AddBomLine(entities.BomLine{ParentId: 100, SubPartId: 110, QuantityPer: dec(3), AllowVariants: true})
	repo.AddBomLine(entities.BomLine{ParentId: 101, SubPartId: 110, QuantityPer: dec(4), AllowVariants: true})
	repo.AddBomLine(entities.BomLine{ParentId: 110, SubPartId: 200, QuantityPer: dec(1), AllowVariants: true})

	engine := New(repo)
	gross, err := engine.Gross(context.Background(), []entities.Demand{
		{RootId: 100, Quantity: dec(1)},
		{RootId: 101, Quantity: dec(1)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gross.Assembly[110].Equal(dec(7)) {
		t.Errorf("gross.Assembly[110] = %s, want 7", gross.Assembly[110])
	}
	if !gross.Base[200].Equal(dec(7)) {
		t.Errorf("gross.Base[200] = %s, want 7", gross.Base[200])
	}
}

func TestGross_EmptyBomProducesDiagnostic(t *testing.T) {
	repo := memory.New()
	repo.AddPart(entities.PartMeta{Id: 100, Name: "A", IsAssembly: true})

	engine := New(repo)
	gross, err := engine.Gross(context.Background(), []entities.Demand{{RootId: 100, Quantity: dec(1)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gross.Diagnostics) != 1 {
		t.Fatalf("expected one diagnostic for the empty BOM, got %+v", gross.Diagnostics)
	}
}

func TestGross_TemplateOnlyFlagSetByRestrictiveLine(t *testing.T) {
	repo := memory.New()
	repo.AddPart(entities.PartMeta{Id: 100, Name: "A", IsAssembly: true})
	repo.AddPart(entities.PartMeta{Id: 300, Name: "Template", IsAssembly: false, IsTemplate: true})
	repo.AddBomLine(entities.BomLine{ParentId: 100, SubPartId: 300, QuantityPer: dec(1), AllowVariants: false})

	engine := New(repo)
	gross, err := engine.Gross(context.Background(), []entities.Demand{{RootId: 100, Quantity: dec(1)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gross.TemplateOnly[300] {
		t.Error("expected part 300 to be flagged template-only")
	}
}

func TestNet_PrunesWhenStockCoversDemand(t *testing.T) {
	repo := memory.New()
	repo.AddPart(entities.PartMeta{Id: 100, Name: "A", IsAssembly: true})
	repo.AddPart(entities.PartMeta{Id: 110, Name: "Sub", IsAssembly: true, InStock: dec(10)})
	repo.AddPart(entities.PartMeta{Id: 200, Name: "Leaf", IsAssembly: false, InStock: dec(0)})
	repo.AddBomLine(entities.BomLine{ParentId: 100, SubPartId: 110, QuantityPer: dec(1), AllowVariants: true})
	repo.AddBomLine(entities.BomLine{ParentId: 110, SubPartId: 200, QuantityPer: dec(4), AllowVariants: true})

	engine := New(repo)
	demands := []entities.Demand{{RootId: 100, Quantity: dec(5)}}
	ctx := context.Background()

	meta := map[entities.PartId]*entities.PartMeta{}
	for _, id := range []entities.PartId{100, 110, 200} {
		m, _ := repo.GetPartMeta(ctx, id)
		meta[id] = m
	}
	stock := NewStockView(meta, nil, nil, nil, false)

	net, err := engine.Net(ctx, demands, stock)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(net.AssemblyToBuild) != 0 {
		t.Errorf("expected no assembly to need building, got %+v", net.AssemblyToBuild)
	}
	if len(net.Base) != 0 {
		t.Errorf("expected the leaf's demand to be pruned away, got %+v", net.Base)
	}
}

func TestGross_CycleIsDetected(t *testing.T) {
	repo := memory.New()
	repo.AddPart(entities.PartMeta{Id: 100, Name: "A", IsAssembly: true})
	repo.AddPart(entities.PartMeta{Id: 110, Name: "B", IsAssembly: true})
	repo.AddBomLine(entities.BomLine{ParentId: 100, SubPartId: 110, QuantityPer: dec(1), AllowVariants: true})
	repo.AddBomLine(entities.BomLine{ParentId: 110, SubPartId: 100, QuantityPer: dec(1), AllowVariants: true})

	engine := New(repo)
	_, err := engine.Gross(context.Background(), []entities.Demand{{RootId: 100, Quantity: dec(1)}})
	if err == nil {
		t.Fatal("expected a cycle-detected error")
	}
}
