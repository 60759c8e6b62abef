package snapshot

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrp/internal/domain/entities"
)

func TestStore_SaveThenGet(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer store.Close()

	rec := Record{
		RunId:      "run-1",
		ComputedAt: time.Unix(0, 0).UTC(),
		Demands:    []entities.Demand{{RootId: 100, Quantity: decimal.NewFromInt(3)}},
		OrderLines: []entities.OrderLine{{PartId: 200, Name: "Bolt", ToOrder: decimal.NewFromInt(1)}},
	}
	if err := store.Save(rec); err != nil {
		t.Fatalf("saving: %v", err)
	}

	got, ok, err := store.Get("run-1")
	if err != nil {
		t.Fatalf("getting: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot to be found")
	}
	if len(got.OrderLines) != 1 || got.OrderLines[0].Name != "Bolt" {
		t.Errorf("unexpected round-tripped record: %+v", got)
	}
}

func TestStore_GetMissing(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer store.Close()

	_, ok, err := store.Get("does-not-exist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected not found")
	}
}
