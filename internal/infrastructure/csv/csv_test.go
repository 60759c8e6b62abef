package csv

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrp/internal/domain/entities"
)

func TestWriteOrderLines_FormatsThreeDecimalsAndLF(t *testing.T) {
	var buf bytes.Buffer
	lines := []entities.OrderLine{
		{PartId: 200, Name: "Bolt", Required: decimal.NewFromInt(6), Available: decimal.NewFromInt(5), OnOrder: decimal.Zero, ToOrder: decimal.NewFromInt(1), RootId: 100, RootName: "Widget"},
	}
	if err := WriteOrderLines(&buf, lines); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "\r\n") {
		t.Error("expected LF line endings, found CRLF")
	}
	if !strings.Contains(out, "1.000") {
		t.Errorf("expected three-fractional-digit formatting, got: %s", out)
	}
	if !strings.HasPrefix(out, "part_id,name,required,available,on_order,to_order,root_id,root_name\n") {
		t.Errorf("unexpected header: %s", out)
	}
}

func TestWriteBuildLines_EmptyListStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBuildLines(&buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "part_id,name,total_needed,in_stock,in_progress,available,to_build\n" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
