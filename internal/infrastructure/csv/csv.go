// Package csv serializes Compute's two result lists to the CSV format
// of spec §6.3: UTF-8, comma-separated, LF line endings, a header row
// naming the §3 fields, decimals formatted to three fractional digits.
// Grounded on the teacher's
// pkg/infrastructure/repositories/csv/csv_loader.go idiom of
// encoding/csv plus explicit header slices.
package csv

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrp/internal/domain/entities"
)

var orderLineHeader = []string{"part_id", "name", "required", "available", "on_order", "to_order", "root_id", "root_name"}

var buildLineHeader = []string{"part_id", "name", "total_needed", "in_stock", "in_progress", "available", "to_build"}

func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.UseCRLF = false
	return cw
}

func fixed3(d decimal.Decimal) string {
	return d.StringFixed(3)
}

// WriteOrderLines serializes the to-purchase list.
func WriteOrderLines(w io.Writer, lines []entities.OrderLine) error {
	cw := newWriter(w)
	if err := cw.Write(orderLineHeader); err != nil {
		return err
	}
	for _, l := range lines {
		row := []string{
			strconv.FormatInt(int64(l.PartId), 10),
			l.Name,
			fixed3(l.Required),
			fixed3(l.Available),
			fixed3(l.OnOrder),
			fixed3(l.ToOrder),
			strconv.FormatInt(int64(l.RootId), 10),
			l.RootName,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBuildLines serializes the to-build list.
func WriteBuildLines(w io.Writer, lines []entities.BuildLine) error {
	cw := newWriter(w)
	if err := cw.Write(buildLineHeader); err != nil {
		return err
	}
	for _, l := range lines {
		row := []string{
			strconv.FormatInt(int64(l.PartId), 10),
			l.Name,
			fixed3(l.TotalNeeded),
			fixed3(l.InStock),
			fixed3(l.InProgress),
			fixed3(l.Available),
			fixed3(l.ToBuild),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
