package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/vsinha/mrp/internal/application/orchestrator"
	"github.com/vsinha/mrp/internal/config"
	"github.com/vsinha/mrp/internal/domain/entities"
	domainerrors "github.com/vsinha/mrp/internal/domain/errors"
	csvout "github.com/vsinha/mrp/internal/infrastructure/csv"
	"github.com/vsinha/mrp/internal/infrastructure/inventree"
	"github.com/vsinha/mrp/internal/infrastructure/snapshot"
	"github.com/vsinha/mrp/internal/observability"
)

var (
	computeDemands              []string
	computeExcludeSuppliers     []string
	computeExcludeManufacturers []string
	computeFormat               string
	computeOutputDir            string
	computeTimeout              time.Duration
	computeCountBuildInProgress bool
	computeSnapshotDir          string
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute the to-purchase and to-build lists for a set of demands",
	RunE:  runCompute,
}

func init() {
	computeCmd.Flags().StringArrayVar(&computeDemands, "demand", nil, "root_part_id:quantity, repeatable (required)")
	computeCmd.Flags().StringArrayVar(&computeExcludeSuppliers, "exclude-supplier", nil, "supplier name to exclude from output, repeatable")
	computeCmd.Flags().StringArrayVar(&computeExcludeManufacturers, "exclude-manufacturer", nil, "manufacturer name to exclude from output, repeatable")
	computeCmd.Flags().StringVar(&computeFormat, "format", "text", "output format: text or csv")
	computeCmd.Flags().StringVar(&computeOutputDir, "output", "", "directory to write order-lines.csv/build-lines.csv into (csv format only)")
	computeCmd.Flags().DurationVar(&computeTimeout, "timeout", 5*time.Minute, "deadline for the whole calculation run")
	computeCmd.Flags().BoolVar(&computeCountBuildInProgress, "count-build-in-progress", true, "fold in-flight build orders into an assembly's available stock")
	computeCmd.Flags().StringVar(&computeSnapshotDir, "snapshot-dir", "", "if set, persist this run's result to a local pebble snapshot store")
	computeCmd.MarkFlagRequired("demand")
}

func runCompute(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	demands, err := parseDemands(computeDemands)
	if err != nil {
		return &domainerrors.ValidationError{Field: "demand", Message: err.Error()}
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	dal := inventree.New(cfg.BaseURL, cfg.APIToken, 30*time.Second, metrics)
	orch := orchestrator.New(dal, observability.NewLogger(), metrics)

	ctx, cancel := context.WithTimeout(cmd.Context(), computeTimeout)
	defer cancel()

	filters := entities.Filters{
		ExcludeSuppliers:     toSet(computeExcludeSuppliers),
		ExcludeManufacturers: toSet(computeExcludeManufacturers),
		CountBuildInProgress: computeCountBuildInProgress,
	}

	result, err := orch.Compute(ctx, demands, filters)
	if err != nil {
		return err
	}

	if computeSnapshotDir != "" {
		if err := persistSnapshot(computeSnapshotDir, demands, result); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to persist snapshot: %v\n", err)
		}
	}

	switch computeFormat {
	case "csv":
		return writeCSVOutput(result.OrderLines, result.BuildLines)
	default:
		writeTextOutput(result)
		return nil
	}
}

func parseDemands(raw []string) ([]entities.Demand, error) {
	demands := make([]entities.Demand, 0, len(raw))
	for _, s := range raw {
		parts := strings.SplitN(s, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%q must be root_part_id:quantity", s)
		}
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: invalid part id: %w", s, err)
		}
		qty, err := decimal.NewFromString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%q: invalid quantity: %w", s, err)
		}
		demands = append(demands, entities.Demand{RootId: entities.PartId(id), Quantity: qty})
	}
	return demands, nil
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func writeTextOutput(result *orchestrator.Result) {
	fmt.Printf("Run %s\n\n", result.RunId)
	fmt.Println("To purchase:")
	for _, l := range result.OrderLines {
		fmt.Printf("  %-30s qty=%-10s (required=%s available=%s on_order=%s) from %s\n",
			l.Name, l.ToOrder.StringFixed(3), l.Required.StringFixed(3), l.Available.StringFixed(3), l.OnOrder.StringFixed(3), l.RootName)
	}
	fmt.Println("\nTo build:")
	for _, l := range result.BuildLines {
		fmt.Printf("  %-30s qty=%-10s (needed=%s in_stock=%s in_progress=%s)\n",
			l.Name, l.ToBuild.StringFixed(3), l.TotalNeeded.StringFixed(3), l.InStock.StringFixed(3), l.InProgress.StringFixed(3))
	}
	for _, d := range result.Diagnostics {
		fmt.Printf("\n[warn] %s\n", d.Message)
	}
}

func writeCSVOutput(orderLines []entities.OrderLine, buildLines []entities.BuildLine) error {
	if computeOutputDir == "" {
		if err := csvout.WriteOrderLines(os.Stdout, orderLines); err != nil {
			return err
		}
		return csvout.WriteBuildLines(os.Stdout, buildLines)
	}

	if err := os.MkdirAll(computeOutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := writeCSVFile(filepath.Join(computeOutputDir, "order-lines.csv"), orderLines, csvout.WriteOrderLines); err != nil {
		return err
	}
	return writeCSVFile(filepath.Join(computeOutputDir, "build-lines.csv"), buildLines, csvout.WriteBuildLines)
}

func writeCSVFile[T any](path string, rows []T, write func(w io.Writer, rows []T) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return write(f, rows)
}

func persistSnapshot(dir string, demands []entities.Demand, result *orchestrator.Result) error {
	store, err := snapshot.Open(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Save(snapshot.Record{
		RunId:      result.RunId,
		Demands:    demands,
		OrderLines: result.OrderLines,
		BuildLines: result.BuildLines,
	})
}
