package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vsinha/mrp/internal/config"
	domainerrors "github.com/vsinha/mrp/internal/domain/errors"
	"github.com/vsinha/mrp/internal/infrastructure/inventree"
	"github.com/vsinha/mrp/internal/observability"
)

var listAssembliesCmd = &cobra.Command{
	Use:   "list-assemblies",
	Short: "List assemblies in the configured category, as demand-selection candidates",
	RunE:  runListAssemblies,
}

func runListAssemblies(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.AssemblyCategoryID <= 0 {
		return &domainerrors.ConfigurationError{
			Field:   "MRP_ASSEMBLY_CATEGORY_ID",
			Message: "must be set to a positive category id to list assemblies",
		}
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	dal := inventree.New(cfg.BaseURL, cfg.APIToken, 30*time.Second, metrics)
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	parts, err := dal.ListAssembliesInCategory(ctx, cfg.AssemblyCategoryID)
	if err != nil {
		return err
	}
	for _, p := range parts {
		fmt.Printf("%d\t%s\n", p.Id, p.Name)
	}
	return nil
}
